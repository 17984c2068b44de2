package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
)

type MockOrganizationClient struct {
	mock.Mock
}

func (m *MockOrganizationClient) GetOrganization(ctx context.Context, id int64) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*domain.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}
