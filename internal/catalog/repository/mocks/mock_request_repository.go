package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/catalog/repository"
)

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) CreateRequest(ctx context.Context, request *domain.CreationRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) GetRequestByID(ctx context.Context, id int64) (*domain.CreationRequest, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*domain.CreationRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRequestRepository) ListRequests(ctx context.Context) ([]domain.CreationRequest, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]domain.CreationRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRequestRepository) DeleteRequest(ctx context.Context, dbops repository.DBTX, id int64) error {
	args := m.Called(ctx, dbops, id)
	return args.Error(0)
}

func (m *MockRequestRepository) BeginTx(ctx context.Context) (repository.DBTX, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(repository.DBTX), args.Error(1)
	}
	return nil, args.Error(1)
}
