package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/catalog/repository"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListProductsWithDiscounts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) GetProductByIDWithDiscounts(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if res := args.Get(0); res != nil {
		return res.([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, dbops repository.DBTX, product *domain.Product) error {
	args := m.Called(ctx, dbops, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) AddDiscount(ctx context.Context, discount *domain.Discount) error {
	args := m.Called(ctx, discount)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteDiscountsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) GetProductForUpdate(ctx context.Context, dbops repository.DBTX, id int64) (*domain.Product, error) {
	args := m.Called(ctx, dbops, id)
	if res := args.Get(0); res != nil {
		return res.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) UpdateQuantityInStock(ctx context.Context, dbops repository.DBTX, id int64, quantity int) error {
	args := m.Called(ctx, dbops, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) BeginTx(ctx context.Context) (repository.DBTX, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(repository.DBTX), args.Error(1)
	}
	return nil, args.Error(1)
}
