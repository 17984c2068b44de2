package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	repoMocks "github.com/prasetyow/product-catalog-service/internal/catalog/repository/mocks"
)

func testRequestDto() domain.ProductCreateRequest {
	return domain.ProductCreateRequest{
		Name:            "Keyboard",
		OrganizationID:  10,
		Price:           decimal.RequireFromString("25.50"),
		QuantityInStock: 5,
		Tags:            []string{"peripherals", "peripherals", " usb "},
		Specs:           map[string]string{"layout": "ANSI"},
	}
}

func testRequest(id int64) *domain.CreationRequest {
	return &domain.CreationRequest{
		ID:              id,
		Name:            "Keyboard",
		OrganizationID:  10,
		Price:           decimal.RequireFromString("25.50"),
		QuantityInStock: 5,
		Tags:            []string{"peripherals"},
		Specs:           map[string]string{"layout": "ANSI"},
	}
}

func TestProductService_SubmitRequest(t *testing.T) {
	ctx := context.TODO()
	owner := domain.Identity{ID: 100, Username: "owner"}
	admin := domain.Identity{ID: 1, Username: "root", IsAdmin: true}

	t.Run("Owner submits a pending request", func(t *testing.T) {
		_, mockRequests, mockOrgs, svc := newTestService()
		mockOrgs.On("GetOrganization", ctx, int64(10)).Return(activeOrg(10, 100), nil).Once()
		mockRequests.On("CreateRequest", ctx, mock.MatchedBy(func(r *domain.CreationRequest) bool {
			// Input normalization happens before the store sees the request.
			return r.Name == "Keyboard" &&
				len(r.Tags) == 2 && r.Tags[0] == "peripherals" && r.Tags[1] == "usb"
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.CreationRequest).ID = 7
		}).Once()

		view, err := svc.SubmitRequest(ctx, owner, testRequestDto())
		assert.NoError(t, err)
		assert.Equal(t, int64(7), view.ID)
		assert.Equal(t, "Keyboard", view.Name)
		mockRequests.AssertExpectations(t)
	})

	t.Run("Admin identity does not bypass ownership", func(t *testing.T) {
		_, mockRequests, mockOrgs, svc := newTestService()
		mockOrgs.On("GetOrganization", ctx, int64(10)).Return(activeOrg(10, 100), nil).Once()

		_, err := svc.SubmitRequest(ctx, admin, testRequestDto())
		assert.True(t, domain.IsInvalidOwner(err))
		mockRequests.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
	})

	t.Run("Frozen organization rejects submission", func(t *testing.T) {
		_, _, mockOrgs, svc := newTestService()
		mockOrgs.On("GetOrganization", ctx, int64(10)).Return(&domain.Organization{ID: 10, OwnerID: 100, IsFrozen: true}, nil).Once()

		_, err := svc.SubmitRequest(ctx, owner, testRequestDto())
		assert.ErrorIs(t, err, domain.ErrOrganizationFrozen)
	})

	t.Run("Unknown organization rejects submission", func(t *testing.T) {
		_, _, mockOrgs, svc := newTestService()
		mockOrgs.On("GetOrganization", ctx, int64(10)).Return(nil, domain.ErrOrganizationNotFound).Once()

		_, err := svc.SubmitRequest(ctx, owner, testRequestDto())
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})

	t.Run("Blank spec name is rejected", func(t *testing.T) {
		_, _, mockOrgs, svc := newTestService()
		dto := testRequestDto()
		dto.Specs = map[string]string{" ": "oops"}

		_, err := svc.SubmitRequest(ctx, owner, dto)
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
		mockOrgs.AssertNotCalled(t, "GetOrganization", mock.Anything, mock.Anything)
	})
}

func TestProductService_ApproveRequest(t *testing.T) {
	ctx := context.TODO()

	t.Run("Approval creates the product and removes the request atomically", func(t *testing.T) {
		mockProducts, mockRequests, _, svc := newTestService()
		mockTx := new(repoMocks.MockDBTX)
		mockRequests.On("GetRequestByID", ctx, int64(7)).Return(testRequest(7), nil).Once()
		mockProducts.On("ExistsByName", ctx, "Keyboard").Return(false, nil).Once()
		mockProducts.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockProducts.On("CreateProduct", ctx, mockTx, mock.MatchedBy(func(p *domain.Product) bool {
			return p.Name == "Keyboard" && p.OrganizationID == 10 && p.QuantityInStock == 5
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(2).(*domain.Product).ID = 42
		}).Once()
		mockRequests.On("DeleteRequest", ctx, mockTx, int64(7)).Return(nil).Once()
		mockTx.On("Commit").Return(nil).Once()
		mockTx.On("Rollback").Return(nil).Maybe()

		view, err := svc.ApproveRequest(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), view.ID)
		assert.Nil(t, view.PriceModifier)
		mockProducts.AssertExpectations(t)
		mockRequests.AssertExpectations(t)
		mockTx.AssertExpectations(t)
	})

	t.Run("Name conflict blocks approval before any transaction", func(t *testing.T) {
		mockProducts, mockRequests, _, svc := newTestService()
		mockRequests.On("GetRequestByID", ctx, int64(7)).Return(testRequest(7), nil).Once()
		mockProducts.On("ExistsByName", ctx, "Keyboard").Return(true, nil).Once()

		_, err := svc.ApproveRequest(ctx, 7)
		assert.ErrorIs(t, err, domain.ErrProductNameConflict)
		mockProducts.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("Failed request deletion rolls the product insert back", func(t *testing.T) {
		mockProducts, mockRequests, _, svc := newTestService()
		mockTx := new(repoMocks.MockDBTX)
		mockRequests.On("GetRequestByID", ctx, int64(7)).Return(testRequest(7), nil).Once()
		mockProducts.On("ExistsByName", ctx, "Keyboard").Return(false, nil).Once()
		mockProducts.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockProducts.On("CreateProduct", ctx, mockTx, mock.Anything).Return(nil).Once()
		mockRequests.On("DeleteRequest", ctx, mockTx, int64(7)).Return(domain.ErrRequestNotFound).Once()
		mockTx.On("Rollback").Return(nil).Once()

		_, err := svc.ApproveRequest(ctx, 7)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
		mockTx.AssertNotCalled(t, "Commit")
	})

	t.Run("Unknown request", func(t *testing.T) {
		_, mockRequests, _, svc := newTestService()
		mockRequests.On("GetRequestByID", ctx, int64(99)).Return(nil, domain.ErrRequestNotFound).Once()

		_, err := svc.ApproveRequest(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	})
}

func TestProductService_RejectRequest(t *testing.T) {
	ctx := context.TODO()

	t.Run("Rejection removes the request", func(t *testing.T) {
		_, mockRequests, _, svc := newTestService()
		mockTx := new(repoMocks.MockDBTX)
		mockRequests.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRequests.On("DeleteRequest", ctx, mockTx, int64(7)).Return(nil).Once()
		mockTx.On("Commit").Return(nil).Once()
		mockTx.On("Rollback").Return(nil).Maybe()

		assert.NoError(t, svc.RejectRequest(ctx, 7))
		mockRequests.AssertExpectations(t)
	})

	t.Run("Rejecting an already-decided request reports not found", func(t *testing.T) {
		_, mockRequests, _, svc := newTestService()
		mockTx := new(repoMocks.MockDBTX)
		mockRequests.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRequests.On("DeleteRequest", ctx, mockTx, int64(7)).Return(domain.ErrRequestNotFound).Once()
		mockTx.On("Rollback").Return(nil).Once()

		assert.ErrorIs(t, svc.RejectRequest(ctx, 7), domain.ErrRequestNotFound)
		mockTx.AssertNotCalled(t, "Commit")
	})
}

func TestProductService_GetRequest(t *testing.T) {
	ctx := context.TODO()

	t.Run("Pending request is visible", func(t *testing.T) {
		_, mockRequests, _, svc := newTestService()
		mockRequests.On("GetRequestByID", ctx, int64(7)).Return(testRequest(7), nil).Once()

		view, err := svc.GetRequest(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, "Keyboard", view.Name)
	})

	t.Run("Unknown request", func(t *testing.T) {
		_, mockRequests, _, svc := newTestService()
		mockRequests.On("GetRequestByID", ctx, int64(99)).Return(nil, domain.ErrRequestNotFound).Once()

		_, err := svc.GetRequest(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	})
}

func TestProductService_ListRequests(t *testing.T) {
	ctx := context.TODO()
	_, mockRequests, _, svc := newTestService()
	mockRequests.On("ListRequests", ctx).Return([]domain.CreationRequest{*testRequest(7), *testRequest(8)}, nil).Once()

	views, err := svc.ListRequests(ctx)
	assert.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, int64(7), views[0].ID)
}
