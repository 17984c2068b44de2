package service

import (
	"context"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

// Creation-request lifecycle: a request only exists while pending. Approval
// converts it into a product and removes it in one transaction; rejection
// removes it. There is no edit, only delete-and-resubmit.

func (s *productServiceImpl) SubmitRequest(ctx context.Context, identity domain.Identity, dto domain.ProductCreateRequest) (*domain.RequestView, error) {
	if err := normalizeProductInput(&dto); err != nil {
		return nil, err
	}

	org, err := s.orgClient.GetOrganization(ctx, dto.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org.IsFrozen {
		logger.Warn("SubmitRequest: organization %d is frozen", org.ID)
		return nil, domain.ErrOrganizationFrozen
	}
	if org.IsDeleted {
		logger.Warn("SubmitRequest: organization %d is deleted", org.ID)
		return nil, domain.ErrOrganizationDeleted
	}
	// Only the registered owner may submit; an admin identity does not bypass
	// this check.
	if !IsOrganizationOwner(identity, org.OwnerID) {
		logger.Warn("SubmitRequest: user %q is not the owner of organization %d", identity.Username, org.ID)
		return nil, &domain.InvalidOwnerError{OrganizationID: org.ID, OwnerID: org.OwnerID, CallerID: identity.ID}
	}

	request := &domain.CreationRequest{
		Name:            dto.Name,
		Description:     dto.Description,
		OrganizationID:  dto.OrganizationID,
		Price:           dto.Price,
		QuantityInStock: dto.QuantityInStock,
		Tags:            dto.Tags,
		Specs:           dto.Specs,
	}
	if err := s.requestRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	logger.Info("Product creation request %d was submitted by user %q", request.ID, identity.Username)
	return domain.NewRequestView(request), nil
}

func (s *productServiceImpl) GetRequest(ctx context.Context, id int64) (*domain.RequestView, error) {
	request, err := s.requestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewRequestView(request), nil
}

func (s *productServiceImpl) ListRequests(ctx context.Context) ([]domain.RequestView, error) {
	requests, err := s.requestRepo.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, *domain.NewRequestView(&requests[i]))
	}
	return views, nil
}

func (s *productServiceImpl) RejectRequest(ctx context.Context, id int64) error {
	tx, err := s.requestRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("RejectRequest: begin tx failed", err)
		return err
	}
	defer tx.Rollback()

	if err := s.requestRepo.DeleteRequest(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("RejectRequest: commit tx failed", err)
		return err
	}
	logger.Info("Product creation request %d was rejected", id)
	return nil
}

func (s *productServiceImpl) ApproveRequest(ctx context.Context, id int64) (*domain.ProductView, error) {
	request, err := s.requestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByName(ctx, request.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Warn("ApproveRequest: product with name %q already exists", request.Name)
		return nil, domain.ErrProductNameConflict
	}

	// Insert the product and remove the request in one transaction: either
	// both commit or neither does.
	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("ApproveRequest: begin tx failed", err)
		return nil, err
	}
	defer tx.Rollback()

	product := request.ToProduct()
	if err := s.productRepo.CreateProduct(ctx, tx, product); err != nil {
		// A concurrent insert can still win the name between the existence
		// check and here; the unique index reports it as a conflict.
		return nil, err
	}
	if err := s.requestRepo.DeleteRequest(ctx, tx, request.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("ApproveRequest: commit tx failed", err)
		return nil, err
	}

	logger.Info("Product creation request %d was approved as product %d", id, product.ID)
	return domain.NewProductView(product), nil
}
