package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/catalog/pricing"
	"github.com/prasetyow/product-catalog-service/internal/catalog/repository"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

type ProductService interface {
	GetProduct(ctx context.Context, id int64) (*domain.ProductView, error)
	ListProducts(ctx context.Context) ([]domain.ProductView, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	EditProduct(ctx context.Context, identity domain.Identity, id int64, dto domain.ProductCreateRequest) (*domain.ProductView, error)
	DeleteProduct(ctx context.Context, identity domain.Identity, id int64) error

	ReserveStock(ctx context.Context, id int64, quantity int) error
	ReturnStock(ctx context.Context, id int64, quantity int) error

	AddDiscount(ctx context.Context, identity domain.Identity, productID int64, dto domain.DiscountCreateRequest) (*domain.Discount, error)
	PurgeExpiredDiscounts(ctx context.Context)

	SubmitRequest(ctx context.Context, identity domain.Identity, dto domain.ProductCreateRequest) (*domain.RequestView, error)
	GetRequest(ctx context.Context, id int64) (*domain.RequestView, error)
	ListRequests(ctx context.Context) ([]domain.RequestView, error)
	RejectRequest(ctx context.Context, id int64) error
	ApproveRequest(ctx context.Context, id int64) (*domain.ProductView, error)
}

type productServiceImpl struct {
	productRepo       repository.ProductRepository
	requestRepo       repository.RequestRepository
	orgClient         OrganizationClient
	scheduler         *cron.Cron
	discountRetention time.Duration
}

func NewProductService(pr repository.ProductRepository, rr repository.RequestRepository, oc OrganizationClient, discountRetention time.Duration) ProductService {
	s := &productServiceImpl{
		productRepo:       pr,
		requestRepo:       rr,
		orgClient:         oc,
		scheduler:         cron.New(cron.WithSeconds()),
		discountRetention: discountRetention,
	}
	s.initScheduler()
	return s
}

// --- Read operations ---

func (s *productServiceImpl) GetProduct(ctx context.Context, id int64) (*domain.ProductView, error) {
	product, err := s.productRepo.GetProductByIDWithDiscounts(ctx, id)
	if err != nil {
		return nil, err
	}

	org, err := s.orgClient.GetOrganization(ctx, product.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org.IsFrozen {
		logger.Warn("GetProduct: organization %d is frozen", org.ID)
		return nil, domain.ErrOrganizationFrozen
	}
	if org.IsDeleted {
		logger.Warn("GetProduct: organization %d is deleted", org.ID)
		return nil, domain.ErrOrganizationDeleted
	}

	modifier := pricing.EffectiveModifier(product.Discounts, time.Now())
	return domain.NewProductViewWithModifier(product, modifier), nil
}

func (s *productServiceImpl) ListProducts(ctx context.Context) ([]domain.ProductView, error) {
	products, err := s.productRepo.ListProductsWithDiscounts(ctx)
	if err != nil {
		return nil, err
	}

	// Fan-out the per-product organization lookups. Registry state changes
	// are rare relative to catalog size, so one lookup per product is
	// acceptable here; a lookup infrastructure fault fails the whole list
	// rather than being swallowed.
	type result struct {
		index int
		org   *domain.Organization
		err   error
	}
	var wg sync.WaitGroup
	resultsChan := make(chan result, len(products))

	for i, p := range products {
		wg.Add(1)
		go func(idx int, orgID int64) {
			defer wg.Done()
			org, err := s.orgClient.GetOrganization(ctx, orgID)
			resultsChan <- result{index: idx, org: org, err: err}
		}(i, p.OrganizationID)
	}

	wg.Wait()
	close(resultsChan)

	orgs := make([]*domain.Organization, len(products))
	for res := range resultsChan {
		if res.err != nil {
			if res.err == domain.ErrOrganizationNotFound {
				// Organization gone from the registry: drop the product,
				// same as deleted.
				continue
			}
			logger.Error("ListProducts: organization lookup failed", res.err)
			return nil, res.err
		}
		orgs[res.index] = res.org
	}

	now := time.Now()
	views := []domain.ProductView{}
	for i := range products {
		org := orgs[i]
		if org == nil || org.IsFrozen || org.IsDeleted {
			continue
		}
		modifier := pricing.EffectiveModifier(products[i].Discounts, now)
		views = append(views, *domain.NewProductViewWithModifier(&products[i], modifier))
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

func (s *productServiceImpl) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	return s.productRepo.GetProductsByIDs(ctx, ids)
}

// --- Mutations ---

func (s *productServiceImpl) EditProduct(ctx context.Context, identity domain.Identity, id int64, dto domain.ProductCreateRequest) (*domain.ProductView, error) {
	if err := normalizeProductInput(&dto); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	targetOrg, err := s.orgClient.GetOrganization(ctx, dto.OrganizationID)
	if err != nil {
		return nil, err
	}
	if targetOrg.IsFrozen {
		logger.Warn("EditProduct: target organization %d is frozen", targetOrg.ID)
		return nil, domain.ErrOrganizationFrozen
	}

	if !identity.IsAdmin {
		// The product's current organization and the target organization can
		// legitimately have different owners when the product is being
		// reassigned, so both ownership checks run.
		currentOrg, err := s.orgClient.GetOrganization(ctx, product.OrganizationID)
		if err != nil {
			return nil, err
		}
		if !IsOrganizationOwner(identity, currentOrg.OwnerID) {
			logger.Warn("EditProduct: user %q is not the owner of organization %d", identity.Username, currentOrg.ID)
			return nil, &domain.InvalidOwnerError{OrganizationID: currentOrg.ID, OwnerID: currentOrg.OwnerID, CallerID: identity.ID}
		}
		if !IsOrganizationOwner(identity, targetOrg.OwnerID) {
			logger.Warn("EditProduct: user %q is not the owner of target organization %d", identity.Username, targetOrg.ID)
			return nil, &domain.InvalidOwnerError{OrganizationID: targetOrg.ID, OwnerID: targetOrg.OwnerID, CallerID: identity.ID}
		}
	}

	// A no-op rename to the product's own name is allowed.
	if dto.Name != product.Name {
		exists, err := s.productRepo.ExistsByName(ctx, dto.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Warn("EditProduct: product with name %q already exists", dto.Name)
			return nil, domain.ErrProductNameConflict
		}
	}

	product.Name = dto.Name
	product.Description = dto.Description
	product.OrganizationID = dto.OrganizationID
	product.Price = dto.Price
	product.QuantityInStock = dto.QuantityInStock
	product.Tags = dto.Tags
	product.Specs = dto.Specs

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	logger.Info("Product %d was edited by user %q", id, identity.Username)
	return domain.NewProductView(product), nil
}

func (s *productServiceImpl) DeleteProduct(ctx context.Context, identity domain.Identity, id int64) error {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}

	org, err := s.orgClient.GetOrganization(ctx, product.OrganizationID)
	if err != nil {
		return err
	}

	// Ownership is validated before any mutation happens.
	if !CanManageOrganizationProducts(identity, org.OwnerID) {
		logger.Warn("DeleteProduct: user %q is not the owner of organization %d", identity.Username, org.ID)
		return &domain.InvalidOwnerError{OrganizationID: org.ID, OwnerID: org.OwnerID, CallerID: identity.ID}
	}

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	logger.Info("Product %d was deleted by user %q", id, identity.Username)
	return nil
}

// --- Stock reservation ---

// ReserveStock decrements quantity_in_stock under a per-product row lock, so
// two concurrent reservations can never both pass the sufficiency check
// against the same pre-decrement quantity.
func (s *productServiceImpl) ReserveStock(ctx context.Context, id int64, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("ReserveStock: begin tx failed", err)
		return err
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetProductForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if product.QuantityInStock < quantity {
		logger.Warn("ReserveStock: insufficient stock for product %d (have %d, want %d)", id, product.QuantityInStock, quantity)
		return domain.ErrInsufficientStock
	}
	if err := s.productRepo.UpdateQuantityInStock(ctx, tx, id, product.QuantityInStock-quantity); err != nil {
		return err
	}
	return tx.Commit()
}

// ReturnStock increments quantity_in_stock with no upper bound, under the
// same per-product lock to avoid lost updates against concurrent reserves.
func (s *productServiceImpl) ReturnStock(ctx context.Context, id int64, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("ReturnStock: begin tx failed", err)
		return err
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetProductForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.UpdateQuantityInStock(ctx, tx, id, product.QuantityInStock+quantity); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Discounts ---

func (s *productServiceImpl) AddDiscount(ctx context.Context, identity domain.Identity, productID int64, dto domain.DiscountCreateRequest) (*domain.Discount, error) {
	if dto.PriceModifier.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: price modifier must be positive", domain.ErrInvalidDiscount)
	}
	if dto.DiscountEnd != nil && !dto.DiscountEnd.After(dto.DiscountStart) {
		return nil, fmt.Errorf("%w: discount end must be after its start", domain.ErrInvalidDiscount)
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgClient.GetOrganization(ctx, product.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !CanManageOrganizationProducts(identity, org.OwnerID) {
		logger.Warn("AddDiscount: user %q is not the owner of organization %d", identity.Username, org.ID)
		return nil, &domain.InvalidOwnerError{OrganizationID: org.ID, OwnerID: org.OwnerID, CallerID: identity.ID}
	}

	discount := &domain.Discount{
		ProductID:     productID,
		PriceModifier: dto.PriceModifier,
		DiscountStart: dto.DiscountStart,
		DiscountEnd:   dto.DiscountEnd,
	}
	if err := s.productRepo.AddDiscount(ctx, discount); err != nil {
		return nil, err
	}
	logger.Info("Discount %d was added to product %d", discount.ID, productID)
	return discount, nil
}

// --- Input validation ---

func normalizeProductInput(dto *domain.ProductCreateRequest) error {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Name == "" {
		return fmt.Errorf("%w: name must not be blank", domain.ErrInvalidProduct)
	}
	if dto.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidProduct)
	}
	if dto.QuantityInStock < 0 {
		return fmt.Errorf("%w: quantity in stock must not be negative", domain.ErrInvalidProduct)
	}

	// Tags are a set: drop blanks and duplicates.
	seen := make(map[string]bool, len(dto.Tags))
	tags := make([]string, 0, len(dto.Tags))
	for _, tag := range dto.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	dto.Tags = tags

	for name := range dto.Specs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: spec names must not be blank", domain.ErrInvalidProduct)
		}
	}
	if dto.Specs == nil {
		dto.Specs = map[string]string{}
	}
	return nil
}
