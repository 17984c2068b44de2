package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/catalog/repository"
	repoMocks "github.com/prasetyow/product-catalog-service/internal/catalog/repository/mocks"
	svcMocks "github.com/prasetyow/product-catalog-service/internal/catalog/service/mocks"
)

// lockingStockRepo is an in-memory stand-in with the same locking discipline
// as the SQL store: GetProductForUpdate takes a per-product lock that is held
// until the transaction commits or rolls back. It exists to exercise the
// reserve/return paths under real goroutine contention, which testify mocks
// cannot do.
type lockingStockRepo struct {
	rows map[int64]*stockRow
}

type stockRow struct {
	mu  sync.Mutex
	qty int
}

type stockTx struct {
	row    *stockRow
	locked bool
	staged *int
}

func newLockingStockRepo(quantities map[int64]int) *lockingStockRepo {
	rows := make(map[int64]*stockRow, len(quantities))
	for id, qty := range quantities {
		rows[id] = &stockRow{qty: qty}
	}
	return &lockingStockRepo{rows: rows}
}

func (r *lockingStockRepo) BeginTx(ctx context.Context) (repository.DBTX, error) {
	return &stockTx{}, nil
}

func (r *lockingStockRepo) GetProductForUpdate(ctx context.Context, dbops repository.DBTX, id int64) (*domain.Product, error) {
	tx := dbops.(*stockTx)
	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	row.mu.Lock()
	tx.row = row
	tx.locked = true
	return &domain.Product{ID: id, QuantityInStock: row.qty}, nil
}

func (r *lockingStockRepo) UpdateQuantityInStock(ctx context.Context, dbops repository.DBTX, id int64, quantity int) error {
	tx := dbops.(*stockTx)
	staged := quantity
	tx.staged = &staged
	return nil
}

func (r *lockingStockRepo) quantity(id int64) int {
	row := r.rows[id]
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.qty
}

// The write becomes visible only on commit, and the lock is released either
// way. Rollback after a successful commit is a no-op, matching database/sql.
func (t *stockTx) Commit() error {
	if t.staged != nil {
		t.row.qty = *t.staged
	}
	t.release()
	return nil
}

func (t *stockTx) Rollback() error {
	t.release()
	return nil
}

func (t *stockTx) release() {
	if t.locked {
		t.locked = false
		t.staged = nil
		t.row.mu.Unlock()
	}
}

func (t *stockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *stockTx) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, nil
}

func (t *stockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *stockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

// The stock paths never touch the rest of the repository surface.

func (r *lockingStockRepo) ListProductsWithDiscounts(ctx context.Context) ([]domain.Product, error) {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) GetProductByIDWithDiscounts(ctx context.Context, id int64) (*domain.Product, error) {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) CreateProduct(ctx context.Context, dbops repository.DBTX, product *domain.Product) error {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) UpdateProduct(ctx context.Context, product *domain.Product) error {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) DeleteProduct(ctx context.Context, id int64) error {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) AddDiscount(ctx context.Context, discount *domain.Discount) error {
	panic("not used by stock operations")
}

func (r *lockingStockRepo) DeleteDiscountsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	panic("not used by stock operations")
}

func newStockTestService(repo repository.ProductRepository) ProductService {
	return NewProductService(repo, new(repoMocks.MockRequestRepository), new(svcMocks.MockOrganizationClient), time.Hour)
}

func TestReserveStock_ConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.TODO()
	repo := newLockingStockRepo(map[int64]int{1: 5})
	svc := newStockTestService(repo)

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.ReserveStock(ctx, 1, 5)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case err == domain.ErrInsufficientStock:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "only one reservation can drain the stock")
	assert.Equal(t, workers-1, insufficient)
	assert.Equal(t, 0, repo.quantity(1))
}

func TestReserveStock_ConcurrentUnitReservationsAreExact(t *testing.T) {
	ctx := context.TODO()
	repo := newLockingStockRepo(map[int64]int{1: 60})
	svc := newStockTestService(repo)

	const workers = 100
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.ReserveStock(ctx, 1, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 60, succeeded)
	assert.Equal(t, 0, repo.quantity(1))
}

func TestStock_ConcurrentReservesAndReturnsBalance(t *testing.T) {
	ctx := context.TODO()
	repo := newLockingStockRepo(map[int64]int{1: 10})
	svc := newStockTestService(repo)

	const pairs = 50
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Returns never fail, so every reserve below is eventually covered.
			assert.NoError(t, svc.ReturnStock(ctx, 1, 2))
		}()
		go func() {
			defer wg.Done()
			for {
				err := svc.ReserveStock(ctx, 1, 2)
				if err == nil {
					return
				}
				if err != domain.ErrInsufficientStock {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, repo.quantity(1), "matched reserves and returns must cancel out")
}
