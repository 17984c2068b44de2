package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

// Postgres error codes checked below.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// DBTX is satisfied by *sql.Tx. Repository methods that must share a
// transaction with other methods take it explicitly; the service layer owns
// Begin/Commit/Rollback.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
	Commit() error
	Rollback() error
}

type ProductRepository interface {
	ListProductsWithDiscounts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByIDWithDiscounts(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	CreateProduct(ctx context.Context, dbops DBTX, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	AddDiscount(ctx context.Context, discount *domain.Discount) error
	DeleteDiscountsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Stock operations. GetProductForUpdate locks the product row until the
	// surrounding transaction ends, which serializes reserve/return pairs per
	// product without serializing unrelated products.
	GetProductForUpdate(ctx context.Context, dbops DBTX, id int64) (*domain.Product, error)
	UpdateQuantityInStock(ctx context.Context, dbops DBTX, id int64, quantity int) error

	BeginTx(ctx context.Context) (DBTX, error)
}

type postgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

const productColumns = `id, name, description, organization_id, price, quantity_in_stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	var p domain.Product
	var description sql.NullString
	err := row.Scan(&p.ID, &p.Name, &description, &p.OrganizationID, &p.Price, &p.QuantityInStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	return &p, nil
}

func (r *postgresProductRepository) BeginTx(ctx context.Context) (DBTX, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *postgresProductRepository) ListProductsWithDiscounts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("ListProductsWithDiscounts: query failed", err)
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			logger.Error("ListProductsWithDiscounts: scan failed", err)
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		logger.Error("ListProductsWithDiscounts: rows iteration error", err)
		return nil, err
	}

	for i := range products {
		if err := r.loadAssociations(ctx, &products[i], true); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.getProduct(ctx, id, false)
}

func (r *postgresProductRepository) GetProductByIDWithDiscounts(ctx context.Context, id int64) (*domain.Product, error) {
	return r.getProduct(ctx, id, true)
}

func (r *postgresProductRepository) getProduct(ctx context.Context, id int64, withDiscounts bool) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		logger.Error("getProduct: query failed", err)
		return nil, err
	}
	if err := r.loadAssociations(ctx, p, withDiscounts); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresProductRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("GetProductsByIDs: query failed", err)
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			logger.Error("GetProductsByIDs: scan failed", err)
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		if err := r.loadAssociations(ctx, &products[i], false); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *postgresProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		logger.Error("ExistsByName: query failed", err)
		return false, err
	}
	return exists, nil
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, dbops DBTX, product *domain.Product) error {
	query := `INSERT INTO products (name, description, organization_id, price, quantity_in_stock, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`

	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	err := dbops.QueryRowContext(ctx, query,
		product.Name, nullString(product.Description), product.OrganizationID,
		product.Price, product.QuantityInStock, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.ErrProductNameConflict
		}
		logger.Error("CreateProduct: insert failed", err)
		return err
	}

	if err := insertTags(ctx, dbops, "product_tags", "product_id", product.ID, product.Tags); err != nil {
		logger.Error("CreateProduct: insert tags failed", err)
		return err
	}
	if err := insertSpecs(ctx, dbops, "product_specs", "product_id", product.ID, product.Specs); err != nil {
		logger.Error("CreateProduct: insert specs failed", err)
		return err
	}
	return nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE products SET name = $1, description = $2, organization_id = $3, price = $4,
              quantity_in_stock = $5, updated_at = $6 WHERE id = $7`
	product.UpdatedAt = time.Now()
	res, err := tx.ExecContext(ctx, query,
		product.Name, nullString(product.Description), product.OrganizationID,
		product.Price, product.QuantityInStock, product.UpdatedAt, product.ID,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.ErrProductNameConflict
		}
		logger.Error("UpdateProduct: exec failed", err)
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrProductNotFound
	}

	// Tags and specs replace wholesale, not merge.
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = $1`, product.ID); err != nil {
		return err
	}
	if err := insertTags(ctx, tx, "product_tags", "product_id", product.ID, product.Tags); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_specs WHERE product_id = $1`, product.ID); err != nil {
		return err
	}
	if err := insertSpecs(ctx, tx, "product_specs", "product_id", product.ID, product.Specs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM discounts WHERE product_id = $1`,
		`DELETE FROM product_tags WHERE product_id = $1`,
		`DELETE FROM product_specs WHERE product_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			logger.Error("DeleteProduct: cascade delete failed", err)
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		logger.Error("DeleteProduct: exec failed", err)
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrProductNotFound
	}
	return tx.Commit()
}

// --- Discounts ---

func (r *postgresProductRepository) AddDiscount(ctx context.Context, discount *domain.Discount) error {
	query := `INSERT INTO discounts (product_id, price_modifier, discount_start, discount_end)
              VALUES ($1, $2, $3, $4) RETURNING id`
	var end sql.NullTime
	if discount.DiscountEnd != nil {
		end = sql.NullTime{Time: *discount.DiscountEnd, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query, discount.ProductID, discount.PriceModifier, discount.DiscountStart, end).
		Scan(&discount.ID)
	if err != nil {
		logger.Error("AddDiscount: insert failed", err)
		return err
	}
	return nil
}

func (r *postgresProductRepository) DeleteDiscountsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discounts WHERE discount_end IS NOT NULL AND discount_end < $1`, cutoff)
	if err != nil {
		logger.Error("DeleteDiscountsEndedBefore: exec failed", err)
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (r *postgresProductRepository) loadDiscounts(ctx context.Context, product *domain.Product) error {
	query := `SELECT id, product_id, price_modifier, discount_start, discount_end FROM discounts WHERE product_id = $1`
	rows, err := r.db.QueryContext(ctx, query, product.ID)
	if err != nil {
		logger.Error("loadDiscounts: query failed", err)
		return err
	}
	defer rows.Close()

	product.Discounts = []domain.Discount{}
	for rows.Next() {
		var d domain.Discount
		var end sql.NullTime
		if err := rows.Scan(&d.ID, &d.ProductID, &d.PriceModifier, &d.DiscountStart, &end); err != nil {
			logger.Error("loadDiscounts: scan failed", err)
			return err
		}
		if end.Valid {
			d.DiscountEnd = &end.Time
		}
		product.Discounts = append(product.Discounts, d)
	}
	return rows.Err()
}

// --- Stock ---

func (r *postgresProductRepository) GetProductForUpdate(ctx context.Context, dbops DBTX, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	p, err := scanProduct(dbops.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		logger.Error("GetProductForUpdate: query failed", err)
		return nil, err
	}
	return p, nil
}

func (r *postgresProductRepository) UpdateQuantityInStock(ctx context.Context, dbops DBTX, id int64, quantity int) error {
	query := `UPDATE products SET quantity_in_stock = $1, updated_at = NOW() WHERE id = $2`
	res, err := dbops.ExecContext(ctx, query, quantity, id)
	if err != nil {
		// The CHECK (quantity_in_stock >= 0) is a backstop; the service
		// verifies sufficiency under the row lock before writing.
		if isPgError(err, pgCheckViolation) {
			return domain.ErrInsufficientStock
		}
		logger.Error("UpdateQuantityInStock: exec failed", err)
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// --- helpers shared with the request repository ---

type execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}

func insertTags(ctx context.Context, dbops execer, table, fkColumn string, ownerID int64, tags []string) error {
	for _, tag := range tags {
		query := `INSERT INTO ` + table + ` (` + fkColumn + `, tag) VALUES ($1, $2)`
		if _, err := dbops.ExecContext(ctx, query, ownerID, tag); err != nil {
			return err
		}
	}
	return nil
}

func insertSpecs(ctx context.Context, dbops execer, table, fkColumn string, ownerID int64, specs map[string]string) error {
	for name, value := range specs {
		query := `INSERT INTO ` + table + ` (` + fkColumn + `, spec_name, spec_value) VALUES ($1, $2, $3)`
		if _, err := dbops.ExecContext(ctx, query, ownerID, name, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresProductRepository) loadAssociations(ctx context.Context, product *domain.Product, withDiscounts bool) error {
	tags, err := loadTags(ctx, r.db, "product_tags", "product_id", product.ID)
	if err != nil {
		logger.Error("loadAssociations: load tags failed", err)
		return err
	}
	product.Tags = tags

	specs, err := loadSpecs(ctx, r.db, "product_specs", "product_id", product.ID)
	if err != nil {
		logger.Error("loadAssociations: load specs failed", err)
		return err
	}
	product.Specs = specs

	if withDiscounts {
		return r.loadDiscounts(ctx, product)
	}
	return nil
}

type queryer interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

func loadTags(ctx context.Context, dbops queryer, table, fkColumn string, ownerID int64) ([]string, error) {
	query := `SELECT tag FROM ` + table + ` WHERE ` + fkColumn + ` = $1 ORDER BY tag ASC`
	rows, err := dbops.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func loadSpecs(ctx context.Context, dbops queryer, table, fkColumn string, ownerID int64) (map[string]string, error) {
	query := `SELECT spec_name, spec_value FROM ` + table + ` WHERE ` + fkColumn + ` = $1`
	rows, err := dbops.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	specs := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		specs[name] = value
	}
	return specs, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
