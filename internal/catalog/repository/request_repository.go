package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

// RequestRepository owns pending product-creation requests. Requests have no
// update operation: they are created, then removed on approval or rejection.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request *domain.CreationRequest) error
	GetRequestByID(ctx context.Context, id int64) (*domain.CreationRequest, error)
	ListRequests(ctx context.Context) ([]domain.CreationRequest, error)
	// DeleteRequest takes the caller's transaction so approval can remove the
	// request and insert the product atomically.
	DeleteRequest(ctx context.Context, dbops DBTX, id int64) error
	BeginTx(ctx context.Context) (DBTX, error)
}

type postgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) RequestRepository {
	return &postgresRequestRepository{db: db}
}

const requestColumns = `id, name, description, organization_id, price, quantity_in_stock, created_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*domain.CreationRequest, error) {
	var r domain.CreationRequest
	var description sql.NullString
	err := row.Scan(&r.ID, &r.Name, &description, &r.OrganizationID, &r.Price, &r.QuantityInStock, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Description = description.String
	return &r, nil
}

func (r *postgresRequestRepository) BeginTx(ctx context.Context) (DBTX, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *postgresRequestRepository) CreateRequest(ctx context.Context, request *domain.CreationRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO product_requests (name, description, organization_id, price, quantity_in_stock, created_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	request.CreatedAt = time.Now()
	err = tx.QueryRowContext(ctx, query,
		request.Name, nullString(request.Description), request.OrganizationID,
		request.Price, request.QuantityInStock, request.CreatedAt,
	).Scan(&request.ID, &request.CreatedAt)
	if err != nil {
		logger.Error("CreateRequest: insert failed", err)
		return err
	}

	if err := insertTags(ctx, tx, "request_tags", "request_id", request.ID, request.Tags); err != nil {
		logger.Error("CreateRequest: insert tags failed", err)
		return err
	}
	if err := insertSpecs(ctx, tx, "request_specs", "request_id", request.ID, request.Specs); err != nil {
		logger.Error("CreateRequest: insert specs failed", err)
		return err
	}
	return tx.Commit()
}

func (r *postgresRequestRepository) GetRequestByID(ctx context.Context, id int64) (*domain.CreationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM product_requests WHERE id = $1`
	request, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		logger.Error("GetRequestByID: query failed", err)
		return nil, err
	}
	if err := r.loadAssociations(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (r *postgresRequestRepository) ListRequests(ctx context.Context) ([]domain.CreationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM product_requests ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("ListRequests: query failed", err)
		return nil, err
	}
	defer rows.Close()

	requests := []domain.CreationRequest{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			logger.Error("ListRequests: scan failed", err)
			return nil, err
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range requests {
		if err := r.loadAssociations(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (r *postgresRequestRepository) DeleteRequest(ctx context.Context, dbops DBTX, id int64) error {
	for _, query := range []string{
		`DELETE FROM request_tags WHERE request_id = $1`,
		`DELETE FROM request_specs WHERE request_id = $1`,
	} {
		if _, err := dbops.ExecContext(ctx, query, id); err != nil {
			logger.Error("DeleteRequest: cascade delete failed", err)
			return err
		}
	}

	res, err := dbops.ExecContext(ctx, `DELETE FROM product_requests WHERE id = $1`, id)
	if err != nil {
		logger.Error("DeleteRequest: exec failed", err)
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *postgresRequestRepository) loadAssociations(ctx context.Context, request *domain.CreationRequest) error {
	tags, err := loadTags(ctx, r.db, "request_tags", "request_id", request.ID)
	if err != nil {
		logger.Error("loadAssociations: load request tags failed", err)
		return err
	}
	request.Tags = tags

	specs, err := loadSpecs(ctx, r.db, "request_specs", "request_id", request.ID)
	if err != nil {
		logger.Error("loadAssociations: load request specs failed", err)
		return err
	}
	request.Specs = specs
	return nil
}
