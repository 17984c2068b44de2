package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreationRequest is a pending proposal to create a Product. It only exists
// while pending: approval converts it into a Product and removes it, rejection
// removes it. There is no update-in-place; callers resubmit instead.
type CreationRequest struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	OrganizationID  int64             `json:"organization_id"`
	Price           decimal.Decimal   `json:"price"`
	QuantityInStock int               `json:"quantity_in_stock"`
	Tags            []string          `json:"tags"`
	Specs           map[string]string `json:"specs"`
	CreatedAt       time.Time         `json:"created_at"`
}

type RequestView struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	OrganizationID  int64             `json:"organization_id"`
	Price           decimal.Decimal   `json:"price"`
	QuantityInStock int               `json:"quantity_in_stock"`
	Tags            []string          `json:"tags"`
	Specs           map[string]string `json:"specs"`
}

func NewRequestView(r *CreationRequest) *RequestView {
	return &RequestView{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		OrganizationID:  r.OrganizationID,
		Price:           r.Price,
		QuantityInStock: r.QuantityInStock,
		Tags:            r.Tags,
		Specs:           r.Specs,
	}
}

// ToProduct copies the request fields into a new Product with an empty
// discount set. The product id is assigned by the store on insert.
func (r *CreationRequest) ToProduct() *Product {
	return &Product{
		Name:            r.Name,
		Description:     r.Description,
		OrganizationID:  r.OrganizationID,
		Price:           r.Price,
		QuantityInStock: r.QuantityInStock,
		Tags:            r.Tags,
		Specs:           r.Specs,
	}
}
