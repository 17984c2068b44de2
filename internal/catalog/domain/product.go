package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	OrganizationID  int64             `json:"organization_id"`
	Price           decimal.Decimal   `json:"price"`
	QuantityInStock int               `json:"quantity_in_stock"`
	Tags            []string          `json:"tags"`
	Specs           map[string]string `json:"specs"`
	Discounts       []Discount        `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type Discount struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	DiscountStart time.Time       `json:"discount_start"`
	DiscountEnd   *time.Time      `json:"discount_end,omitempty"`
}

// ActiveAt reports whether the discount window contains the instant t:
// the window is [DiscountStart, DiscountEnd), open-ended when DiscountEnd is nil.
func (d Discount) ActiveAt(t time.Time) bool {
	if d.DiscountStart.After(t) {
		return false
	}
	return d.DiscountEnd == nil || d.DiscountEnd.After(t)
}

// ProductView is what read operations hand to callers: the product fields plus
// the effective price modifier. Mutation paths leave PriceModifier nil and
// callers that need pricing re-fetch through the read path.
type ProductView struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	OrganizationID  int64             `json:"organization_id"`
	Price           decimal.Decimal   `json:"price"`
	QuantityInStock int               `json:"quantity_in_stock"`
	Tags            []string          `json:"tags"`
	Specs           map[string]string `json:"specs"`
	PriceModifier   *decimal.Decimal  `json:"price_modifier,omitempty"`
}

// ProductCreateRequest is the payload for submitting a creation request and
// for editing an existing product. Tags and specs replace wholesale on edit.
type ProductCreateRequest struct {
	Name            string            `json:"name" binding:"required"`
	Description     string            `json:"description"`
	OrganizationID  int64             `json:"organization_id" binding:"required"`
	Price           decimal.Decimal   `json:"price"`
	QuantityInStock int               `json:"quantity_in_stock" binding:"min=0"`
	Tags            []string          `json:"tags"`
	Specs           map[string]string `json:"specs"`
}

type DiscountCreateRequest struct {
	PriceModifier decimal.Decimal `json:"price_modifier"`
	DiscountStart time.Time       `json:"discount_start" binding:"required"`
	DiscountEnd   *time.Time      `json:"discount_end"`
}

type StockOperationRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func NewProductView(p *Product) *ProductView {
	return &ProductView{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		OrganizationID:  p.OrganizationID,
		Price:           p.Price,
		QuantityInStock: p.QuantityInStock,
		Tags:            p.Tags,
		Specs:           p.Specs,
	}
}

func NewProductViewWithModifier(p *Product, modifier decimal.Decimal) *ProductView {
	view := NewProductView(p)
	view.PriceModifier = &modifier
	return view
}
