// Package pricing computes the effective price modifier for a product from
// its discount set. Discounts do not stack: among the discounts active at the
// evaluation instant the deepest one (minimum modifier) wins.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
)

// EffectiveModifier returns the minimum price modifier among the discounts
// active at now, or 1 when none is active.
func EffectiveModifier(discounts []domain.Discount, now time.Time) decimal.Decimal {
	modifier := decimal.NewFromInt(1)
	found := false
	for _, d := range discounts {
		if !d.ActiveAt(now) {
			continue
		}
		if !found || d.PriceModifier.LessThan(modifier) {
			modifier = d.PriceModifier
			found = true
		}
	}
	return modifier
}
