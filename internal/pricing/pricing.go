// Package pricing computes document totals from line items. It performs no I/O
// and every function is deterministic for the same inputs.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// MoneyScale is the number of decimal places kept on monetary aggregates.
const MoneyScale = 2

// Tier is a dealer loyalty tier.
type Tier string

const (
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

var rebateRates = map[Tier]decimal.Decimal{
	TierSilver:   decimal.Zero,
	TierGold:     decimal.RequireFromString("0.05"),
	TierPlatinum: decimal.RequireFromString("0.08"),
}

// IsValid checks if tier is one of the known tiers.
func (t Tier) IsValid() bool {
	_, ok := rebateRates[t]
	return ok
}

// RebateRate returns the fraction of the subtotal given back to the dealer.
func (t Tier) RebateRate() decimal.Decimal {
	return rebateRates[t]
}

// LineItem is the priced row shared by carts, quotations, orders and invoices.
type LineItem struct {
	ProductRef int64           `json:"product_ref"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// NewLineItem builds a validated line with its total derived.
func NewLineItem(productRef int64, sku, name string, quantity int, unitPrice decimal.Decimal) (LineItem, error) {
	item := LineItem{
		ProductRef: productRef,
		SKU:        sku,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
	}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item.Derive(), nil
}

// Validate enforces positive quantity and a non-negative price in cents.
func (l LineItem) Validate() error {
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: quantity for %q must be positive, got %d", shared.ErrValidation, l.SKU, l.Quantity)
	}
	if l.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price for %q must not be negative", shared.ErrValidation, l.SKU)
	}
	if !l.UnitPrice.Equal(Round(l.UnitPrice)) {
		return fmt.Errorf("%w: unit price for %q has more than %d decimal places", shared.ErrValidation, l.SKU, MoneyScale)
	}
	return nil
}

// Derive returns a copy with LineTotal recomputed from its inputs.
func (l LineItem) Derive() LineItem {
	l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return l
}

// Derive recomputes every line total, returning a fresh slice.
func Derive(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item.Derive()
	}
	return out
}

// Totals is the monetary summary of a set of line items.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal sums unitPrice*quantity over items after validating each line.
func Subtotal(items []LineItem) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(item.Derive().LineTotal)
	}
	return sum, nil
}

// Compute applies the tier rebate. The discount is rounded half-up to two
// places once, on the aggregate.
func Compute(items []LineItem, tier Tier) (Totals, error) {
	if !tier.IsValid() {
		return Totals{}, fmt.Errorf("%w: unknown tier %q", shared.ErrValidation, tier)
	}
	subtotal, err := Subtotal(items)
	if err != nil {
		return Totals{}, err
	}
	discount := Round(subtotal.Mul(tier.RebateRate()))
	return Totals{Subtotal: subtotal, Discount: discount, Total: subtotal.Sub(discount)}, nil
}

// ComputeFlat applies an absolute discount, as set by an admin on a quotation.
func ComputeFlat(items []LineItem, discount decimal.Decimal) (Totals, error) {
	subtotal, err := Subtotal(items)
	if err != nil {
		return Totals{}, err
	}
	discount = Round(discount)
	if discount.IsNegative() {
		return Totals{}, fmt.Errorf("%w: discount must not be negative", shared.ErrValidation)
	}
	if discount.GreaterThan(subtotal) {
		return Totals{}, fmt.Errorf("%w: discount %s exceeds subtotal %s", shared.ErrValidation, discount.StringFixed(MoneyScale), subtotal.StringFixed(MoneyScale))
	}
	return Totals{Subtotal: subtotal, Discount: discount, Total: subtotal.Sub(discount)}, nil
}

// Tax returns round(base*rate, 2). Rates are fractions, 0.11 meaning 11%.
func Tax(base, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%w: tax rate must be between 0 and 1", shared.ErrValidation)
	}
	return Round(base.Mul(rate)), nil
}

// Round rounds half away from zero to MoneyScale places, which is half-up for
// the non-negative amounts handled here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
