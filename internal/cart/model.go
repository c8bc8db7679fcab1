// Package cart keeps each dealer's mutable shopping cart until checkout.
package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
)

// Cart is the dealer's current selection, priced at current catalog prices.
// Unavailable lists SKUs still in the cart whose product was deactivated;
// they are not priced and block checkout until removed.
type Cart struct {
	DealerID    int64              `json:"dealer_id"`
	Items       []pricing.LineItem `json:"items"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Unavailable []string           `json:"unavailable,omitempty"`
}

// Snapshot is a frozen copy of a cart taken for checkout. Later cart
// mutations never reach an existing snapshot.
type Snapshot struct {
	DealerID int64
	Items    []pricing.LineItem
	TakenAt  time.Time
}

// IsEmpty reports whether the snapshot holds no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Quantities returns product id to quantity for the snapshot lines.
func (s Snapshot) Quantities() map[int64]int {
	out := make(map[int64]int, len(s.Items))
	for _, item := range s.Items {
		out[item.ProductRef] += item.Quantity
	}
	return out
}
