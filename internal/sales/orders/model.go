// Package orders manages purchase orders from checkout or quotation
// acceptance through delivery.
package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// IsValid checks if status is a known purchase order status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether target is a legal next status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// deliveryMirror maps PO statuses onto the linked delivery order status.
var deliveryMirror = map[Status]string{
	StatusShipped:   "dispatched",
	StatusDelivered: "delivered",
	StatusCancelled: "cancelled",
}

// PurchaseOrder is the dealer's binding order.
type PurchaseOrder struct {
	ID              int64              `json:"id"`
	Number          string             `json:"number"`
	DealerID        int64              `json:"dealer_id"`
	QuotationID     *int64             `json:"quotation_id,omitempty"`
	Status          Status             `json:"status"`
	Items           []pricing.LineItem `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Discount        decimal.Decimal    `json:"discount"`
	Total           decimal.Decimal    `json:"total"`
	PricingTier     pricing.Tier       `json:"pricing_tier,omitempty"`
	DealerReference *string            `json:"dealer_reference,omitempty"`
	ShippingAddress *string            `json:"shipping_address,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	CreatedBy       *int64             `json:"created_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// recompute derives line totals, subtotal and total from the items and the
// stored discount.
func (po *PurchaseOrder) recompute() error {
	totals, err := pricing.ComputeFlat(po.Items, po.Discount)
	if err != nil {
		return err
	}
	po.Items = pricing.Derive(po.Items)
	po.Subtotal = totals.Subtotal
	po.Discount = totals.Discount
	po.Total = totals.Total
	return nil
}
