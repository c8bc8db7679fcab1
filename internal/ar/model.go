// Package ar issues invoices for delivered purchase orders and tracks their
// settlement.
package ar

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
)

type Status string

const (
	StatusIssued  Status = "issued"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
	StatusVoid    Status = "void"
)

var transitions = map[Status][]Status{
	StatusIssued:  {StatusPaid, StatusOverdue, StatusVoid},
	StatusOverdue: {StatusPaid, StatusVoid},
	StatusPaid:    {},
	StatusVoid:    {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Invoice bills the dealer for one purchase order.
type Invoice struct {
	ID                  int64              `json:"id"`
	Number              string             `json:"number"`
	PurchaseOrderID     int64              `json:"purchase_order_id"`
	PurchaseOrderNumber string             `json:"purchase_order_number,omitempty"`
	DeliveryOrderID     *int64             `json:"delivery_order_id,omitempty"`
	DealerID            int64              `json:"dealer_id"`
	Status              Status             `json:"status"`
	Items               []pricing.LineItem `json:"items"`
	Subtotal            decimal.Decimal    `json:"subtotal"`
	Discount            decimal.Decimal    `json:"discount"`
	TaxRate             decimal.Decimal    `json:"tax_rate"`
	Tax                 decimal.Decimal    `json:"tax"`
	Total               decimal.Decimal    `json:"total"`
	PaymentTermsDays    int                `json:"payment_terms_days"`
	IssuedAt            time.Time          `json:"issued_at"`
	DueDate             time.Time          `json:"due_date"`
	PaidAt              *time.Time         `json:"paid_at,omitempty"`
	VoidedAt            *time.Time         `json:"voided_at,omitempty"`
	CreatedBy           *int64             `json:"created_by,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// recompute derives subtotal, tax and total from the items, discount and rate.
func (inv *Invoice) recompute() error {
	totals, err := pricing.ComputeFlat(inv.Items, inv.Discount)
	if err != nil {
		return err
	}
	tax, err := pricing.Tax(totals.Total, inv.TaxRate)
	if err != nil {
		return err
	}
	inv.Items = pricing.Derive(inv.Items)
	inv.Subtotal = totals.Subtotal
	inv.Discount = totals.Discount
	inv.Tax = tax
	inv.Total = totals.Total.Add(tax)
	return nil
}
