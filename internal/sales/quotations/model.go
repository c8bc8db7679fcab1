// Package quotations manages price quotes sent to dealers. Accepting a quote
// produces a purchase order at the quoted prices.
package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
)

// DefaultValidityDays applies when a quotation does not set its own window.
const DefaultValidityDays = 30

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusAccepted, StatusRejected, StatusExpired},
	StatusAccepted: {},
	StatusRejected: {},
	StatusExpired:  {},
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

// Quotation is a priced offer to a dealer.
type Quotation struct {
	ID              int64              `json:"id"`
	Number          string             `json:"number"`
	DealerID        int64              `json:"dealer_id"`
	Status          Status             `json:"status"`
	Items           []pricing.LineItem `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Discount        decimal.Decimal    `json:"discount"`
	Total           decimal.Decimal    `json:"total"`
	ValidityDays    int                `json:"validity_days"`
	ExpiresAt       time.Time          `json:"expires_at"`
	Notes           *string            `json:"notes,omitempty"`
	Terms           *string            `json:"terms,omitempty"`
	PurchaseOrderID *int64             `json:"purchase_order_id,omitempty"`
	CreatedBy       *int64             `json:"created_by,omitempty"`
	SentAt          *time.Time         `json:"sent_at,omitempty"`
	DecidedAt       *time.Time         `json:"decided_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// IsExpired reports whether the quotation is past its validity window at now.
func (q *Quotation) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

func (q *Quotation) recompute() error {
	totals, err := pricing.ComputeFlat(q.Items, q.Discount)
	if err != nil {
		return err
	}
	q.Items = pricing.Derive(q.Items)
	q.Subtotal = totals.Subtotal
	q.Discount = totals.Discount
	q.Total = totals.Total
	return nil
}
