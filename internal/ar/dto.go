package ar

import "github.com/shopspring/decimal"

// GenerateRequest sets the tax rate and optional payment terms. A nil rate
// falls back to the configured default.
type GenerateRequest struct {
	TaxRate          *decimal.Decimal `json:"tax_rate"`
	PaymentTermsDays *int             `json:"payment_terms_days" validate:"omitempty,gt=0,lte=365"`
}

type ListFilter struct {
	DealerID *int64
	Status   *Status
	Page     int
	PerPage  int
}
