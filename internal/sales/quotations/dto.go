package quotations

import "github.com/shopspring/decimal"

// ItemRequest quotes a catalog product. UnitPrice overrides the catalog
// price when set.
type ItemRequest struct {
	SKU       string           `json:"sku" validate:"required,max=64"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type CreateRequest struct {
	DealerID     int64           `json:"dealer_id" validate:"required,gt=0"`
	Items        []ItemRequest   `json:"items" validate:"required,min=1,dive"`
	Discount     decimal.Decimal `json:"discount"`
	ValidityDays int             `json:"validity_days" validate:"omitempty,gt=0,lte=365"`
	Notes        *string         `json:"notes" validate:"omitempty,max=1000"`
	Terms        *string         `json:"terms" validate:"omitempty,max=2000"`
	Send         bool            `json:"send"`
}

type AcceptRequest struct {
	DealerReference *string `json:"dealer_reference" validate:"omitempty,max=100"`
	ShippingAddress *string `json:"shipping_address" validate:"omitempty,max=500"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

type ListFilter struct {
	DealerID      *int64
	Status        *Status
	ExcludeDrafts bool
	Page          int
	PerPage       int
}
