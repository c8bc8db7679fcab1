package orders

// CheckoutRequest carries the optional header fields of a cart checkout.
type CheckoutRequest struct {
	DealerReference *string `json:"dealer_reference" validate:"omitempty,max=100"`
	ShippingAddress *string `json:"shipping_address" validate:"omitempty,max=500"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
	IdempotencyKey  string  `json:"-"`
}

// UpdateStatusRequest moves a purchase order along its state machine.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// ListFilter narrows purchase order listings.
type ListFilter struct {
	DealerID *int64
	Status   *Status
	Page     int
	PerPage  int
}
