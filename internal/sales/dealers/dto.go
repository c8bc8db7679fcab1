package dealers

import "github.com/odyssey-erp/odyssey-b2b/internal/pricing"

type CreateDealerRequest struct {
	Code             string       `json:"code" validate:"required,max=50"`
	Name             string       `json:"name" validate:"required,max=200"`
	Email            *string      `json:"email,omitempty" validate:"omitempty,email"`
	Tier             pricing.Tier `json:"tier" validate:"omitempty,oneof=silver gold platinum"`
	PaymentTermsDays int          `json:"payment_terms_days" validate:"gte=0,lte=365"`
	ShippingAddress  *string      `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
}

type UpdateTierRequest struct {
	Tier pricing.Tier `json:"tier" validate:"required,oneof=silver gold platinum"`
}
