package dealers

import (
	"time"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
)

// DefaultPaymentTermsDays is used when a dealer has no negotiated terms.
const DefaultPaymentTermsDays = 30

// Dealer is a B2B customer placing orders.
type Dealer struct {
	ID               int64        `json:"id" db:"id"`
	Code             string       `json:"code" db:"code"`
	Name             string       `json:"name" db:"name"`
	Email            *string      `json:"email,omitempty" db:"email"`
	Tier             pricing.Tier `json:"tier" db:"tier"`
	PaymentTermsDays int          `json:"payment_terms_days" db:"payment_terms_days"`
	ShippingAddress  *string      `json:"shipping_address,omitempty" db:"shipping_address"`
	IsActive         bool         `json:"is_active" db:"is_active"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// Terms returns the payment terms in days, defaulting to Net-30.
func (d Dealer) Terms() int {
	if d.PaymentTermsDays <= 0 {
		return DefaultPaymentTermsDays
	}
	return d.PaymentTermsDays
}
