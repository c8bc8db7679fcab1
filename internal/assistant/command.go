// Package assistant turns chat requests into explicit commands and runs them
// through the same cart and checkout entry points as every other client.
package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// CommandType names the operations the assistant may request.
type CommandType string

const (
	CommandAddToCart  CommandType = "add_to_cart"
	CommandPlaceOrder CommandType = "place_order"
)

// IsValid reports whether t is a known command type.
func (t CommandType) IsValid() bool {
	return t == CommandAddToCart || t == CommandPlaceOrder
}

// Command is a structured request produced by a chat client or translator.
type Command struct {
	Type           CommandType     `json:"type" validate:"required"`
	DealerID       int64           `json:"dealer_id" validate:"required,gt=0"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

// AddToCartPayload is the payload of an add_to_cart command.
type AddToCartPayload struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderPayload is the payload of a place_order command.
type PlaceOrderPayload struct {
	DealerReference *string `json:"dealer_reference,omitempty" validate:"omitempty,max=64"`
	ShippingAddress *string `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Result reports what a command did.
type Result struct {
	CommandID     string                `json:"command_id"`
	Type          CommandType           `json:"type"`
	Cart          *cart.Cart            `json:"cart,omitempty"`
	PurchaseOrder *orders.PurchaseOrder `json:"purchase_order,omitempty"`
}

func decodePayload(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", shared.ErrValidation, err)
	}
	return nil
}
