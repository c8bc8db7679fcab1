package products

import "github.com/shopspring/decimal"

// CreateRequest registers a new product.
type CreateRequest struct {
	SKU   string          `json:"sku" validate:"required,max=64"`
	Name  string          `json:"name" validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
}

// UpdatePriceRequest changes the current catalog price.
type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}
