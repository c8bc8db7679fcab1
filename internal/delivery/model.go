// Package delivery generates delivery orders from confirmed purchase orders
// and tracks them until the goods arrive.
package delivery

import "time"

type Status string

const (
	StatusGenerated  Status = "generated"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// DeliveryOrder is the shipping document for one purchase order.
type DeliveryOrder struct {
	ID                  int64      `json:"id"`
	Number              string     `json:"number"`
	PurchaseOrderID     int64      `json:"purchase_order_id"`
	PurchaseOrderNumber string     `json:"purchase_order_number,omitempty"`
	DealerID            int64      `json:"dealer_id"`
	Status              Status     `json:"status"`
	PDFURL              *string    `json:"pdf_url,omitempty"`
	GeneratedBy         *int64     `json:"generated_by,omitempty"`
	DispatchedAt        *time.Time `json:"dispatched_at,omitempty"`
	DeliveredAt         *time.Time `json:"delivered_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
