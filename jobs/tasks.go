package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskRenderDeliveryNote renders and stores a delivery note PDF.
	TaskRenderDeliveryNote = "delivery:render_note"
	// TaskGenerateInvoice invoices a delivered purchase order.
	TaskGenerateInvoice = "invoice:generate"
	// TaskExpireQuotations expires sent quotations past their validity.
	TaskExpireQuotations = "quotation:expire"
	// TaskMarkInvoicesOverdue flags issued invoices past their due date.
	TaskMarkInvoicesOverdue = "invoice:overdue"
)

// RenderDeliveryNotePayload identifies the delivery order to render.
type RenderDeliveryNotePayload struct {
	DeliveryOrderID int64 `json:"delivery_order_id"`
}

// GenerateInvoicePayload identifies the purchase order to invoice.
type GenerateInvoicePayload struct {
	PurchaseOrderID int64 `json:"purchase_order_id"`
}

// SweepPayload carries scheduling metadata for the cron sweeps.
type SweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for,omitempty"`
}

func NewRenderDeliveryNoteTask(deliveryOrderID int64) (*asynq.Task, error) {
	body, err := json.Marshal(RenderDeliveryNotePayload{DeliveryOrderID: deliveryOrderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRenderDeliveryNote, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

func NewGenerateInvoiceTask(purchaseOrderID int64) (*asynq.Task, error) {
	body, err := json.Marshal(GenerateInvoicePayload{PurchaseOrderID: purchaseOrderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateInvoice, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewSweepTask builds one of the cron sweep tasks.
func NewSweepTask(taskType string) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}
