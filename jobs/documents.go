package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-b2b/internal/ar"
	"github.com/odyssey-erp/odyssey-b2b/internal/delivery"
	jobmetrics "github.com/odyssey-erp/odyssey-b2b/internal/jobs"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DeliveryNoteRenderer renders the delivery note of a delivery order.
type DeliveryNoteRenderer interface {
	RenderPDF(ctx context.Context, id int64) (*delivery.DeliveryOrder, error)
}

// InvoiceGenerator invoices a delivered purchase order.
type InvoiceGenerator interface {
	Generate(ctx context.Context, purchaseOrderID int64, req ar.GenerateRequest) (*ar.Invoice, error)
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// QuotationExpirer expires stale sent quotations.
type QuotationExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// DocumentJobs runs the follow-up work of the document lifecycle.
type DocumentJobs struct {
	Deliveries DeliveryNoteRenderer
	Invoices   InvoiceGenerator
	Quotations QuotationExpirer
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// Handlers lists the task handlers whose dependencies are configured.
func (j *DocumentJobs) Handlers() []TaskHandler {
	var out []TaskHandler
	if j.Deliveries != nil {
		out = append(out, TaskHandler{Type: TaskRenderDeliveryNote, Handler: j.HandleRenderDeliveryNote})
	}
	if j.Invoices != nil {
		out = append(out,
			TaskHandler{Type: TaskGenerateInvoice, Handler: j.HandleGenerateInvoice},
			TaskHandler{Type: TaskMarkInvoicesOverdue, Handler: j.HandleMarkInvoicesOverdue})
	}
	if j.Quotations != nil {
		out = append(out, TaskHandler{Type: TaskExpireQuotations, Handler: j.HandleExpireQuotations})
	}
	return out
}

// Cron schedules both sweeps on spec.
func (j *DocumentJobs) Cron(spec string) ([]CronRegistration, error) {
	var out []CronRegistration
	for _, taskType := range []string{TaskExpireQuotations, TaskMarkInvoicesOverdue} {
		task, err := NewSweepTask(taskType)
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: spec, Task: task})
	}
	return out, nil
}

func (j *DocumentJobs) HandleRenderDeliveryNote(ctx context.Context, task *asynq.Task) (err error) {
	var payload RenderDeliveryNotePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.DeliveryOrderID <= 0 {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskRenderDeliveryNote)
	defer func() { err = tracker.End(err) }()

	do, err := j.Deliveries.RenderPDF(ctx, payload.DeliveryOrderID)
	if err != nil {
		j.log(TaskRenderDeliveryNote).Error("render delivery note",
			slog.Int64("delivery_order_id", payload.DeliveryOrderID), slog.Any("error", err))
		return skipIfPermanent(err)
	}
	j.log(TaskRenderDeliveryNote).Info("delivery note rendered",
		slog.String("number", do.Number), slog.Any("pdf_url", do.PDFURL))
	return nil
}

func (j *DocumentJobs) HandleGenerateInvoice(ctx context.Context, task *asynq.Task) (err error) {
	var payload GenerateInvoicePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.PurchaseOrderID <= 0 {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskGenerateInvoice)
	defer func() { err = tracker.End(err) }()

	inv, err := j.Invoices.Generate(ctx, payload.PurchaseOrderID, ar.GenerateRequest{})
	if err != nil {
		j.log(TaskGenerateInvoice).Error("generate invoice",
			slog.Int64("purchase_order_id", payload.PurchaseOrderID), slog.Any("error", err))
		return skipIfPermanent(err)
	}
	j.log(TaskGenerateInvoice).Info("invoice ready",
		slog.String("number", inv.Number), slog.Int64("purchase_order_id", payload.PurchaseOrderID))
	return nil
}

func (j *DocumentJobs) HandleExpireQuotations(ctx context.Context, task *asynq.Task) (err error) {
	tracker := j.metrics().Track(TaskExpireQuotations)
	defer func() { err = tracker.End(err) }()

	n, err := j.Quotations.ExpireStale(ctx, j.now())
	if err != nil {
		j.log(TaskExpireQuotations).Error("expire quotations", slog.Any("error", err))
		return err
	}
	j.metrics().AddSwept(TaskExpireQuotations, n)
	j.log(TaskExpireQuotations).Info("quotations expired", slog.Int("count", n))
	return nil
}

func (j *DocumentJobs) HandleMarkInvoicesOverdue(ctx context.Context, task *asynq.Task) (err error) {
	tracker := j.metrics().Track(TaskMarkInvoicesOverdue)
	defer func() { err = tracker.End(err) }()

	n, err := j.Invoices.MarkOverdue(ctx, j.now())
	if err != nil {
		j.log(TaskMarkInvoicesOverdue).Error("mark invoices overdue", slog.Any("error", err))
		return err
	}
	j.metrics().AddSwept(TaskMarkInvoicesOverdue, n)
	j.log(TaskMarkInvoicesOverdue).Info("invoices flagged overdue", slog.Int("count", n))
	return nil
}

// skipIfPermanent stops retries for failures a retry cannot fix.
func skipIfPermanent(err error) error {
	for _, permanent := range []error{shared.ErrNotFound, shared.ErrInvalidState, shared.ErrValidation} {
		if errors.Is(err, permanent) {
			return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
		}
	}
	return err
}

func (j *DocumentJobs) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DocumentJobs) log(job string) *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *DocumentJobs) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *DocumentJobs) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
