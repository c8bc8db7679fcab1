package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/ar"
	"github.com/odyssey-erp/odyssey-b2b/internal/delivery"
	jobmetrics "github.com/odyssey-erp/odyssey-b2b/internal/jobs"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type stubRenderer struct {
	rendered []int64
	err      error
}

func (s *stubRenderer) RenderPDF(ctx context.Context, id int64) (*delivery.DeliveryOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.rendered = append(s.rendered, id)
	url := "http://files/do.pdf"
	return &delivery.DeliveryOrder{ID: id, Number: "DO-2026-0001", PDFURL: &url}, nil
}

type stubInvoices struct {
	generated []int64
	sweptAt   time.Time
	err       error
}

func (s *stubInvoices) Generate(ctx context.Context, poID int64, req ar.GenerateRequest) (*ar.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.generated = append(s.generated, poID)
	return &ar.Invoice{ID: 1, Number: "INV-2026-0001", PurchaseOrderID: poID}, nil
}

func (s *stubInvoices) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	s.sweptAt = now
	return 2, nil
}

type stubQuotations struct {
	at time.Time
}

func (s *stubQuotations) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	s.at = now
	return 3, nil
}

func newJobs() (*DocumentJobs, *stubRenderer, *stubInvoices, *stubQuotations) {
	r, i, q := &stubRenderer{}, &stubInvoices{}, &stubQuotations{}
	j := &DocumentJobs{
		Deliveries: r,
		Invoices:   i,
		Quotations: q,
		Metrics:    jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}
	return j, r, i, q
}

func TestRenderDeliveryNoteTask(t *testing.T) {
	j, r, _, _ := newJobs()
	task, err := NewRenderDeliveryNoteTask(12)
	require.NoError(t, err)

	require.NoError(t, j.HandleRenderDeliveryNote(context.Background(), task))
	assert.Equal(t, []int64{12}, r.rendered)
}

func TestGenerateInvoiceTaskSkipsPermanentFailures(t *testing.T) {
	j, _, inv, _ := newJobs()
	task, err := NewGenerateInvoiceTask(7)
	require.NoError(t, err)

	require.NoError(t, j.HandleGenerateInvoice(context.Background(), task))
	assert.Equal(t, []int64{7}, inv.generated)

	inv.err = fmt.Errorf("%w: purchase order is shipped", shared.ErrInvalidState)
	err = j.HandleGenerateInvoice(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	inv.err = errors.New("connection reset")
	err = j.HandleGenerateInvoice(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestMalformedPayloadIsNotRetried(t *testing.T) {
	j, _, _, _ := newJobs()
	task := asynq.NewTask(TaskRenderDeliveryNote, []byte("{"))
	assert.ErrorIs(t, j.HandleRenderDeliveryNote(context.Background(), task), asynq.SkipRetry)
}

func TestSweepsUseClock(t *testing.T) {
	j, _, inv, q := newJobs()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	j.WithClock(func() time.Time { return now })

	task, err := NewSweepTask(TaskExpireQuotations)
	require.NoError(t, err)
	require.NoError(t, j.HandleExpireQuotations(context.Background(), task))
	assert.Equal(t, now, q.at)

	task, err = NewSweepTask(TaskMarkInvoicesOverdue)
	require.NoError(t, err)
	require.NoError(t, j.HandleMarkInvoicesOverdue(context.Background(), task))
	assert.Equal(t, now, inv.sweptAt)
}

func TestHandlersAndCron(t *testing.T) {
	j := &DocumentJobs{Quotations: &stubQuotations{}}
	handlers := j.Handlers()
	require.Len(t, handlers, 1)
	assert.Equal(t, TaskExpireQuotations, handlers[0].Type)

	cron, err := j.Cron("@hourly")
	require.NoError(t, err)
	require.Len(t, cron, 2)
	assert.Equal(t, TaskExpireQuotations, cron[0].Task.Type())
	assert.Equal(t, TaskMarkInvoicesOverdue, cron[1].Task.Type())
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0}`, rec.Body.String())
}
