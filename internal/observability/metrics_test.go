package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestDocumentMetrics(t *testing.T) {
	metrics := NewMetrics()
	docs := metrics.Documents()

	docs.Created("delivery_order")
	docs.Reused("delivery_order")
	docs.Reused("delivery_order")
	docs.Transitioned("purchase_order", "confirmed")

	body := scrape(t, metrics)
	for _, want := range []string{
		`odyssey_documents_created_total{kind="delivery_order"} 1`,
		`odyssey_documents_reused_total{kind="delivery_order"} 2`,
		`odyssey_document_transitions_total{kind="purchase_order",to="confirmed"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape, got: %s", want, body)
		}
	}
}

func TestNilDocumentMetricsIsSafe(t *testing.T) {
	var docs *DocumentMetrics
	docs.Created("x")
	docs.Reused("x")
	docs.Transitioned("x", "y")
}

func TestDocumentMetricsCountersAreLabelled(t *testing.T) {
	docs := NewDocumentMetrics(prometheus.NewRegistry())

	docs.Created("invoice")
	docs.Created("invoice")
	docs.Created("quotation")
	docs.Transitioned("delivery_order", "dispatched")

	if got := counterValue(t, docs.created.WithLabelValues("invoice")); got != 2 {
		t.Fatalf("expected 2 invoices created, got %v", got)
	}
	if got := counterValue(t, docs.created.WithLabelValues("quotation")); got != 1 {
		t.Fatalf("expected 1 quotation created, got %v", got)
	}
	if got := counterValue(t, docs.transitions.WithLabelValues("delivery_order", "dispatched")); got != 1 {
		t.Fatalf("expected 1 dispatch transition, got %v", got)
	}
}
