package observability

import "github.com/prometheus/client_golang/prometheus"

// DocumentMetrics counts document creation, idempotent reuse and status
// transitions. A nil receiver is a no-op.
type DocumentMetrics struct {
	created     *prometheus.CounterVec
	reused      *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewDocumentMetrics registers the collectors on registerer.
func NewDocumentMetrics(registerer prometheus.Registerer) *DocumentMetrics {
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_documents_created_total",
		Help: "Documents created, by kind.",
	}, []string{"kind"})
	reused := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_documents_reused_total",
		Help: "Generation calls answered with an existing document, by kind.",
	}, []string{"kind"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_document_transitions_total",
		Help: "Document status transitions, by kind and target status.",
	}, []string{"kind", "to"})
	registerer.MustRegister(created, reused, transitions)
	return &DocumentMetrics{created: created, reused: reused, transitions: transitions}
}

func (m *DocumentMetrics) Created(kind string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(kind).Inc()
}

func (m *DocumentMetrics) Reused(kind string) {
	if m == nil {
		return
	}
	m.reused.WithLabelValues(kind).Inc()
}

func (m *DocumentMetrics) Transitioned(kind, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, to).Inc()
}
