package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit module.
type Metrics struct {
	// Ingested events by outcome ("stored", "rejected") and payload kind
	EventsIngested *prometheus.CounterVec

	// Store append failures by backend-reported error code
	AppendFailures *prometheus.CounterVec

	// Read query latency by query ("all", "by_actor")
	QueryLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all audit module metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audittrail_events_ingested_total",
			Help: "Total inbound audit events by outcome and payload kind",
		}, []string{"outcome", "payload_kind"}),

		AppendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audittrail_store_append_failures_total",
			Help: "Total failed store appends by error code",
		}, []string{"code"}),

		QueryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audittrail_query_duration_seconds",
			Help:    "Duration of read queries against the audit store",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"query"}),
	}
}

// IncIngested records one ingested event. Nil-safe so tests can skip wiring.
func (m *Metrics) IncIngested(outcome, payloadKind string) {
	if m != nil {
		m.EventsIngested.WithLabelValues(outcome, payloadKind).Inc()
	}
}

// IncAppendFailure records a failed append.
func (m *Metrics) IncAppendFailure(code string) {
	if m != nil {
		m.AppendFailures.WithLabelValues(code).Inc()
	}
}

// ObserveQueryLatency records the duration of a read query.
func (m *Metrics) ObserveQueryLatency(query string, d time.Duration) {
	if m != nil {
		m.QueryLatency.WithLabelValues(query).Observe(d.Seconds())
	}
}
