package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notifyhub/event-fanout/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	RunsFinished    *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
	DeliveryLatency *prometheus.HistogramVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_runs_finished_total",
			Help: "Total number of finished dispatch runs by outcome.",
		}, []string{"status"}),

		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_deliveries_total",
			Help: "Total number of successful per-recipient deliveries.",
		}, []string{"method"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_delivery_seconds",
			Help:    "Latency of a single outgoing call from request to response.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		m.RunsFinished,
		m.Deliveries,
		m.DeliveryLatency,
	)

	return m
}

// ServiceHooks returns the metric callback functions expected by
// service.MetricHooks. Centralises the prometheus observation calls so the
// service package stays metrics-agnostic.
func (m *Metrics) ServiceHooks() (
	onDelivered func(domain.Method, time.Duration),
	onRunFinished func(domain.RunStatus),
) {
	onDelivered = func(method domain.Method, latency time.Duration) {
		m.Deliveries.WithLabelValues(string(method)).Inc()
		m.DeliveryLatency.WithLabelValues(string(method)).Observe(latency.Seconds())
	}
	onRunFinished = func(status domain.RunStatus) {
		m.RunsFinished.WithLabelValues(string(status)).Inc()
	}
	return
}
