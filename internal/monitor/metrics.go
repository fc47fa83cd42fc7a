// Package monitor is the gateway's `[DOMAIN]` observability surface:
// Prometheus counters/histograms exposed at /internal/metrics, and a
// best-effort WebSocket broadcast of RequestLog records to any attached
// operator UI. Neither component stores anything — metrics are
// in-process counters, and the broadcast has no replay buffer — storage
// of request history stays external per internal/logging's own doc
// comment. Grounded on kadirpekel-hector's pkg/observability/metrics.go
// (namespace/subsystem CounterVec/HistogramVec shape, promhttp.HandlerFor
// exposure), narrowed to this gateway's own metric set.
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the gateway reports.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	rotations      *prometheus.CounterVec
	poolHealthy    prometheus.Gauge
	poolTotal      prometheus.Gauge
}

// New builds a Metrics instance and registers every collector against a
// fresh registry (never the global default, so repeated construction in
// tests never panics on a duplicate registration).
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llm_gw",
		Subsystem: "requests",
		Name:      "total",
		Help:      "Total completed requests by protocol and status",
	}, []string{"protocol", "status"})

	m.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "llm_gw",
		Subsystem: "requests",
		Name:      "duration_seconds",
		Help:      "Request latency by protocol",
		Buckets:   prometheus.DefBuckets,
	}, []string{"protocol"})

	m.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llm_gw",
		Subsystem: "retry",
		Name:      "attempts_total",
		Help:      "Retry attempts by protocol and upstream status",
	}, []string{"protocol", "status"})

	m.rotations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llm_gw",
		Subsystem: "pool",
		Name:      "rotations_total",
		Help:      "Account rotations by reason",
	}, []string{"reason"})

	m.poolHealthy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "llm_gw",
		Subsystem: "pool",
		Name:      "healthy_accounts",
		Help:      "Accounts currently eligible for Pick",
	})

	m.poolTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "llm_gw",
		Subsystem: "pool",
		Name:      "accounts_total",
		Help:      "Total configured accounts",
	})

	m.registry.MustRegister(m.requests, m.requestLatency, m.retries, m.rotations, m.poolHealthy, m.poolTotal)
	return m
}

// ObserveRequest records one completed request's outcome and latency.
func (m *Metrics) ObserveRequest(protocol, status string, d time.Duration) {
	m.requests.WithLabelValues(protocol, status).Inc()
	m.requestLatency.WithLabelValues(protocol).Observe(d.Seconds())
}

// ObserveRetry records one retry-table consult that chose to retry.
func (m *Metrics) ObserveRetry(protocol, status string) {
	m.retries.WithLabelValues(protocol, status).Inc()
}

// ObserveRotation records one account rotation and why it happened.
func (m *Metrics) ObserveRotation(reason string) {
	m.rotations.WithLabelValues(reason).Inc()
}

// SetPoolSize updates the healthy/total account gauges.
func (m *Metrics) SetPoolSize(healthy, total int) {
	m.poolHealthy.Set(float64(healthy))
	m.poolTotal.Set(float64(total))
}

// Handler serves the Prometheus exposition format for GET /internal/metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
