package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the portal.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	realtimeEvents  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_external_errors_total",
				Help: "Total errors from the backend API.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_payment_verifications_total",
				Help: "Payment verification attempts by terminal outcome.",
			},
			[]string{"outcome"},
		),
		realtimeEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_realtime_events_total",
				Help: "Realtime events relayed to browsers by event name.",
			},
			[]string{"event"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_active_sessions",
				Help: "Sessions currently resident in memory.",
			},
		),
	}
}

// RecordRequestDuration records how long an operation took.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the backend error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrVerification counts one payment verification reaching a terminal
// state ("verified" or "failed").
func (m *Metrics) IncrVerification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

// IncrRealtimeEvent counts one push event relayed to a subscriber.
func (m *Metrics) IncrRealtimeEvent(event string) {
	m.realtimeEvents.WithLabelValues(event).Inc()
}

// SessionOpened / SessionClosed track resident sessions.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

// VerificationCount reads back the counter for a given outcome. Used by
// tests and the ops snapshot endpoint.
func (m *Metrics) VerificationCount(outcome string) float64 {
	return getCounterValue(m.verifications, outcome)
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
