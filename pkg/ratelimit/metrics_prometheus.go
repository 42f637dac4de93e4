package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is the production RateLimitMetrics implementation.
// It keeps its collectors on a private registry so limiter metrics can be
// exposed and tested in isolation from the process-wide registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// requestsTotal: labels limiter_type ("ip"/"user"), status
	// ("allowed"/"denied"), path.
	requestsTotal *prometheus.CounterVec

	// checkDuration: labels limiter_type. Buckets start at 0.5ms; a
	// healthy check finishes well under 5ms and anything past 100ms is
	// circuit-breaker territory.
	checkDuration *prometheus.HistogramVec

	// activeKeys gauges the keys holding limiter state per limiter_type.
	activeKeys *prometheus.GaugeVec

	// circuitState gauges the breaker state per limiter_type:
	// 0 closed, 1 open, 2 half-open.
	circuitState *prometheus.GaugeVec

	// degradationLevel gauges the limiter degradation per limiter_type:
	// 0 normal, 1 relaxed, 2 minimal, 3 disabled.
	degradationLevel *prometheus.GaugeVec

	// evictionsTotal counts LRU evictions per limiter_type.
	evictionsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics builds the collectors on a fresh registry. Expose
// them with promhttp.HandlerFor(m.Registry(), ...).
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_requests_total",
				Help: "Total rate limit requests by limiter type, status, and path",
			},
			[]string{"limiter_type", "status", "path"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_rate_limit_check_duration_seconds",
				Help:    "Duration of rate limit check operations",
				Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"limiter_type"},
		),
		activeKeys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_rate_limit_active_keys",
				Help: "Current number of active keys by limiter type",
			},
			[]string{"limiter_type"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_rate_limit_circuit_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"limiter_type"},
		),
		degradationLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_rate_limit_degradation_level",
				Help: "Current degradation level (0=normal, 1=relaxed, 2=minimal, 3=disabled)",
			},
			[]string{"limiter_type"},
		),
		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_evictions_total",
				Help: "Total LRU evictions by limiter type",
			},
			[]string{"limiter_type"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.checkDuration,
		m.activeKeys,
		m.circuitState,
		m.degradationLevel,
		m.evictionsTotal,
	)
	return m
}

// Registry returns the private registry holding the limiter collectors.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest counts an admitted request.
func (m *PrometheusMetrics) RecordRequest(limiterType, endpoint string) {
	m.requestsTotal.WithLabelValues(limiterType, "allowed", endpoint).Inc()
}

// RecordDenied counts a rejected request.
func (m *PrometheusMetrics) RecordDenied(limiterType, endpoint string) {
	m.requestsTotal.WithLabelValues(limiterType, "denied", endpoint).Inc()
}

// RecordAllowed is RecordRequest under the interface's explicit name.
func (m *PrometheusMetrics) RecordAllowed(limiterType, endpoint string) {
	m.RecordRequest(limiterType, endpoint)
}

// RecordCheckDuration observes one limit check's duration.
func (m *PrometheusMetrics) RecordCheckDuration(limiterType string, duration time.Duration) {
	m.checkDuration.WithLabelValues(limiterType).Observe(duration.Seconds())
}

// SetActiveKeys gauges the keys holding limiter state; alert when this
// approaches the configured capacity.
func (m *PrometheusMetrics) SetActiveKeys(limiterType string, count int) {
	m.activeKeys.WithLabelValues(limiterType).Set(float64(count))
}

// RecordCircuitState maps the breaker state name onto the numeric gauge.
// Unknown names gauge as closed.
func (m *PrometheusMetrics) RecordCircuitState(limiterType, state string) {
	var value float64
	switch state {
	case "open":
		value = 1
	case "half-open":
		value = 2
	}
	m.circuitState.WithLabelValues(limiterType).Set(value)
}

// RecordDegradationLevel gauges the limiter degradation level.
func (m *PrometheusMetrics) RecordDegradationLevel(limiterType string, level int) {
	m.degradationLevel.WithLabelValues(limiterType).Set(float64(level))
}

// RecordEviction counts keys evicted at capacity. A sustained eviction
// rate usually means many unique client IPs; raise MaxKeys before
// assuming an attack.
func (m *PrometheusMetrics) RecordEviction(limiterType string, count int) {
	m.evictionsTotal.WithLabelValues(limiterType).Add(float64(count))
}
