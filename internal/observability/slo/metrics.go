// Package slo tracks the API server's service level objectives and
// exposes them as Prometheus gauges. The HTTP metrics middleware feeds
// every request into the package tracker; a background publisher folds
// the window into the gauges once per interval.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Targets the gauges are judged against on dashboards and in alerts.
const (
	// AvailabilitySLO is the uptime target in percent (99.9% allows about
	// 43 minutes of downtime per month).
	AvailabilitySLO = 99.9

	// LatencyP95SLO is the p95 latency target in seconds.
	LatencyP95SLO = 0.200

	// LatencyP99SLO is the p99 latency target in seconds.
	LatencyP99SLO = 0.500

	// ErrorRateSLO is the maximum acceptable 5xx ratio.
	ErrorRateSLO = 0.001
)

// sloGauge registers one SLO gauge on the default registry.
func sloGauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

var (
	// SLOAvailability is (total - 5xx) / total over the last window.
	SLOAvailability = sloGauge("slo_availability_ratio",
		"Current availability ratio (0-1), target: 0.999")

	// SLOLatencyP95 is the p95 request latency over the last window.
	SLOLatencyP95 = sloGauge("slo_latency_p95_seconds",
		"Current p95 latency in seconds, target: 0.200")

	// SLOLatencyP99 is the p99 request latency over the last window.
	SLOLatencyP99 = sloGauge("slo_latency_p99_seconds",
		"Current p99 latency in seconds, target: 0.500")

	// SLOErrorRate is 5xx / total over the last window.
	SLOErrorRate = sloGauge("slo_error_rate_ratio",
		"Current error rate ratio (0-1), target: 0.001")
)

// UpdateAvailability sets the availability gauge directly. The tracker's
// publisher is the usual caller.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 sets the p95 latency gauge directly.
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateLatencyP99 sets the p99 latency gauge directly.
func UpdateLatencyP99(seconds float64) {
	SLOLatencyP99.Set(seconds)
}

// UpdateErrorRate sets the error rate gauge directly.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}
