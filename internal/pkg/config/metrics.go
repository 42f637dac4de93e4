package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics is the shared set of Prometheus metrics every component
// exposes about its own configuration loading. Each component gets its own
// copy with metric names prefixed by the component name:
//
//	{component}_config_load_timestamp        gauge, Unix time of last load
//	{component}_config_validation_errors_total  counter, labeled by field
//	{component}_config_fallbacks_total          counter, labeled by field
//	{component}_config_fallback_active       gauge, 1 while any fallback is in effect
//
// The worker scheduler wires these into its env loader so a bad
// WORKER_CRON_SCHEDULE or similar shows up on dashboards instead of only
// in startup logs.
type ConfigMetrics struct {
	// LoadTimestamp is set to the current time on every successful load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts rejected values per config field.
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts applied fallback defaults per config field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 while the running config contains at least one
	// fallback value, 0 once every field is using its configured value.
	FallbackActive prometheus.Gauge

	componentName string
}

// componentGauge registers a gauge named {component}_{suffix}.
func componentGauge(component, suffix, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Name: fmt.Sprintf("%s_%s", component, suffix),
		Help: help,
	})
}

// componentFieldCounter registers a counter named {component}_{suffix},
// labeled by config field.
func componentFieldCounter(component, suffix, help string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Name: fmt.Sprintf("%s_%s", component, suffix),
		Help: help,
	}, []string{"field"})
}

// NewConfigMetrics registers the config metric set for the given component
// on the Prometheus default registry.
//
// Component names must be unique per process: promauto panics on a
// duplicate metric name, so calling this twice with the same name is a
// programming error.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: componentGauge(componentName, "config_load_timestamp",
			fmt.Sprintf("Unix timestamp of last %s configuration load", componentName)),

		ValidationErrorsTotal: componentFieldCounter(componentName, "config_validation_errors_total",
			fmt.Sprintf("Total number of %s configuration validation errors", componentName)),

		FallbacksTotal: componentFieldCounter(componentName, "config_fallbacks_total",
			fmt.Sprintf("Total number of %s configuration fallback operations", componentName)),

		FallbackActive: componentGauge(componentName, "config_fallback_active",
			fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName)),

		componentName: componentName,
	}
}

// RecordLoadTimestamp marks the config as (re)loaded now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a rejected value for the given field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback default applied for the given field.
// fallbackType is accepted for call-site readability but not used as a
// label; cardinality stays bounded by field names alone.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive raises or clears the fallback-active gauge. The field
// argument only documents the call site; the gauge is process-wide per
// component.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	value := 0.0
	if active {
		value = 1
	}
	m.FallbackActive.Set(value)
}
