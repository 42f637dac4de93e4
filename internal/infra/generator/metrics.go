package generator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GenerationMetricsRecorder defines the interface for recording generation
// metrics. This interface abstracts the metrics recording implementation,
// enabling:
//   - Mocking in unit tests (inject mock recorder instead of Prometheus)
//   - Swapping metrics systems (DataDog, New Relic, OpenTelemetry, etc.)
//   - Reusability across providers (Claude, OpenAI, future additions)
//
// All methods take the pipeline task name ("ideas", "select", "outline",
// "article") and provider name as label values.
type GenerationMetricsRecorder interface {
	// RecordLength records the length of generated text in characters.
	RecordLength(task, provider string, length int)

	// RecordDuration records the time taken by one generation API call.
	RecordDuration(task, provider string, duration time.Duration)

	// RecordTokens adds the tokens consumed by one call, as reported by
	// the provider.
	RecordTokens(task, provider string, tokens int)

	// RecordFailure increments the failure counter for a task.
	RecordFailure(task, provider string)
}

// PrometheusGenerationMetrics implements GenerationMetricsRecorder using
// Prometheus metrics. This is the production implementation.
type PrometheusGenerationMetrics struct {
	lengthHistogram   *prometheus.HistogramVec
	durationHistogram *prometheus.HistogramVec
	tokenCounter      *prometheus.CounterVec
	failureCounter    *prometheus.CounterVec
}

var (
	prometheusMetricsInstance *PrometheusGenerationMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateHistogramVec gets an existing histogram vec or creates a new
// one if it doesn't exist
func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		// If it's not an AlreadyRegisteredError, use promauto which handles this gracefully
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

// getOrCreateCounterVec gets an existing counter vec or creates a new one
// if it doesn't exist
func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// NewPrometheusGenerationMetrics creates a new Prometheus-based metrics
// recorder. It initializes and registers all required Prometheus metrics.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusGenerationMetrics() *PrometheusGenerationMetrics {
	prometheusMetricsOnce.Do(func() {
		labels := []string{"task", "provider"}
		prometheusMetricsInstance = &PrometheusGenerationMetrics{
			lengthHistogram: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "blog_generation_output_length_characters",
				Help:    "Distribution of generated text lengths in characters (Unicode runes)",
				Buckets: []float64{100, 500, 1000, 2000, 4000, 8000, 16000},
			}, labels),
			durationHistogram: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "blog_generation_duration_seconds",
				Help:    "Time taken by one text generation API call",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, labels),
			tokenCounter: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "generation_tokens_total",
				Help: "Total tokens consumed by generation API calls, as reported by the provider",
			}, labels),
			failureCounter: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "blog_generation_failures_total",
				Help: "Total number of failed generation API calls",
			}, labels),
		}
	})
	return prometheusMetricsInstance
}

// RecordLength implements GenerationMetricsRecorder.RecordLength
func (p *PrometheusGenerationMetrics) RecordLength(task, provider string, length int) {
	p.lengthHistogram.WithLabelValues(task, provider).Observe(float64(length))
}

// RecordDuration implements GenerationMetricsRecorder.RecordDuration
func (p *PrometheusGenerationMetrics) RecordDuration(task, provider string, duration time.Duration) {
	p.durationHistogram.WithLabelValues(task, provider).Observe(duration.Seconds())
}

// RecordTokens implements GenerationMetricsRecorder.RecordTokens
func (p *PrometheusGenerationMetrics) RecordTokens(task, provider string, tokens int) {
	p.tokenCounter.WithLabelValues(task, provider).Add(float64(tokens))
}

// RecordFailure implements GenerationMetricsRecorder.RecordFailure
func (p *PrometheusGenerationMetrics) RecordFailure(task, provider string) {
	p.failureCounter.WithLabelValues(task, provider).Inc()
}
