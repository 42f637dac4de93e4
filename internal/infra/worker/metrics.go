package worker

import (
	"blogsmith/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics bundles the autopost worker's Prometheus series. The
// embedded ConfigMetrics covers config loads, validation errors, and
// fallbacks under the worker_config_* prefix; the fields here track the
// cron job itself.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts runs, labeled status=success|failure.
	CronJobRunsTotal *prometheus.CounterVec

	// CronJobDurationSeconds observes how long each run took.
	CronJobDurationSeconds prometheus.Histogram

	// CronJobDraftsCreatedTotal accumulates drafted posts across runs.
	CronJobDraftsCreatedTotal prometheus.Counter

	// CronJobLastSuccessTimestamp is the Unix time of the last clean run,
	// for staleness alerting.
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics builds all worker metrics on the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "worker_cron_job_duration_seconds",
			Help: "Duration of cron job execution in seconds",
			// generation calls dominate, so buckets run out to 30 minutes
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CronJobDraftsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_drafts_created_total",
			Help: "Total number of drafts created across all cron job runs",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

// MustRegister is a no-op: promauto already registered everything in
// NewWorkerMetrics. Kept so main can state registration explicitly.
func (m *WorkerMetrics) MustRegister() {
}

// RecordJobRun counts one run with status "success" or "failure".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one run's wall time in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordDraftsCreated adds this run's drafted-post count to the total.
func (m *WorkerMetrics) RecordDraftsCreated(count int64) {
	m.CronJobDraftsCreatedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last-success gauge with the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
