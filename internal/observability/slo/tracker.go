package slo

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// maxWindowSamples caps the latency sample buffer per publish interval.
// Beyond the cap new samples are dropped; the error counters keep exact
// counts regardless.
const maxWindowSamples = 100_000

// Tracker accumulates per-request observations and periodically folds
// them into the SLO gauges. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	total     uint64
	errors    uint64
	latencies []float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// DefaultTracker is the tracker the HTTP metrics middleware feeds.
var DefaultTracker = NewTracker()

// Observe records one completed request. Only 5xx responses count
// against availability; client errors are the caller's problem.
func (t *Tracker) Observe(statusCode int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if statusCode >= http.StatusInternalServerError {
		t.errors++
	}
	if len(t.latencies) < maxWindowSamples {
		t.latencies = append(t.latencies, duration.Seconds())
	}
}

// Publish folds the current window into the SLO gauges and starts a new
// window. With no traffic in the window the gauges keep their previous
// values rather than reporting a vacuous 100% availability.
func (t *Tracker) Publish() {
	t.mu.Lock()
	total, errors, latencies := t.total, t.errors, t.latencies
	t.total, t.errors, t.latencies = 0, 0, nil
	t.mu.Unlock()

	if total == 0 {
		return
	}

	UpdateAvailability(float64(total-errors) / float64(total))
	UpdateErrorRate(float64(errors) / float64(total))

	sort.Float64s(latencies)
	UpdateLatencyP95(quantile(latencies, 0.95))
	UpdateLatencyP99(quantile(latencies, 0.99))
}

// Run publishes on the given interval until ctx is cancelled, flushing
// one last window on the way out.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Publish()
			return
		case <-ticker.C:
			t.Publish()
		}
	}
}

// Observe records one request on the default tracker.
func Observe(statusCode int, duration time.Duration) {
	DefaultTracker.Observe(statusCode, duration)
}

// quantile returns the nearest-rank quantile of sorted samples.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
