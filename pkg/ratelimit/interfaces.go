// Package ratelimit implements sliding-window rate limiting for the
// pipeline API. Generation endpoints fan out to paid AI providers, so a
// single noisy client can burn real money; the HTTP middleware leans on
// this package to keep per-IP and per-editor request rates bounded.
//
// The package is transport-agnostic: storage, algorithm, and metrics are
// interfaces so the middleware layer can compose them per limiter.
package ratelimit

import (
	"context"
	"time"
)

// Clock abstracts time.Now so the sliding-window tests can step time
// deterministically instead of sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// RateLimitStore persists request timestamps per key. Keys are opaque to
// the store; the middleware uses client IPs and editor subjects. All
// methods must be safe for concurrent use.
type RateLimitStore interface {
	// AddRequest records one request for key at the given timestamp.
	AddRequest(ctx context.Context, key string, timestamp time.Time) error

	// GetRequests returns the timestamps recorded for key after cutoff.
	GetRequests(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error)

	// GetRequestCount counts the requests recorded for key after cutoff.
	// Cheaper than GetRequests when only the count matters.
	GetRequestCount(ctx context.Context, key string, cutoff time.Time) (int, error)

	// Cleanup drops timestamps older than cutoff across all keys. The
	// background cleanup goroutine calls this on its interval.
	Cleanup(ctx context.Context, cutoff time.Time) error

	// KeyCount reports how many keys currently hold state, which the
	// degradation monitor compares against the configured capacity.
	KeyCount(ctx context.Context) (int, error)

	// MemoryUsage estimates the bytes held by the store.
	MemoryUsage(ctx context.Context) (int64, error)
}

// AtomicRateLimitStore is implemented by stores whose check-and-record is
// a single critical section. Without it, two requests racing on the same
// key can both pass a check that either alone would fail.
type AtomicRateLimitStore interface {
	RateLimitStore

	// CheckAndAddRequest checks key against limit and records the request
	// when it fits, all under one lock. It returns whether the request was
	// admitted and the in-window count after the call.
	CheckAndAddRequest(
		ctx context.Context,
		key string,
		timestamp time.Time,
		cutoff time.Time,
		limit int,
	) (allowed bool, count int, err error)
}

// RateLimitAlgorithm decides whether one more request fits under the
// limit. The sliding-window implementation is the only one shipped; the
// interface exists so tests can substitute fixed verdicts.
type RateLimitAlgorithm interface {
	// IsAllowed checks key against limit over window using the state in
	// store, and returns the verdict with its retry metadata.
	IsAllowed(ctx context.Context, key string, store RateLimitStore, limit int, window time.Duration) (*RateLimitDecision, error)

	// GetWindowDuration returns the window the algorithm evaluates,
	// used to compute reset times for response headers.
	GetWindowDuration() time.Duration
}

// TrafficMetrics receives per-request limiter events.
type TrafficMetrics interface {
	// RecordRequest counts a rate limit check for limiterType ("ip" or
	// "user") against endpoint.
	RecordRequest(limiterType, endpoint string)

	// RecordDenied counts a rejected request.
	RecordDenied(limiterType, endpoint string)

	// RecordAllowed counts an admitted request.
	RecordAllowed(limiterType, endpoint string)

	// RecordCheckDuration observes how long one limit check took.
	RecordCheckDuration(limiterType string, duration time.Duration)
}

// StateMetrics receives limiter health gauges.
type StateMetrics interface {
	// SetActiveKeys gauges the number of keys holding limiter state.
	SetActiveKeys(limiterType string, count int)

	// RecordCircuitState gauges the limiter's circuit breaker state
	// ("closed", "open", "half-open").
	RecordCircuitState(limiterType, state string)

	// RecordDegradationLevel gauges the limiter's degradation level
	// (0 normal, 1 relaxed, 2 minimal, 3 disabled).
	RecordDegradationLevel(limiterType string, level int)

	// RecordEviction counts keys evicted when the store hits capacity.
	RecordEviction(limiterType string, count int)
}

// RateLimitMetrics is the full sink a limiter reports to. The Prometheus
// implementation is used in production; tests use NoOpMetrics.
type RateLimitMetrics interface {
	TrafficMetrics
	StateMetrics
}
