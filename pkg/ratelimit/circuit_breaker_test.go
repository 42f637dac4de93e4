package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

func newTestBreaker(clock Clock, threshold int, recovery time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
		Clock:            clock,
		Metrics:          NewNoOpMetrics(),
		LimiterType:      "ip",
	})
}

func tripBreaker(cb *CircuitBreaker, threshold int) {
	for i := 0; i < threshold; i++ {
		cb.RecordFailure()
	}
}

/* ───────── state names ───────── */

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(999).String())
}

/* ───────── construction ───────── */

func TestNewCircuitBreaker(t *testing.T) {
	tests := []struct {
		name          string
		config        CircuitBreakerConfig
		wantThreshold int
		wantRecovery  time.Duration
	}{
		{
			name: "fully populated config",
			config: CircuitBreakerConfig{
				FailureThreshold: 5,
				RecoveryTimeout:  10 * time.Second,
				Clock:            &SystemClock{},
				Metrics:          NewNoOpMetrics(),
				LimiterType:      "ip",
			},
			wantThreshold: 5,
			wantRecovery:  10 * time.Second,
		},
		{
			name:          "zero threshold gets default",
			config:        CircuitBreakerConfig{RecoveryTimeout: 10 * time.Second},
			wantThreshold: 10,
			wantRecovery:  10 * time.Second,
		},
		{
			name:          "zero recovery timeout gets default",
			config:        CircuitBreakerConfig{FailureThreshold: 5},
			wantThreshold: 5,
			wantRecovery:  30 * time.Second,
		},
		{
			name:          "nil clock gets system clock",
			config:        CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: 10 * time.Second},
			wantThreshold: 5,
			wantRecovery:  10 * time.Second,
		},
		{
			name:          "nil metrics gets noop sink",
			config:        CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: 10 * time.Second},
			wantThreshold: 5,
			wantRecovery:  10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.config)
			require.NotNil(t, cb)

			assert.Equal(t, tt.wantThreshold, cb.config.FailureThreshold)
			assert.Equal(t, tt.wantRecovery, cb.config.RecoveryTimeout)
			assert.Equal(t, StateClosed, cb.state)
			assert.NotNil(t, cb.config.Clock)
			assert.NotNil(t, cb.config.Metrics)
		})
	}
}

/* ───────── execute ───────── */

func TestCircuitBreaker_Execute_ClosedState(t *testing.T) {
	cb := newTestBreaker(newFakeClock(time.Now()), 3, 10*time.Second)

	t.Run("success passes through", func(t *testing.T) {
		err := cb.Execute(func() error { return nil })
		assert.NoError(t, err)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("single failure surfaces but keeps the circuit closed", func(t *testing.T) {
		err := cb.Execute(func() error { return errStoreDown })
		assert.Error(t, err)
		assert.Equal(t, StateClosed, cb.State())
	})
}

func TestCircuitBreaker_Execute_OpensAtThreshold(t *testing.T) {
	const threshold = 3
	cb := newTestBreaker(newFakeClock(time.Now()), threshold, 10*time.Second)

	for i := 0; i < threshold; i++ {
		err := cb.Execute(func() error { return errStoreDown })
		assert.Error(t, err, "failure %d should surface", i+1)
	}

	assert.True(t, cb.IsOpen())
}

func TestCircuitBreaker_Execute_OpenStateFailsOpen(t *testing.T) {
	const threshold = 3
	cb := newTestBreaker(newFakeClock(time.Now()), threshold, 10*time.Second)
	tripBreaker(cb, threshold)
	require.True(t, cb.IsOpen())

	// An open breaker skips the store and admits requests rather than
	// rejecting traffic because the limiter's own bookkeeping is broken.
	assert.NoError(t, cb.Execute(func() error { return errStoreDown }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestCircuitBreaker_Execute_RecoversThroughHalfOpen(t *testing.T) {
	const threshold = 3
	recovery := 10 * time.Second
	clock := newFakeClock(time.Now())
	cb := newTestBreaker(clock, threshold, recovery)

	tripBreaker(cb, threshold)
	require.True(t, cb.IsOpen())

	clock.Advance(recovery + 1*time.Second)

	// The first call after the timeout is the half-open probe; success
	// closes the circuit and clears the failure count.
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.True(t, cb.IsClosed())
	assert.Zero(t, cb.Stats().ConsecutiveFailures)
}

func TestCircuitBreaker_Execute_FailedProbeReopens(t *testing.T) {
	const threshold = 3
	recovery := 10 * time.Second
	clock := newFakeClock(time.Now())
	cb := newTestBreaker(clock, threshold, recovery)

	tripBreaker(cb, threshold)
	clock.Advance(recovery + 1*time.Second)

	err := cb.Execute(func() error { return errStoreDown })
	assert.Error(t, err)
	assert.True(t, cb.IsOpen(), "a failed probe must reopen the circuit")
}

/* ───────── manual recording ───────── */

func TestCircuitBreaker_RecordSuccessResetsFailures(t *testing.T) {
	cb := newTestBreaker(newFakeClock(time.Now()), 3, 10*time.Second)

	cb.RecordFailure()
	cb.RecordFailure()
	require.Equal(t, 2, cb.Stats().ConsecutiveFailures)

	cb.RecordSuccess()
	assert.Zero(t, cb.Stats().ConsecutiveFailures)
}

func TestCircuitBreaker_RecordFailureCounts(t *testing.T) {
	const threshold = 3
	cb := newTestBreaker(newFakeClock(time.Now()), threshold, 10*time.Second)

	for i := 1; i <= threshold; i++ {
		cb.RecordFailure()
		assert.Equal(t, i, cb.Stats().ConsecutiveFailures)
	}

	assert.True(t, cb.IsOpen())
}

func TestCircuitBreaker_Allow(t *testing.T) {
	clock := newFakeClock(time.Now())
	cb := newTestBreaker(clock, 3, 10*time.Second)

	assert.True(t, cb.Allow(), "closed circuit admits")

	tripBreaker(cb, 3)
	assert.True(t, cb.Allow(), "open circuit still admits (fail-open)")

	clock.Advance(11 * time.Second)
	assert.True(t, cb.Allow(), "half-open circuit admits the probe")
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(newFakeClock(time.Now()), 3, 10*time.Second)

	tripBreaker(cb, 3)
	require.True(t, cb.IsOpen())

	cb.Reset()

	assert.True(t, cb.IsClosed())
	assert.Zero(t, cb.Stats().ConsecutiveFailures)
}

/* ───────── stats ───────── */

func TestCircuitBreaker_Stats(t *testing.T) {
	clock := newFakeClock(time.Now())
	cb := newTestBreaker(clock, 3, 10*time.Second)

	stats := cb.Stats()
	assert.Equal(t, StateClosed, stats.State)
	assert.Zero(t, stats.ConsecutiveFailures)

	cb.RecordFailure()
	stats = cb.Stats()
	assert.Equal(t, 1, stats.ConsecutiveFailures)
	assert.False(t, stats.LastFailureTime.IsZero())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.Stats().State)

	clock.Advance(5 * time.Second)
	assert.GreaterOrEqual(t, cb.Stats().TimeSinceLastChange, 5*time.Second)
}

/* ───────── concurrency ───────── */

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := newTestBreaker(newFakeClock(time.Now()), 100, 10*time.Second)

	const (
		goroutines             = 10
		operationsPerGoroutine = 100
	)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				fail := j%2 != 0
				_ = cb.Execute(func() error {
					if fail {
						return errStoreDown
					}
					return nil
				})
			}
		}()
	}
	wg.Wait()

	// Invariant check after the dust settles: the circuit only opens at
	// or above the threshold.
	stats := cb.Stats()
	if stats.State == StateOpen {
		assert.GreaterOrEqual(t, stats.ConsecutiveFailures, cb.config.FailureThreshold)
	}
}

/* ───────── state predicates ───────── */

func TestCircuitBreaker_StateChecks(t *testing.T) {
	clock := newFakeClock(time.Now())
	cb := newTestBreaker(clock, 3, 10*time.Second)

	assert.True(t, cb.IsClosed())
	assert.False(t, cb.IsOpen())
	assert.False(t, cb.IsHalfOpen())

	tripBreaker(cb, 3)

	assert.False(t, cb.IsClosed())
	assert.True(t, cb.IsOpen())
	assert.False(t, cb.IsHalfOpen())

	clock.Advance(11 * time.Second)
	cb.Allow()

	assert.False(t, cb.IsClosed())
	assert.False(t, cb.IsOpen())
	assert.True(t, cb.IsHalfOpen())
}

func TestCircuitBreaker_ProbeTiming(t *testing.T) {
	clock := newFakeClock(time.Now())
	recovery := 10 * time.Second
	cb := newTestBreaker(clock, 3, recovery)

	tripBreaker(cb, 3)
	require.True(t, cb.IsOpen())

	// Before the timeout, Allow must not move to half-open.
	clock.Advance(5 * time.Second)
	cb.Allow()
	assert.True(t, cb.IsOpen())

	clock.Advance(6 * time.Second)
	cb.Allow()
	assert.True(t, cb.IsHalfOpen())
}
