package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState is the circuit breaker's position.
type CircuitState int

const (
	// StateClosed is normal operation: limit checks run and failures are
	// counted.
	StateClosed CircuitState = iota

	// StateOpen means the limiter itself is failing. The breaker fails
	// OPEN for availability: requests pass unchecked rather than being
	// rejected because the limiter is broken.
	StateOpen

	// StateHalfOpen probes recovery: the next check runs for real and
	// its outcome decides between closing and reopening.
	StateHalfOpen
)

// String names the state for logs and metrics labels.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a limiter circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit. Zero selects the default of 10.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a
	// half-open probe. Zero selects the default of 30 seconds.
	RecoveryTimeout time.Duration

	// Clock overrides the time source in tests.
	Clock Clock

	// Metrics receives state-change gauges. Nil selects NoOpMetrics.
	Metrics RateLimitMetrics

	// LimiterType labels the protected limiter, "ip" or "user".
	LimiterType string
}

// CircuitBreaker guards a rate limiter against its own failures. Rate
// limiting is a protection layer, not the service itself: when limit
// checks start erroring, the breaker opens and lets traffic through
// unchecked instead of turning a limiter bug into an outage. The trade-off
// is deliberate and logged loudly while the circuit is open.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu                  sync.RWMutex
	state               CircuitState
	consecutiveFailures int
	lastFailureTime     time.Time
	lastStateChange     time.Time
}

// NewCircuitBreaker creates a breaker in the closed state, filling in
// defaults for unset config fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 10
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}

	cb := &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: config.Clock.Now(),
	}
	config.Metrics.RecordCircuitState(config.LimiterType, cb.state.String())
	return cb
}

// Execute runs operation under breaker control. Closed runs it and counts
// the outcome; open skips it entirely (fail-open) and returns nil;
// half-open runs it as the recovery probe.
func (cb *CircuitBreaker) Execute(operation func() error) error {
	cb.maybeProbe()

	cb.mu.RLock()
	state := cb.state
	cb.mu.RUnlock()

	switch state {
	case StateOpen:
		return nil
	case StateHalfOpen:
		return cb.probe(operation)
	default:
		return cb.run(operation)
	}
}

// run executes operation in the closed state.
func (cb *CircuitBreaker) run(operation func() error) error {
	if err := operation(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// probe executes operation in the half-open state; success closes the
// circuit, failure reopens it.
func (cb *CircuitBreaker) probe(operation func() error) error {
	err := operation()

	cb.mu.Lock()
	oldState := cb.state
	now := cb.config.Clock.Now()
	if err != nil {
		cb.state = StateOpen
		cb.consecutiveFailures++
		cb.lastFailureTime = now
	} else {
		cb.state = StateClosed
		cb.consecutiveFailures = 0
	}
	newState := cb.state
	failures := cb.consecutiveFailures
	cb.lastStateChange = now
	cb.mu.Unlock()

	cb.config.Metrics.RecordCircuitState(cb.config.LimiterType, newState.String())
	cb.logTransition(oldState, newState, failures)
	return err
}

// Allow always returns true: whatever the state, requests pass. In the
// open state they pass because of the fail-open policy.
func (cb *CircuitBreaker) Allow() bool {
	cb.maybeProbe()

	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return true
}

// RecordSuccess clears the consecutive-failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
}

// RecordFailure counts one failure and opens the circuit at the
// threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	oldState := cb.state
	cb.consecutiveFailures++
	cb.lastFailureTime = cb.config.Clock.Now()

	opened := cb.consecutiveFailures >= cb.config.FailureThreshold && cb.state == StateClosed
	if opened {
		cb.state = StateOpen
		cb.lastStateChange = cb.config.Clock.Now()
	}
	failures := cb.consecutiveFailures
	cb.mu.Unlock()

	if opened {
		cb.config.Metrics.RecordCircuitState(cb.config.LimiterType, StateOpen.String())
		cb.logTransition(oldState, StateOpen, failures)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// IsOpen reports whether the circuit is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// IsClosed reports whether the circuit is closed.
func (cb *CircuitBreaker) IsClosed() bool {
	return cb.State() == StateClosed
}

// IsHalfOpen reports whether the circuit is half-open.
func (cb *CircuitBreaker) IsHalfOpen() bool {
	return cb.State() == StateHalfOpen
}

// Reset forces the breaker back to closed, for tests and manual
// intervention.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.state = StateClosed
	cb.consecutiveFailures = 0
	cb.lastFailureTime = time.Time{}
	cb.lastStateChange = cb.config.Clock.Now()
	cb.mu.Unlock()

	cb.config.Metrics.RecordCircuitState(cb.config.LimiterType, StateClosed.String())
}

// maybeProbe moves an open circuit to half-open once the recovery timeout
// has elapsed.
func (cb *CircuitBreaker) maybeProbe() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return
	}

	now := cb.config.Clock.Now()
	if now.Sub(cb.lastStateChange) >= cb.config.RecoveryTimeout {
		cb.state = StateHalfOpen
		cb.lastStateChange = now
		cb.config.Metrics.RecordCircuitState(cb.config.LimiterType, StateHalfOpen.String())
	}
}

func (cb *CircuitBreaker) logTransition(from, to CircuitState, failures int) {
	slog.Warn("circuit breaker state changed",
		slog.String("limiter_type", cb.config.LimiterType),
		slog.String("previous_state", from.String()),
		slog.String("new_state", to.String()),
		slog.Int("consecutive_failures", failures),
		slog.Duration("recovery_timeout", cb.config.RecoveryTimeout),
	)
}

// CircuitBreakerStats is a snapshot of the breaker for the health
// endpoint and the degradation monitor.
type CircuitBreakerStats struct {
	State               CircuitState
	ConsecutiveFailures int
	LastFailureTime     time.Time
	LastStateChange     time.Time
	TimeSinceLastChange time.Duration
}

// Stats returns the current snapshot.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	now := cb.config.Clock.Now()
	return CircuitBreakerStats{
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
		LastFailureTime:     cb.lastFailureTime,
		LastStateChange:     cb.lastStateChange,
		TimeSinceLastChange: now.Sub(cb.lastStateChange),
	}
}
