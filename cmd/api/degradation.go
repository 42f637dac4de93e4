package main

import (
	"context"
	"log/slog"
	"time"

	hhttp "blogsmith/internal/handler/http"
	"blogsmith/internal/handler/http/middleware"
	"blogsmith/pkg/ratelimit"
)

// degradationPollInterval is how often the monitor samples circuit breaker
// and store state.
const degradationPollInterval = 30 * time.Second

// memoryPressureRatio is the fraction of MaxActiveKeys beyond which a rate
// limit store counts as under memory pressure.
const memoryPressureRatio = 0.9

// limiterHealth bundles one rate limiter's health inputs with the
// degradation manager that reacts to them.
type limiterHealth struct {
	name    string
	manager *middleware.DegradationManager
	breaker *ratelimit.CircuitBreaker
	store   ratelimit.RateLimitStore
	maxKeys int
}

// degradationMonitor drives the rate limiter degradation managers from
// observed health. The rate limit circuit breaker exposes no state-change
// callbacks, so the monitor polls breaker state and store occupancy on an
// interval and reports both to each manager.
type degradationMonitor struct {
	limiters []limiterHealth
	logger   *slog.Logger
}

// Run polls until ctx is canceled.
func (m *degradationMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(degradationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample feeds the current breaker and store state into each manager. The
// managers handle cooldown and level transitions themselves.
func (m *degradationMonitor) sample(ctx context.Context) {
	for _, l := range m.limiters {
		if l.breaker.IsOpen() {
			l.manager.OnCircuitOpen()
		} else {
			l.manager.OnCircuitClose()
		}

		keyCount, err := l.store.KeyCount(ctx)
		if err != nil {
			m.logger.Warn("degradation monitor: key count unavailable",
				slog.String("limiter", l.name),
				slog.Any("error", err))
			continue
		}
		if l.maxKeys > 0 && float64(keyCount) >= float64(l.maxKeys)*memoryPressureRatio {
			l.manager.OnHighMemoryPressure()
		} else {
			l.manager.OnNormalMemoryPressure()
		}
	}
}

// degradationReporter adapts a middleware degradation manager to the health
// handler's reporting interface.
type degradationReporter struct {
	m *middleware.DegradationManager
}

func (r degradationReporter) GetLevel() hhttp.DegradationLevel {
	return r.m.GetLevel()
}
