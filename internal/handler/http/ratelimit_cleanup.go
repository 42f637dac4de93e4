package http

import (
	"context"
	"log/slog"
	"time"

	"blogsmith/internal/handler/http/middleware"
	"blogsmith/pkg/config"
	"blogsmith/pkg/ratelimit"
)

// DefaultCleanupInterval is used when RATELIMIT_CLEANUP_INTERVAL is unset.
const DefaultCleanupInterval = 5 * time.Minute

// CleanupConfig holds the settings for the background cleanup loops.
type CleanupConfig struct {
	// Interval between cleanup runs.
	Interval time.Duration

	// WindowDuration of the rate limit window. The cutoff is 2x this
	// value so concurrent requests near the boundary are never dropped.
	WindowDuration time.Duration

	// LimiterType labels log entries ("ip", "user").
	LimiterType string
}

// LoadCleanupConfigFromEnv reads RATELIMIT_CLEANUP_INTERVAL ("5m", "10m"),
// falling back to DefaultCleanupInterval on parse failure. Cleanup keeps
// running with defaults rather than aborting startup.
func LoadCleanupConfigFromEnv() CleanupConfig {
	return CleanupConfig{
		Interval: config.GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval),
	}
}

// StartRateLimitCleanupLegacy periodically drops expired timestamps from
// the legacy middleware.RateLimiter so it does not grow without bound.
// The loop exits when ctx is cancelled, which happens on server shutdown.
func StartRateLimitCleanupLegacy(
	ctx context.Context,
	limiter *middleware.RateLimiter,
	interval time.Duration,
	limiterType string,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started (legacy)",
		slog.String("limiter_type", limiterType),
		slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped (legacy)",
				slog.String("limiter_type", limiterType))
			return

		case <-ticker.C:
			limiter.CleanupExpired()
			slog.Debug("rate limit cleanup completed (legacy)",
				slog.String("limiter_type", limiterType))
		}
	}
}

// StartRateLimitCleanup periodically removes expired entries from store,
// logging key and memory deltas per run. The loop exits when ctx is
// cancelled, which happens on server shutdown.
func StartRateLimitCleanup(
	ctx context.Context,
	store *ratelimit.InMemoryRateLimitStore,
	interval time.Duration,
	windowDuration time.Duration,
	limiterType string,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.String("limiter_type", limiterType),
		slog.Duration("interval", interval),
		slog.Duration("window_duration", windowDuration))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped",
				slog.String("limiter_type", limiterType))
			return

		case <-ticker.C:
			cleanupStoreOnce(ctx, store, windowDuration, limiterType)
		}
	}
}

// storeSnapshot reads the key count and memory usage together so the
// before/after deltas in the cleanup log line are consistent.
func storeSnapshot(ctx context.Context, store *ratelimit.InMemoryRateLimitStore, limiterType, phase string) (keys int, memory int64, ok bool) {
	keys, err := store.KeyCount(ctx)
	if err != nil {
		slog.Error("failed to get key count "+phase+" cleanup",
			slog.String("limiter_type", limiterType),
			slog.Any("error", err))
		return 0, 0, false
	}
	memory, err = store.MemoryUsage(ctx)
	if err != nil {
		slog.Error("failed to get memory usage "+phase+" cleanup",
			slog.String("limiter_type", limiterType),
			slog.Any("error", err))
		return 0, 0, false
	}
	return keys, memory, true
}

func cleanupStoreOnce(ctx context.Context, store *ratelimit.InMemoryRateLimitStore, windowDuration time.Duration, limiterType string) {
	// 2x the window keeps entries that straddle the boundary (clock
	// skew, in-flight requests) alive for one more pass.
	cutoff := time.Now().Add(-2 * windowDuration)

	keysBefore, memoryBefore, ok := storeSnapshot(ctx, store, limiterType, "before")
	if !ok {
		return
	}

	if err := store.Cleanup(ctx, cutoff); err != nil {
		slog.Error("rate limit cleanup failed",
			slog.String("limiter_type", limiterType),
			slog.Any("error", err))
		return
	}

	keysAfter, memoryAfter, ok := storeSnapshot(ctx, store, limiterType, "after")
	if !ok {
		return
	}

	memoryFreed := memoryBefore - memoryAfter
	slog.Debug("rate limit cleanup completed",
		slog.String("limiter_type", limiterType),
		slog.Int("active_keys_before", keysBefore),
		slog.Int("active_keys_after", keysAfter),
		slog.Int("keys_removed", keysBefore-keysAfter),
		slog.Int64("memory_freed_bytes", memoryFreed),
		slog.Float64("memory_freed_mb", float64(memoryFreed)/(1024*1024)),
		slog.Time("cutoff_time", cutoff))

	const warningThresholdMB = 80
	currentMemoryMB := float64(memoryAfter) / (1024 * 1024)
	if currentMemoryMB > warningThresholdMB {
		slog.Warn("rate limit store memory usage is high",
			slog.String("limiter_type", limiterType),
			slog.Float64("memory_usage_mb", currentMemoryMB),
			slog.Int("active_keys", keysAfter))
	}
}
