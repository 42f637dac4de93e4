package worker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blogsmith/internal/pkg/config"
)

// WorkerConfig holds the configuration for the autopost worker.
// It controls the cron schedule, timezone, the genre list drafted on each
// run, and the operational limits of the run.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have defaults and validation rules so the worker can start
// safely even with invalid or missing configuration.
//
// Example usage:
//
//	// Use defaults
//	config := DefaultConfig()
//
//	// Load from environment with fallback
//	config, err := LoadConfigFromEnv(logger, metrics)
//	if err != nil {
//	    // This should never happen with fail-open strategy
//	    log.Fatal("Unexpected configuration error: %v", err)
//	}
type WorkerConfig struct {
	// CronSchedule is the cron expression for the autopost job.
	// Format: "minute hour day month weekday"
	// Example: "30 5 * * *" (every day at 5:30)
	// Validation: Must be a valid cron expression (5 fields)
	// Default: "30 5 * * *"
	CronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Example: "Asia/Tokyo", "UTC", "America/New_York"
	// Validation: Must be a valid IANA timezone name
	// Default: "Asia/Tokyo"
	Timezone string

	// Genres is the list of genres drafted on each run, one post per
	// genre. Loaded from a comma-separated list.
	// Validation: Must contain at least one genre
	// Default: ["technology"]
	Genres []string

	// MaxConcurrent caps how many genre pipelines run at once. Generation
	// providers are rate-limited, so this stays small.
	// Range: 1-10
	// Default: 2
	MaxConcurrent int

	// RunTimeout is the maximum duration for a single autopost run.
	// After this timeout the run is cancelled; already-created drafts
	// are kept.
	// Must be positive (> 0)
	// Default: 30 minutes
	RunTimeout time.Duration

	// NotifyMaxConcurrent is the maximum number of concurrent
	// notification channel calls.
	// Range: 1-50
	// Default: 10
	NotifyMaxConcurrent int

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with production-ready defaults:
// a daily draft run at 5:30 AM JST, one technology post per run, two
// concurrent genre pipelines, and a 30-minute cap per run.
//
// Example:
//
//	config := DefaultConfig()
//	config.CronSchedule = "0 */6 * * *"  // Customize to run every 6 hours
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:        "30 5 * * *",     // Every day at 5:30 AM
		Timezone:            "Asia/Tokyo",     // JST
		Genres:              []string{"technology"},
		MaxConcurrent:       2,                // Generation providers are rate-limited
		RunTimeout:          30 * time.Minute, // 30 minutes
		NotifyMaxConcurrent: 10,               // 10 concurrent notifications
		HealthPort:          9091,             // Standard Prometheus exporter port
	}
}

// Validate checks if the configuration values are valid.
// Each field is validated using the reusable validators from
// internal/pkg/config; when several fields are invalid all errors are
// collected and returned together.
//
// Validation rules:
//   - CronSchedule: Must be a valid cron expression (validated by robfig/cron parser)
//   - Timezone: Must be a valid IANA timezone name (validated by time.LoadLocation)
//   - Genres: Must contain at least one genre
//   - MaxConcurrent: Must be between 1 and 10 (inclusive)
//   - RunTimeout: Must be positive (> 0)
//   - NotifyMaxConcurrent: Must be between 1 and 50 (inclusive)
//   - HealthPort: Must be between 1024 and 65535 (avoid privileged ports)
//
// Returns:
//   - error: nil if configuration is valid, aggregated error if any validation fails
func (c *WorkerConfig) Validate() error {
	var errors []error

	// Validate CronSchedule
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}

	// Validate Timezone
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	// Validate Genres
	if len(c.Genres) == 0 {
		errors = append(errors, fmt.Errorf("genres: at least one genre is required"))
	}

	// Validate MaxConcurrent (range: 1-10)
	if err := config.ValidateIntRange(c.MaxConcurrent, 1, 10); err != nil {
		errors = append(errors, fmt.Errorf("max concurrent: %w", err))
	}

	// Validate RunTimeout (must be positive)
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errors = append(errors, fmt.Errorf("run timeout: %w", err))
	}

	// Validate NotifyMaxConcurrent (range: 1-50, reduced for safety)
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("notify max concurrent: %w", err))
	}

	// Validate HealthPort (range: 1024-65535)
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	// Return aggregated errors
	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Environment variables:
//   - AUTOPOST_CRON: Cron expression (default: "30 5 * * *")
//   - AUTOPOST_TIMEZONE: IANA timezone name (default: "Asia/Tokyo")
//   - AUTOPOST_GENRES: Comma-separated genre list (default: "technology")
//   - AUTOPOST_MAX_CONCURRENT: Integer 1-10 (default: 2)
//   - AUTOPOST_TIMEOUT: Duration string, e.g., "30m" (default: 30 minutes)
//   - NOTIFY_MAX_CONCURRENT: Integer 1-100 (default: 10)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//
// Metrics updated:
//   - ValidationErrorsTotal: Incremented for each validation failure
//   - FallbacksTotal: Incremented for each fallback applied
//   - FallbackActive: Set to 1 if any fallback is active, 0 otherwise
//   - LoadTimestamp: Set to current time after successful load
//
// Returns:
//   - *WorkerConfig: Valid configuration (never nil)
//   - error: Always nil (fail-open strategy)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	// Start with default config
	cfg := DefaultConfig()
	fallbackApplied := false

	// Load CronSchedule
	result := config.LoadEnvWithFallback("AUTOPOST_CRON", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cron_schedule")
		metrics.RecordFallback("cron_schedule", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "CronSchedule"),
				slog.String("warning", warning))
		}
	}

	// Load Timezone
	result = config.LoadEnvWithFallback("AUTOPOST_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
		metrics.RecordFallback("timezone", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "Timezone"),
				slog.String("warning", warning))
		}
	}

	// Load Genres (comma-separated list)
	result = config.LoadEnvWithFallback("AUTOPOST_GENRES", strings.Join(cfg.Genres, ","), validateGenreList)
	cfg.Genres = splitGenres(result.Value.(string))
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("genres")
		metrics.RecordFallback("genres", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "Genres"),
				slog.String("warning", warning))
		}
	}

	// Load MaxConcurrent
	result = config.LoadEnvInt("AUTOPOST_MAX_CONCURRENT", cfg.MaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 10)
	})
	cfg.MaxConcurrent = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("max_concurrent")
		metrics.RecordFallback("max_concurrent", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "MaxConcurrent"),
				slog.String("warning", warning))
		}
	}

	// Load RunTimeout (with 1m-4h range limit)
	result = config.LoadEnvDuration("AUTOPOST_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("run_timeout")
		metrics.RecordFallback("run_timeout", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "RunTimeout"),
				slog.String("warning", warning))
		}
	}

	// Load NotifyMaxConcurrent
	result = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	cfg.NotifyMaxConcurrent = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("notify_max_concurrent")
		metrics.RecordFallback("notify_max_concurrent", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "NotifyMaxConcurrent"),
				slog.String("warning", warning))
		}
	}

	// Load HealthPort
	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "HealthPort"),
				slog.String("warning", warning))
		}
	}

	// Update metrics
	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}

// splitGenres parses a comma-separated genre list, trimming whitespace
// and dropping empty elements.
func splitGenres(raw string) []string {
	var genres []string
	for _, g := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(g); trimmed != "" {
			genres = append(genres, trimmed)
		}
	}
	return genres
}

// validateGenreList checks that a comma-separated genre list contains at
// least one non-empty genre.
func validateGenreList(raw string) error {
	if len(splitGenres(raw)) == 0 {
		return fmt.Errorf("invalid genre list: no genres found in '%s'", raw)
	}
	return nil
}
