package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult carries the outcome of loading one environment value.
// Loaders never fail: a value that cannot be parsed or validated is
// replaced by the default, FallbackApplied is set, and Warnings holds a
// human-readable line per fallback for the caller to log. An unset or
// empty variable silently yields the default with no warning.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// okResult wraps a value that came straight from the environment or from
// the default without any validation trouble.
func okResult(value interface{}) ConfigLoadResult {
	return ConfigLoadResult{Value: value}
}

// LoadEnvString reads envKey, returning defaultValue when the variable is
// unset or empty. No validation is applied; use LoadEnvWithFallback when
// the value needs checking.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback reads a string from envKey and runs it through
// validator (nil skips validation). A value that fails validation is
// replaced by defaultValue with a warning.
//
//	result := LoadEnvWithFallback("AUTOPOST_CRON", "30 5 * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return okResult(defaultValue)
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, err.Error(), defaultValue,
				fmt.Sprintf("'%s'", defaultValue))
		}
	}
	return okResult(value)
}

// LoadEnvDuration reads a Go duration string ("30s", "1h30m") from envKey,
// parses it, and runs the parsed duration through validator (nil skips
// validation). Parse and validation failures both fall back to
// defaultValue with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return okResult(defaultValue)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallbackResult(envKey, raw, err.Error(), defaultValue,
			fmt.Sprintf("'%v'", defaultValue))
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err.Error(), defaultValue,
				fmt.Sprintf("'%v'", defaultValue))
		}
	}
	return okResult(parsed)
}

// LoadEnvInt reads an integer from envKey and runs it through validator
// (nil skips validation). Non-integer input and validation failures fall
// back to defaultValue with a warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return okResult(defaultValue)
	}

	var parsed int
	if _, err := fmt.Sscanf(raw, "%d", &parsed); err != nil {
		return fallbackResult(envKey, raw, "invalid integer format", defaultValue,
			fmt.Sprintf("'%d'", defaultValue))
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err.Error(), defaultValue,
				fmt.Sprintf("'%d'", defaultValue))
		}
	}
	return okResult(parsed)
}

// LoadEnvBool reads a boolean from envKey. Accepted spellings match
// strconv.ParseBool: 1/t/T/true/TRUE/True and the false equivalents.
// Anything else falls back to defaultValue with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return okResult(defaultValue)
	}

	switch raw {
	case "1", "t", "T", "true", "TRUE", "True":
		return okResult(true)
	case "0", "f", "F", "false", "FALSE", "False":
		return okResult(false)
	default:
		return fallbackResult(envKey, raw,
			"invalid boolean format, expected 'true' or 'false'",
			defaultValue, fmt.Sprintf("'%t'", defaultValue))
	}
}

// fallbackResult builds the single-warning result every loader uses when
// it abandons the environment value. quotedDefault is pre-formatted by
// the caller so each type renders its default the same way it always has
// in the logs.
func fallbackResult(envKey, raw, reason string, defaultValue interface{}, quotedDefault string) ConfigLoadResult {
	warning := fmt.Sprintf("Invalid %s='%s': %s, falling back to default %s",
		envKey, raw, reason, quotedDefault)
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}
