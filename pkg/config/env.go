package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// warnBadValue logs one fallback for an environment variable that was set
// but could not be used.
func warnBadValue(key, raw string, def any) {
	slog.Warn("invalid environment value, using default",
		slog.String("key", key),
		slog.String("value", raw),
		slog.Any("default", def))
}

// GetEnvString returns the env value for key, or defaultValue when the
// variable is unset or empty. No validation, no logging.
func GetEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvInt parses the env value as an integer. Unset, empty, or
// unparseable values fall back to defaultValue; the bad value is logged
// rather than failing startup.
func GetEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		warnBadValue(key, raw, defaultValue)
		return defaultValue
	}
	return v
}

// GetEnvBool parses the env value as a boolean. Accepted spellings are
// 1/t/T/true/TRUE/True and their false counterparts; anything else logs a
// warning and falls back to defaultValue.
func GetEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		warnBadValue(key, raw, defaultValue)
		return defaultValue
	}
	return v
}

// GetEnvDuration parses the env value with time.ParseDuration ("30s",
// "1h30m"). Unparseable values log a warning and fall back to
// defaultValue.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		warnBadValue(key, raw, defaultValue.String())
		return defaultValue
	}
	return v
}

// GetEnvStringList splits the env value on commas, trimming whitespace
// and dropping empty elements:
//
//	RATELIMIT_TRUSTED_PROXIES="10.0.0.0/8, 172.16.0.0/12"
//	→ ["10.0.0.0/8", "172.16.0.0/12"]
//
// An unset variable, or one that trims down to nothing, yields
// defaultValue.
func GetEnvStringList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var entries []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			entries = append(entries, trimmed)
		}
	}
	if len(entries) == 0 {
		return defaultValue
	}
	return entries
}
