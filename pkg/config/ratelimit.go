package config

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"blogsmith/pkg/ratelimit"
)

// envIntAtLeastZero reads key with GetEnvInt and rejects negative values,
// warning and returning the default instead of failing startup.
func envIntAtLeastZero(key string, defaultValue int) int {
	v := GetEnvInt(key, defaultValue)
	if v < 0 {
		slog.Warn("invalid "+key+", using default",
			slog.Int("value", v),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return v
}

// envPositiveDuration reads key with GetEnvDuration and rejects zero or
// negative durations. defaultLabel is the human-readable default for the
// warning ("1m", "30s").
func envPositiveDuration(key string, defaultValue time.Duration, defaultLabel string) time.Duration {
	v := GetEnvDuration(key, defaultValue)
	if err := ValidatePositiveDuration(v); err != nil {
		slog.Warn("invalid "+key+", using default",
			slog.String("value", v.String()),
			slog.String("default", defaultLabel),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return v
}

// LoadRateLimitConfig reads rate limiting configuration from environment
// variables. Invalid values never abort startup: each one is logged and
// replaced with its default, and the assembled config is validated as a
// whole before being returned.
//
// Variables and defaults:
//
//	RATELIMIT_ENABLED               true
//	RATELIMIT_IP_LIMIT              100 requests per window
//	RATELIMIT_IP_WINDOW             1m
//	RATELIMIT_USER_LIMIT            1000 requests per window
//	RATELIMIT_USER_WINDOW           1h
//	RATELIMIT_MAX_KEYS              10000
//	RATELIMIT_CLEANUP_INTERVAL      5m
//	RATELIMIT_CB_FAILURE_THRESHOLD  10
//	RATELIMIT_CB_RECOVERY_TIMEOUT   30s
//
// Tier limits come from loadTierLimits. The error return is always nil.
func LoadRateLimitConfig() (*ratelimit.RateLimitConfig, error) {
	config := &ratelimit.RateLimitConfig{
		Enabled: GetEnvBool("RATELIMIT_ENABLED", true),

		DefaultIPLimit:    envIntAtLeastZero("RATELIMIT_IP_LIMIT", 100),
		DefaultIPWindow:   envPositiveDuration("RATELIMIT_IP_WINDOW", 1*time.Minute, "1m"),
		DefaultUserLimit:  envIntAtLeastZero("RATELIMIT_USER_LIMIT", 1000),
		DefaultUserWindow: envPositiveDuration("RATELIMIT_USER_WINDOW", 1*time.Hour, "1h"),

		TierLimits: loadTierLimits(),

		MaxActiveKeys:   envIntAtLeastZero("RATELIMIT_MAX_KEYS", 10000),
		CleanupInterval: envPositiveDuration("RATELIMIT_CLEANUP_INTERVAL", 5*time.Minute, "5m"),
		// not exposed as an env var
		CleanupMaxAge: 1 * time.Hour,

		CircuitBreakerFailureThreshold: envIntAtLeastZero("RATELIMIT_CB_FAILURE_THRESHOLD", 10),
		CircuitBreakerResetTimeout:     envPositiveDuration("RATELIMIT_CB_RECOVERY_TIMEOUT", 30*time.Second, "30s"),
	}

	if err := config.Validate(); err != nil {
		slog.Warn("rate limit configuration validation failed, applying defaults",
			slog.String("error", err.Error()))
		config.ApplyDefaults()
	}

	return config, nil
}

// loadTierLimits reads the per-tier hourly limits:
//
//	RATELIMIT_TIER_ADMIN    10000
//	RATELIMIT_TIER_PREMIUM  5000
//	RATELIMIT_TIER_BASIC    1000
//	RATELIMIT_TIER_VIEWER   500
func loadTierLimits() []ratelimit.TierRateLimitConfig {
	tiers := []struct {
		tier         ratelimit.UserTier
		envKey       string
		defaultLimit int
	}{
		{ratelimit.TierAdmin, "RATELIMIT_TIER_ADMIN", 10000},
		{ratelimit.TierPremium, "RATELIMIT_TIER_PREMIUM", 5000},
		{ratelimit.TierBasic, "RATELIMIT_TIER_BASIC", 1000},
		{ratelimit.TierViewer, "RATELIMIT_TIER_VIEWER", 500},
	}

	tierLimits := make([]ratelimit.TierRateLimitConfig, 0, len(tiers))
	for _, t := range tiers {
		tierLimits = append(tierLimits, ratelimit.TierRateLimitConfig{
			Tier:   t.tier,
			Limit:  envIntAtLeastZero(t.envKey, t.defaultLimit),
			Window: 1 * time.Hour,
		})
	}
	return tierLimits
}

// CSPConfig controls the Content-Security-Policy middleware.
type CSPConfig struct {
	// Enabled controls whether CSP headers are applied at all.
	Enabled bool

	// ReportOnly switches the header to Content-Security-Policy-Report-Only,
	// which logs violations without enforcing.
	ReportOnly bool

	// TrustedScriptSources lists additional allowed script sources (CDN URLs).
	TrustedScriptSources []string

	// TrustedStyleSources lists additional allowed style sources (CDN URLs).
	TrustedStyleSources []string
}

// LoadCSPConfig reads CSP_ENABLED (default true) and CSP_REPORT_ONLY
// (default false). The error return is always nil.
func LoadCSPConfig() (*CSPConfig, error) {
	return &CSPConfig{
		Enabled:    GetEnvBool("CSP_ENABLED", true),
		ReportOnly: GetEnvBool("CSP_REPORT_ONLY", false),
	}, nil
}

// ValidateTrustedProxies checks that every entry is a valid CIDR range
// ("10.0.0.0/8") or a bare IP address.
func ValidateTrustedProxies(cidrs []string) error {
	for _, cidr := range cidrs {
		if cidr == "" {
			return fmt.Errorf("CIDR cannot be empty")
		}
		if _, _, err := net.ParseCIDR(cidr); err == nil {
			continue
		}
		if net.ParseIP(cidr) == nil {
			return fmt.Errorf("invalid trusted proxy entry '%s': not an IP or CIDR range", cidr)
		}
	}
	return nil
}
