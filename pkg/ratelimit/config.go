package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitConfig holds every knob the limiter middleware reads: global
// IP and user defaults, per-endpoint overrides, tier limits, memory
// bounds, and the breaker settings guarding the store.
type RateLimitConfig struct {
	DefaultIPLimit  int
	DefaultIPWindow time.Duration

	DefaultUserLimit  int
	DefaultUserWindow time.Duration

	// EndpointOverrides tightens or loosens limits on specific paths,
	// e.g. stricter limits on the publish endpoint than on health checks.
	EndpointOverrides []EndpointRateLimitConfig

	// TierLimits grants per-tier user budgets; missing tiers fall back
	// to the user defaults.
	TierLimits []TierRateLimitConfig

	// MaxActiveKeys bounds how many keys the in-memory store tracks
	// before LRU eviction kicks in.
	MaxActiveKeys int

	CleanupInterval time.Duration
	CleanupMaxAge   time.Duration

	// Breaker settings for the store path: open after N consecutive
	// failures, probe half-open after the reset timeout.
	CircuitBreakerFailureThreshold int
	CircuitBreakerResetTimeout     time.Duration

	Enabled bool
}

// EndpointRateLimitConfig overrides the global limits for one path
// pattern. Patterns may end in a wildcard, e.g. "/articles/*".
type EndpointRateLimitConfig struct {
	PathPattern string

	IPLimit  int
	IPWindow time.Duration

	UserLimit  int
	UserWindow time.Duration
}

// TierRateLimitConfig sets the request budget for one user tier.
type TierRateLimitConfig struct {
	Tier   UserTier
	Limit  int
	Window time.Duration
}

// UserTier is a user's service tier for tiered rate limits.
type UserTier string

const (
	TierAdmin   UserTier = "admin"
	TierPremium UserTier = "premium"
	TierBasic   UserTier = "basic"
	TierViewer  UserTier = "viewer"
)

func (t UserTier) String() string {
	return string(t)
}

// IsValid reports whether the tier is one of the recognized values.
func (t UserTier) IsValid() bool {
	switch t {
	case TierAdmin, TierPremium, TierBasic, TierViewer:
		return true
	}
	return false
}

// Validate rejects negative values and malformed overrides. Zero values
// are allowed here; ApplyDefaults fills them in.
func (c *RateLimitConfig) Validate() error {
	scalars := []struct {
		name  string
		value int64
		text  string
	}{
		{"DefaultIPLimit", int64(c.DefaultIPLimit), fmt.Sprintf("%d", c.DefaultIPLimit)},
		{"DefaultIPWindow", int64(c.DefaultIPWindow), c.DefaultIPWindow.String()},
		{"DefaultUserLimit", int64(c.DefaultUserLimit), fmt.Sprintf("%d", c.DefaultUserLimit)},
		{"DefaultUserWindow", int64(c.DefaultUserWindow), c.DefaultUserWindow.String()},
		{"MaxActiveKeys", int64(c.MaxActiveKeys), fmt.Sprintf("%d", c.MaxActiveKeys)},
		{"CleanupInterval", int64(c.CleanupInterval), c.CleanupInterval.String()},
		{"CleanupMaxAge", int64(c.CleanupMaxAge), c.CleanupMaxAge.String()},
		{"CircuitBreakerFailureThreshold", int64(c.CircuitBreakerFailureThreshold), fmt.Sprintf("%d", c.CircuitBreakerFailureThreshold)},
		{"CircuitBreakerResetTimeout", int64(c.CircuitBreakerResetTimeout), c.CircuitBreakerResetTimeout.String()},
	}
	for _, s := range scalars {
		if s.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", s.name, s.text)
		}
	}

	for i, override := range c.EndpointOverrides {
		if override.PathPattern == "" {
			return fmt.Errorf("EndpointOverrides[%d].PathPattern cannot be empty", i)
		}
		if override.IPLimit < 0 {
			return fmt.Errorf("EndpointOverrides[%d].IPLimit must be non-negative, got %d", i, override.IPLimit)
		}
		if override.IPWindow < 0 {
			return fmt.Errorf("EndpointOverrides[%d].IPWindow must be non-negative, got %s", i, override.IPWindow)
		}
		if override.UserLimit < 0 {
			return fmt.Errorf("EndpointOverrides[%d].UserLimit must be non-negative, got %d", i, override.UserLimit)
		}
		if override.UserWindow < 0 {
			return fmt.Errorf("EndpointOverrides[%d].UserWindow must be non-negative, got %s", i, override.UserWindow)
		}
	}

	for i, tierLimit := range c.TierLimits {
		if !tierLimit.Tier.IsValid() {
			return fmt.Errorf("TierLimits[%d].Tier has invalid value %q", i, tierLimit.Tier)
		}
		if tierLimit.Limit < 0 {
			return fmt.Errorf("TierLimits[%d].Limit must be non-negative, got %d", i, tierLimit.Limit)
		}
		if tierLimit.Window < 0 {
			return fmt.Errorf("TierLimits[%d].Window must be non-negative, got %s", i, tierLimit.Window)
		}
	}

	return nil
}

// ApplyDefaults fills zero values so a partially-populated config still
// yields a working limiter.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.DefaultIPLimit == 0 {
		c.DefaultIPLimit = 100
	}
	if c.DefaultIPWindow == 0 {
		c.DefaultIPWindow = 1 * time.Minute
	}

	if c.DefaultUserLimit == 0 {
		c.DefaultUserLimit = 1000
	}
	if c.DefaultUserWindow == 0 {
		c.DefaultUserWindow = 1 * time.Hour
	}

	if c.MaxActiveKeys == 0 {
		c.MaxActiveKeys = 10000
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	if c.CleanupMaxAge == 0 {
		c.CleanupMaxAge = 1 * time.Hour
	}

	if c.CircuitBreakerFailureThreshold == 0 {
		c.CircuitBreakerFailureThreshold = 10
	}
	if c.CircuitBreakerResetTimeout == 0 {
		c.CircuitBreakerResetTimeout = 30 * time.Second
	}

	if !c.Enabled {
		c.Enabled = true
	}
}

// GetTierLimit returns the budget for a tier, falling back to the user
// defaults when the tier has no explicit entry.
func (c *RateLimitConfig) GetTierLimit(tier UserTier) (limit int, window time.Duration) {
	for _, tierLimit := range c.TierLimits {
		if tierLimit.Tier == tier {
			return tierLimit.Limit, tierLimit.Window
		}
	}
	return c.DefaultUserLimit, c.DefaultUserWindow
}

// GetEndpointLimit returns the IP and user budgets for a path pattern,
// falling back to the global defaults when no override matches.
func (c *RateLimitConfig) GetEndpointLimit(pathPattern string) (ipLimit int, ipWindow time.Duration, userLimit int, userWindow time.Duration) {
	for _, override := range c.EndpointOverrides {
		if override.PathPattern == pathPattern {
			return override.IPLimit, override.IPWindow, override.UserLimit, override.UserWindow
		}
	}
	return c.DefaultIPLimit, c.DefaultIPWindow, c.DefaultUserLimit, c.DefaultUserWindow
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *RateLimitConfig {
	config := &RateLimitConfig{}
	config.ApplyDefaults()
	return config
}
