package middleware

import (
	"log/slog"
	"sync"
	"time"

	"blogsmith/pkg/ratelimit"
)

// DegradationLevel selects how strictly the rate limiters enforce their
// limits. Under stress the level rises and the limits loosen, trading
// abuse protection for availability of the editorial API.
type DegradationLevel int

const (
	// LevelNormal applies the configured limits unchanged.
	LevelNormal DegradationLevel = iota

	// LevelRelaxed doubles the limits. Entered when a limiter's circuit
	// breaker opens or latency starts climbing.
	LevelRelaxed

	// LevelMinimal multiplies the limits by ten. Entered when the
	// in-memory limiter store is under sustained memory pressure.
	LevelMinimal

	// LevelDisabled turns rate limiting off entirely. Only reached when
	// the circuit is open AND memory pressure is high, or by manual
	// override. Availability wins over abuse protection here.
	LevelDisabled
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelRelaxed:
		return "relaxed"
	case LevelMinimal:
		return "minimal"
	case LevelDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// DegradationConfig configures a DegradationManager.
type DegradationConfig struct {
	// AutoAdjust lets the manager change levels on its own as health
	// indicators move. Default: true.
	AutoAdjust bool

	// CooldownPeriod is the minimum gap between automatic level changes,
	// preventing flapping when an indicator oscillates. Default: 1 minute.
	CooldownPeriod time.Duration

	// RelaxedMultiplier scales limits at LevelRelaxed (default 2).
	RelaxedMultiplier int

	// MinimalMultiplier scales limits at LevelMinimal (default 10).
	MinimalMultiplier int

	// Clock abstracts time for tests. Default: ratelimit.SystemClock.
	Clock ratelimit.Clock

	// Metrics records level changes. Default: ratelimit.NoOpMetrics.
	Metrics ratelimit.RateLimitMetrics

	// LimiterType names the limiter this manager protects ("ip", "user")
	// and labels its metrics and log lines.
	LimiterType string
}

// DefaultDegradationConfig returns the defaults documented on DegradationConfig.
func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		AutoAdjust:        true,
		CooldownPeriod:    1 * time.Minute,
		RelaxedMultiplier: 2,
		MinimalMultiplier: 10,
		Clock:             &ratelimit.SystemClock{},
		Metrics:           &ratelimit.NoOpMetrics{},
	}
}

// DegradationManager watches two health indicators — the limiter's circuit
// breaker and the limiter store's memory pressure — and maps them onto a
// degradation level:
//
//	circuit open + memory pressure → Disabled
//	memory pressure                → Minimal
//	circuit open                   → Relaxed
//	both healthy                   → Normal
//
// Level changes respect a cooldown, and an operator can pin a level with
// SetLevel, which suspends automatic movement until cleared.
type DegradationManager struct {
	config DegradationConfig

	mu              sync.RWMutex
	currentLevel    DegradationLevel
	lastLevelChange time.Time
	circuitOpen     bool
	memoryPressure  bool
	manualOverride  *DegradationLevel
}

// NewDegradationManager builds a manager starting at LevelNormal, filling
// zero config fields with the documented defaults.
func NewDegradationManager(config DegradationConfig) *DegradationManager {
	if config.CooldownPeriod <= 0 {
		config.CooldownPeriod = 1 * time.Minute
	}
	if config.RelaxedMultiplier <= 0 {
		config.RelaxedMultiplier = 2
	}
	if config.MinimalMultiplier <= 0 {
		config.MinimalMultiplier = 10
	}
	if config.Clock == nil {
		config.Clock = &ratelimit.SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &ratelimit.NoOpMetrics{}
	}

	dm := &DegradationManager{
		config:          config,
		currentLevel:    LevelNormal,
		lastLevelChange: config.Clock.Now(),
	}
	config.Metrics.RecordDegradationLevel(config.LimiterType, int(LevelNormal))
	return dm
}

// GetLevel returns the effective level: the manual override when one is
// set, the automatically adjusted level otherwise.
func (dm *DegradationManager) GetLevel() DegradationLevel {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.manualOverride != nil {
		return *dm.manualOverride
	}
	return dm.currentLevel
}

// SetLevel pins the level, suspending automatic adjustment until
// ClearManualOverride is called. Meant for incident response: forcing
// strict limits during abuse, or disabling limits during an outage.
func (dm *DegradationManager) SetLevel(level DegradationLevel) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.manualOverride = &level
	dm.config.Metrics.RecordDegradationLevel(dm.config.LimiterType, int(level))

	slog.Info("Degradation level manually set",
		slog.String("limiter_type", dm.config.LimiterType),
		slog.String("level", level.String()),
	)
}

// ClearManualOverride resumes automatic adjustment.
func (dm *DegradationManager) ClearManualOverride() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.manualOverride == nil {
		return
	}
	dm.manualOverride = nil

	slog.Info("Degradation manual override cleared, resuming auto-adjustment",
		slog.String("limiter_type", dm.config.LimiterType),
		slog.String("current_level", dm.currentLevel.String()),
	)
	dm.config.Metrics.RecordDegradationLevel(dm.config.LimiterType, int(dm.currentLevel))
}

// AdjustLimits scales baseLimit for the current level. A return of 0 means
// limiting is disabled and the caller should let the request through.
func (dm *DegradationManager) AdjustLimits(baseLimit int) int {
	switch dm.GetLevel() {
	case LevelRelaxed:
		return baseLimit * dm.config.RelaxedMultiplier
	case LevelMinimal:
		return baseLimit * dm.config.MinimalMultiplier
	case LevelDisabled:
		return 0
	default:
		return baseLimit
	}
}

// OnCircuitOpen records that the limiter's circuit breaker opened.
func (dm *DegradationManager) OnCircuitOpen() {
	dm.setIndicator(&dm.circuitOpen, true)
}

// OnCircuitClose records that the limiter's circuit breaker recovered.
func (dm *DegradationManager) OnCircuitClose() {
	dm.setIndicator(&dm.circuitOpen, false)
}

// OnHighMemoryPressure records that the limiter store is nearing capacity.
func (dm *DegradationManager) OnHighMemoryPressure() {
	dm.setIndicator(&dm.memoryPressure, true)
}

// OnNormalMemoryPressure records that the limiter store has room again.
func (dm *DegradationManager) OnNormalMemoryPressure() {
	dm.setIndicator(&dm.memoryPressure, false)
}

// setIndicator updates one health flag and re-evaluates the level. The
// flag itself is always recorded so Stats stays accurate, even when a
// manual override or AutoAdjust=false blocks the level change.
func (dm *DegradationManager) setIndicator(flag *bool, value bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	*flag = value

	if !dm.config.AutoAdjust || dm.manualOverride != nil {
		return
	}
	dm.adjustLevel()
}

// adjustLevel maps the current indicators onto a level, subject to the
// cooldown. Callers must hold dm.mu.
func (dm *DegradationManager) adjustLevel() {
	now := dm.config.Clock.Now()
	if now.Sub(dm.lastLevelChange) < dm.config.CooldownPeriod {
		return
	}

	var newLevel DegradationLevel
	switch {
	case dm.circuitOpen && dm.memoryPressure:
		newLevel = LevelDisabled
	case dm.memoryPressure:
		newLevel = LevelMinimal
	case dm.circuitOpen:
		newLevel = LevelRelaxed
	default:
		newLevel = LevelNormal
	}

	oldLevel := dm.currentLevel
	if newLevel == oldLevel {
		return
	}

	dm.currentLevel = newLevel
	dm.lastLevelChange = now
	dm.config.Metrics.RecordDegradationLevel(dm.config.LimiterType, int(newLevel))

	slog.Warn("degradation level changed",
		slog.String("limiter_type", dm.config.LimiterType),
		slog.String("previous_level", oldLevel.String()),
		slog.String("new_level", newLevel.String()),
		slog.String("reason", dm.changeReason()),
		slog.Bool("circuit_open", dm.circuitOpen),
		slog.Bool("memory_pressure", dm.memoryPressure),
	)
}

func (dm *DegradationManager) changeReason() string {
	switch {
	case dm.circuitOpen && dm.memoryPressure:
		return "circuit_open,memory_pressure"
	case dm.circuitOpen:
		return "circuit_open"
	case dm.memoryPressure:
		return "memory_pressure"
	default:
		return "recovery"
	}
}

// DegradationStats is a point-in-time snapshot for the health endpoint.
type DegradationStats struct {
	// EffectiveLevel is what AdjustLimits uses (respects manual override).
	EffectiveLevel DegradationLevel

	// InternalLevel is the automatically calculated level, shown so an
	// operator can see where the manager would sit without the override.
	InternalLevel DegradationLevel

	// ManualOverride reports whether SetLevel is currently pinning the level.
	ManualOverride bool

	// CircuitOpen mirrors the circuit breaker indicator.
	CircuitOpen bool

	// MemoryPressure mirrors the store memory indicator.
	MemoryPressure bool

	// LastLevelChange is when the automatic level last moved.
	LastLevelChange time.Time
}

// Stats snapshots the manager for monitoring.
func (dm *DegradationManager) Stats() DegradationStats {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	effective := dm.currentLevel
	if dm.manualOverride != nil {
		effective = *dm.manualOverride
	}

	return DegradationStats{
		EffectiveLevel:  effective,
		InternalLevel:   dm.currentLevel,
		ManualOverride:  dm.manualOverride != nil,
		CircuitOpen:     dm.circuitOpen,
		MemoryPressure:  dm.memoryPressure,
		LastLevelChange: dm.lastLevelChange,
	}
}
