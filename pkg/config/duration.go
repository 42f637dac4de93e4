package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations. Use it for
// timeouts, intervals, and windows where zero would disable the feature by
// accident.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be greater than zero, got %v", d)
	}
	return nil
}

// ValidateNonNegativeDuration allows zero but rejects negatives. For
// optional delays where zero means "immediately".
func ValidateNonNegativeDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("duration must not be negative, got %v", d)
	}
	return nil
}

// ValidateDurationRange checks min <= d <= max, both ends inclusive.
// A min greater than max is reported as a caller error rather than
// rejecting every value silently.
func ValidateDurationRange(d, min, max time.Duration) error {
	switch {
	case min > max:
		return fmt.Errorf("bad validation range: min %v exceeds max %v", min, max)
	case d < min:
		return fmt.Errorf("duration %v is under the minimum %v", d, min)
	case d > max:
		return fmt.Errorf("duration %v is over the maximum %v", d, max)
	}
	return nil
}
