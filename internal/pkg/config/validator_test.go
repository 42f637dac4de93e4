package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── ValidateCronSchedule ───────── */

func TestValidateCronSchedule(t *testing.T) {
	valid := []struct {
		name     string
		schedule string
	}{
		{"daily midnight", "0 0 * * *"},
		{"autopost default", "30 5 * * *"},
		{"every six hours", "0 */6 * * *"},
		{"weekday mornings", "30 9 * * 1-5"},
		{"first of month", "0 0 1 * *"},
		{"every minute", "* * * * *"},
		{"new year", "0 0 1 1 *"},
		{"every five minutes", "*/5 * * * *"},
		{"lists and steps", "15,45 */2 * * 1,3,5"},
		{"business hours", "0 9-17 * * 1-5"},
		{"quarterly", "30 3 1 1,6,12 *"},
	}

	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateCronSchedule(tt.schedule))
		})
	}

	invalid := []struct {
		name     string
		schedule string
	}{
		{"empty", ""},
		{"two fields", "0 0"},
		{"seven fields", "0 0 * * * * *"},
		{"minute out of range", "60 0 * * *"},
		{"hour out of range", "0 24 * * *"},
		{"day out of range", "0 0 32 * *"},
		{"month out of range", "0 0 * 13 *"},
		{"weekday out of range", "0 0 * * 8"},
		{"prose", "invalid format"},
		{"symbols", "@#$%^&*()"},
		{"negative field", "-1 0 * * *"},
		{"quartz L syntax", "0 0 L * *"},
		{"descriptor shortcut", "@daily"},
		{"four fields", "* * * *"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid cron schedule")
		})
	}
}

func TestValidateCronSchedule_ErrorNamesTheExpression(t *testing.T) {
	err := ValidateCronSchedule("invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule 'invalid'")
}

/* ───────── ValidateTimezone ───────── */

func TestValidateTimezone(t *testing.T) {
	for _, tz := range []string{
		"UTC", "GMT", "Local",
		"America/New_York", "America/Los_Angeles", "America/Sao_Paulo",
		"Europe/London", "Europe/Paris", "Europe/Moscow",
		"Asia/Tokyo", "Asia/Shanghai", "Asia/Kolkata",
		"Australia/Sydney", "Pacific/Auckland", "Africa/Cairo",
	} {
		t.Run(tz, func(t *testing.T) {
			assert.NoError(t, ValidateTimezone(tz))
		})
	}

	invalid := []struct {
		name string
		tz   string
	}{
		{"empty", ""},
		{"made up zone", "Invalid/Timezone"},
		{"not a zone name", "NotATimezone"},
		{"prose", "random text"},
		{"UTC offset instead of IANA name", "+09:00"},
		{"typo", "Aisa/Tokyo"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimezone(tt.tz)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid timezone")
		})
	}
}

func TestValidateTimezone_ErrorNamesTheZone(t *testing.T) {
	err := ValidateTimezone("Invalid/Zone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone 'Invalid/Zone'")
}

/* ───────── ValidateDuration ───────── */

func TestValidateDuration_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		min      time.Duration
		max      time.Duration
		valid    bool
	}{
		{"at min", 10 * time.Second, 10 * time.Second, time.Minute, true},
		{"at max", time.Minute, 10 * time.Second, time.Minute, true},
		{"mid range", 30 * time.Second, 10 * time.Second, time.Minute, true},
		{"min equals max", 5 * time.Second, 5 * time.Second, 5 * time.Second, true},
		{"just below min", 9 * time.Second, 10 * time.Second, time.Minute, false},
		{"just above max", 61 * time.Second, 10 * time.Second, time.Minute, false},
		{"zero within range", 0, 0, 10 * time.Second, true},
		{"nanosecond scale", 500 * time.Nanosecond, 100 * time.Nanosecond, time.Microsecond, true},
		{"negative below negative min", -30 * time.Second, -10 * time.Second, 10 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDuration(tt.duration, tt.min, tt.max)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateDuration_ErrorMessages(t *testing.T) {
	err := ValidateDuration(5*time.Second, 10*time.Second, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")
	assert.Contains(t, err.Error(), "5s")
	assert.Contains(t, err.Error(), "10s")

	err = ValidateDuration(2*time.Minute, 10*time.Second, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
	assert.Contains(t, err.Error(), "2m")
	assert.Contains(t, err.Error(), "1m")
}

func TestValidateDuration_RejectsInvertedRange(t *testing.T) {
	err := ValidateDuration(30*time.Second, time.Minute, 10*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")
}

/* ───────── ValidateIntRange ───────── */

func TestValidateIntRange_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		value int
		min   int
		max   int
		valid bool
	}{
		{"at min", 1, 1, 10, true},
		{"at max", 10, 1, 10, true},
		{"mid range", 5, 1, 10, true},
		{"min equals max", 5, 5, 5, true},
		{"just below min", 0, 1, 10, false},
		{"just above max", 11, 1, 10, false},
		{"negative range", -5, -10, -1, true},
		{"zero in symmetric range", 0, -10, 10, true},
		{"negative below zero min", -1, 0, 10, false},
		{"int32 max", 2147483647, 0, 2147483647, true},
		{"int32 min", -2147483648, -2147483648, 0, true},
		{"one over max", 2147483647, 0, 2147483646, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntRange(tt.value, tt.min, tt.max)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateIntRange_ErrorMessages(t *testing.T) {
	err := ValidateIntRange(0, 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")

	err = ValidateIntRange(11, 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
	assert.Contains(t, err.Error(), "11")
}

func TestValidateIntRange_RejectsInvertedRange(t *testing.T) {
	err := ValidateIntRange(5, 10, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")
}

/* ───────── ValidatePositiveDuration ───────── */

func TestValidatePositiveDuration(t *testing.T) {
	for _, d := range []time.Duration{
		time.Nanosecond, time.Millisecond, time.Second,
		30 * time.Minute, 24 * time.Hour, 1000 * time.Hour,
	} {
		t.Run(d.String(), func(t *testing.T) {
			assert.NoError(t, ValidatePositiveDuration(d))
		})
	}

	for _, d := range []time.Duration{0, -time.Second, -time.Hour, -1000 * time.Hour} {
		t.Run(d.String(), func(t *testing.T) {
			err := ValidatePositiveDuration(d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be positive")
		})
	}
}

func TestValidatePositiveDuration_ErrorNamesTheValue(t *testing.T) {
	err := ValidatePositiveDuration(-30 * time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-30m")

	err = ValidatePositiveDuration(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0s")
}
