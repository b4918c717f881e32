package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Trigger configures how a pause source (screen lock, screensaver, idle) acts
// on a running work countdown.
type Trigger struct {
	Enabled bool
	// Restart re-arms the countdown at full length instead of pausing and resuming it.
	Restart bool
}

// IdleConfig extends Trigger with the inactivity threshold.
type IdleConfig struct {
	Trigger
	Threshold time.Duration
}

// CurfewConfig defines the late-night forced sleep window.
type CurfewConfig struct {
	Enabled bool
	Hour    int
	Minute  int
}

// Settings is an immutable snapshot. Callers replace it wholesale.
type Settings struct {
	WorkDuration       time.Duration
	ShortBreakDuration time.Duration
	LongBreakDuration  time.Duration
	LongBreakEvery     int

	AccumulateBreakTime bool
	AutoStartNextWork   bool

	Idle        IdleConfig
	ScreenLock  Trigger
	Screensaver Trigger
	Curfew      CurfewConfig
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:       25 * time.Minute,
		ShortBreakDuration: 3 * time.Minute,
		LongBreakDuration:  5 * time.Minute,
		LongBreakEvery:     2,
		Idle: IdleConfig{
			Trigger:   Trigger{Restart: true},
			Threshold: 10 * time.Minute,
		},
		ScreenLock:  Trigger{Restart: true},
		Screensaver: Trigger{Restart: true},
		Curfew: CurfewConfig{
			Hour: 23,
		},
	}
}

// ValidCurfewHour reports whether hour is one of the selectable curfew hours.
func ValidCurfewHour(hour int) bool {
	switch hour {
	case 21, 22, 23, 0, 1:
		return true
	}
	return false
}

// ValidCurfewMinute reports whether minute is a quarter-hour mark.
func ValidCurfewMinute(minute int) bool {
	switch minute {
	case 0, 15, 30, 45:
		return true
	}
	return false
}

// Validate reports every out-of-range field.
func (settings Settings) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...)))
		}
	}

	check(settings.WorkDuration > 0, "work duration must be positive, got %s", settings.WorkDuration)
	check(settings.ShortBreakDuration > 0, "short break duration must be positive, got %s", settings.ShortBreakDuration)
	check(settings.LongBreakDuration > 0, "long break duration must be positive, got %s", settings.LongBreakDuration)
	check(settings.LongBreakEvery >= 1, "long break cadence must be at least 1, got %d", settings.LongBreakEvery)
	check(settings.Idle.Threshold > 0, "idle threshold must be positive, got %s", settings.Idle.Threshold)
	check(ValidCurfewHour(settings.Curfew.Hour), "curfew hour must be 21-23 or 0-1, got %d", settings.Curfew.Hour)
	check(ValidCurfewMinute(settings.Curfew.Minute), "curfew minute must be 0, 15, 30 or 45, got %d", settings.Curfew.Minute)

	return errors.Join(problems...)
}

// Normalized replaces out-of-range fields with their defaults.
func (settings Settings) Normalized() Settings {
	defaults := DefaultSettings()
	if settings.WorkDuration <= 0 {
		settings.WorkDuration = defaults.WorkDuration
	}
	if settings.ShortBreakDuration <= 0 {
		settings.ShortBreakDuration = defaults.ShortBreakDuration
	}
	if settings.LongBreakDuration <= 0 {
		settings.LongBreakDuration = defaults.LongBreakDuration
	}
	if settings.LongBreakEvery < 1 {
		settings.LongBreakEvery = defaults.LongBreakEvery
	}
	if settings.Idle.Threshold <= 0 {
		settings.Idle.Threshold = defaults.Idle.Threshold
	}
	if !ValidCurfewHour(settings.Curfew.Hour) {
		settings.Curfew.Hour = defaults.Curfew.Hour
	}
	if !ValidCurfewMinute(settings.Curfew.Minute) {
		settings.Curfew.Minute = defaults.Curfew.Minute
	}
	return settings
}
