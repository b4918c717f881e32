// Package curfew decides when the late-night forced sleep window opens and
// closes, and when to warn that it is about to open.
package curfew

import (
	"time"

	"pomodoro/internal/core/model"
)

const (
	minutesPerDay = 24 * 60
	// windowOpensAt is where the window starts when the limit falls after midnight.
	windowOpensAt = 21 * 60
)

// Warning minutes, fired once each per approach to the limit.
const (
	WarningFiveMinutes = 5
	WarningOneMinute   = 1
)

// Result is the outcome of one evaluation.
type Result struct {
	InWindow bool
	// Entered and Exited are edges relative to the previous evaluation.
	Entered bool
	Exited  bool
	// Warning is 0, WarningFiveMinutes or WarningOneMinute.
	Warning int
}

// Monitor keeps the shadow state between evaluations. It is not safe for
// concurrent use; the owner serializes calls.
type Monitor struct {
	inWindow    bool
	lastWarning int
}

// New returns a monitor that starts outside the window.
func New() *Monitor {
	return &Monitor{}
}

// InWindow returns the shadow state from the last evaluation.
func (monitor *Monitor) InWindow() bool {
	return monitor.inWindow
}

// Evaluate recomputes the shadow state at now.
func (monitor *Monitor) Evaluate(now time.Time, config model.CurfewConfig) Result {
	inWindow := InWindow(now, config)
	result := Result{
		InWindow: inWindow,
		Entered:  inWindow && !monitor.inWindow,
		Exited:   !inWindow && monitor.inWindow,
	}
	monitor.inWindow = inWindow

	if !config.Enabled {
		monitor.lastWarning = 0
		return result
	}

	switch until := MinutesUntil(now, config); {
	case until == 0 || until > WarningFiveMinutes:
		monitor.lastWarning = 0
	case until > WarningOneMinute:
		if monitor.lastWarning == 0 {
			monitor.lastWarning = WarningFiveMinutes
			result.Warning = WarningFiveMinutes
		}
	default:
		if monitor.lastWarning != WarningOneMinute {
			monitor.lastWarning = WarningOneMinute
			result.Warning = WarningOneMinute
		}
	}
	return result
}

// InWindow reports whether now falls inside the curfew window. Limits at
// 21:00 or later run to midnight; limits at 00:xx or 01:xx cover 21:00
// through the limit on the next day.
func InWindow(now time.Time, config model.CurfewConfig) bool {
	if !config.Enabled {
		return false
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	limit := limitMinutes(config)
	if config.Hour >= 21 {
		return nowMinutes >= limit
	}
	return nowMinutes <= limit || nowMinutes >= windowOpensAt
}

// MinutesUntil returns whole minutes from now to the next occurrence of the
// limit, in [0, 1440).
func MinutesUntil(now time.Time, config model.CurfewConfig) int {
	nowMinutes := now.Hour()*60 + now.Minute()
	return (limitMinutes(config) - nowMinutes + minutesPerDay) % minutesPerDay
}

func limitMinutes(config model.CurfewConfig) int {
	return config.Hour*60 + config.Minute
}
