package curfew

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/core/model"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 10, hour, minute, 0, 0, time.Local)
}

func config(hour, minute int) model.CurfewConfig {
	return model.CurfewConfig{Enabled: true, Hour: hour, Minute: minute}
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		config model.CurfewConfig
		want   bool
	}{
		{"before same-day limit", at(22, 59), config(23, 0), false},
		{"at same-day limit", at(23, 0), config(23, 0), true},
		{"after same-day limit", at(23, 45), config(23, 0), true},
		{"after midnight with same-day limit", at(0, 30), config(23, 0), false},
		{"morning with same-day limit", at(7, 0), config(21, 30), false},
		{"before 21:00 with early limit", at(20, 59), config(0, 30), false},
		{"21:00 with early limit", at(21, 0), config(0, 30), true},
		{"midnight with early limit", at(0, 0), config(0, 30), true},
		{"at early limit", at(0, 30), config(0, 30), true},
		{"after early limit", at(0, 31), config(0, 30), false},
		{"before 01:45 limit", at(1, 44), config(1, 45), true},
		{"midday", at(12, 0), config(1, 45), false},
		{"disabled", at(23, 30), model.CurfewConfig{Hour: 23}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.now, tt.config))
		})
	}
}

func TestMinutesUntilWrapsAroundMidnight(t *testing.T) {
	assert.Equal(t, 5, MinutesUntil(at(23, 58), config(0, 3)))
	assert.Equal(t, 1, MinutesUntil(at(22, 59), config(23, 0)))
	assert.Equal(t, 0, MinutesUntil(at(23, 0), config(23, 0)))
	assert.Equal(t, 1439, MinutesUntil(at(23, 1), config(23, 0)))
}

func TestEvaluate_EdgesAreTriggeredOnce(t *testing.T) {
	monitor := New()
	cfg := config(23, 0)

	result := monitor.Evaluate(at(22, 30), cfg)
	assert.False(t, result.Entered)
	assert.False(t, monitor.InWindow())

	result = monitor.Evaluate(at(23, 0), cfg)
	assert.True(t, result.Entered)
	assert.True(t, monitor.InWindow())

	result = monitor.Evaluate(at(23, 1), cfg)
	assert.False(t, result.Entered, "level must not re-trigger")
	assert.True(t, result.InWindow)

	result = monitor.Evaluate(at(0, 0).Add(24*time.Hour), cfg)
	assert.True(t, result.Exited)
	assert.False(t, monitor.InWindow())

	result = monitor.Evaluate(at(0, 1).Add(24*time.Hour), cfg)
	assert.False(t, result.Exited)
}

func TestEvaluate_DisablingClosesTheWindow(t *testing.T) {
	monitor := New()
	cfg := config(22, 0)

	require.True(t, monitor.Evaluate(at(22, 10), cfg).Entered)

	cfg.Enabled = false
	result := monitor.Evaluate(at(22, 11), cfg)
	assert.True(t, result.Exited)
	assert.Zero(t, result.Warning)
}

func TestEvaluate_WarningsFireOncePerApproach(t *testing.T) {
	monitor := New()
	cfg := config(23, 0)

	warnings := map[string]int{}
	for minute := 50; minute < 60; minute++ {
		now := at(22, minute)
		// Evaluate twice per minute to simulate a drifting cadence.
		for range 2 {
			if warning := monitor.Evaluate(now, cfg).Warning; warning != 0 {
				warnings[now.Format("15:04")] += warning
			}
			now = now.Add(30 * time.Second)
		}
	}

	assert.Equal(t, map[string]int{"22:55": 5, "22:59": 1}, warnings)

	// The next evening warns again.
	monitor.Evaluate(at(12, 0), cfg)
	assert.Equal(t, WarningFiveMinutes, monitor.Evaluate(at(22, 55), cfg).Warning)
}

func TestEvaluate_SkippedFiveMinuteMarkStillWarnsOnce(t *testing.T) {
	monitor := New()
	cfg := config(23, 0)

	assert.Equal(t, WarningFiveMinutes, monitor.Evaluate(at(22, 57), cfg).Warning)
	assert.Zero(t, monitor.Evaluate(at(22, 58), cfg).Warning)
	assert.Equal(t, WarningOneMinute, monitor.Evaluate(at(22, 59), cfg).Warning)
	assert.Zero(t, monitor.Evaluate(at(22, 59), cfg).Warning)
}

func TestEvaluate_WarningAcrossMidnight(t *testing.T) {
	monitor := New()
	cfg := config(0, 3)

	assert.Equal(t, WarningFiveMinutes, monitor.Evaluate(at(23, 58), cfg).Warning)
	assert.Equal(t, WarningOneMinute, monitor.Evaluate(at(0, 2).Add(24*time.Hour), cfg).Warning)
}
