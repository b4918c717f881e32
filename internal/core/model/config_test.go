package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	settings := DefaultSettings()

	require.NoError(t, settings.Validate())
	assert.Equal(t, 25*time.Minute, settings.WorkDuration)
	assert.Equal(t, 3*time.Minute, settings.ShortBreakDuration)
	assert.Equal(t, 5*time.Minute, settings.LongBreakDuration)
	assert.Equal(t, 2, settings.LongBreakEvery)
	assert.False(t, settings.Curfew.Enabled)
	assert.True(t, settings.Idle.Restart)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	settings := DefaultSettings()
	settings.WorkDuration = 0
	settings.LongBreakEvery = 0
	settings.Curfew.Hour = 12
	settings.Curfew.Minute = 10

	err := settings.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Contains(t, err.Error(), "work duration")
	assert.Contains(t, err.Error(), "long break cadence")
	assert.Contains(t, err.Error(), "curfew hour")
	assert.Contains(t, err.Error(), "curfew minute")
}

func TestNormalizedFallsBackToDefaults(t *testing.T) {
	settings := Settings{
		WorkDuration:   -time.Second,
		LongBreakEvery: -3,
		Curfew:         CurfewConfig{Enabled: true, Hour: 5, Minute: 45},
	}

	normalized := settings.Normalized()

	require.NoError(t, normalized.Validate())
	assert.Equal(t, 25*time.Minute, normalized.WorkDuration)
	assert.Equal(t, 2, normalized.LongBreakEvery)
	assert.Equal(t, 23, normalized.Curfew.Hour)
	assert.Equal(t, 45, normalized.Curfew.Minute)
	assert.True(t, normalized.Curfew.Enabled)
}

func TestCurfewChoices(t *testing.T) {
	for _, hour := range []int{21, 22, 23, 0, 1} {
		assert.True(t, ValidCurfewHour(hour), "hour %d", hour)
	}
	for _, hour := range []int{2, 12, 20, 24, -1} {
		assert.False(t, ValidCurfewHour(hour), "hour %d", hour)
	}
	for _, minute := range []int{0, 15, 30, 45} {
		assert.True(t, ValidCurfewMinute(minute), "minute %d", minute)
	}
	assert.False(t, ValidCurfewMinute(20))
}
