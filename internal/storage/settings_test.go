package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/core/model"
)

func customSettings() model.Settings {
	settings := model.DefaultSettings()
	settings.WorkDuration = 50 * time.Minute
	settings.ShortBreakDuration = 10 * time.Minute
	settings.LongBreakDuration = 20 * time.Minute
	settings.LongBreakEvery = 4
	settings.AccumulateBreakTime = true
	settings.Idle = model.IdleConfig{Trigger: model.Trigger{Enabled: true, Restart: false}, Threshold: 5 * time.Minute}
	settings.ScreenLock = model.Trigger{Enabled: true, Restart: false}
	settings.Screensaver = model.Trigger{Enabled: false, Restart: true}
	settings.Curfew = model.CurfewConfig{Enabled: true, Hour: 0, Minute: 30}
	return settings
}

func TestStore_MissingFileYieldsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)

	_, err = store.Read()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"settings.yaml", "settings.toml"} {
		t.Run(name, func(t *testing.T) {
			store := NewStore(filepath.Join(t.TempDir(), "nested", name))
			require.NoError(t, store.Save(customSettings()))

			loaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, customSettings(), loaded)
		})
	}
}

func TestStore_PartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
work_minutes: 45
screen_lock:
  enabled: true
curfew:
  enabled: true
  hour: 22
`), 0o644))

	settings, err := NewStore(path).Load()
	require.NoError(t, err)

	want := model.DefaultSettings()
	want.WorkDuration = 45 * time.Minute
	want.ScreenLock.Enabled = true
	want.Curfew.Enabled = true
	want.Curfew.Hour = 22
	assert.Equal(t, want, settings)
}

func TestStore_PartialTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
long_break_every = 3

[idle]
enabled = true
restart = false
threshold_minutes = 2
`), 0o644))

	settings, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, settings.LongBreakEvery)
	assert.True(t, settings.Idle.Enabled)
	assert.False(t, settings.Idle.Restart)
	assert.Equal(t, 2*time.Minute, settings.Idle.Threshold)
	assert.True(t, settings.ScreenLock.Restart)
}

func TestStore_InvalidFieldsFallBackIndividually(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
work_minutes: 0
short_break_minutes: 7
curfew:
  hour: 19
  minute: 30
`), 0o644))
	store := NewStore(path)

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, settings.WorkDuration)
	assert.Equal(t, 7*time.Minute, settings.ShortBreakDuration)
	assert.Equal(t, 23, settings.Curfew.Hour)
	assert.Equal(t, 30, settings.Curfew.Minute)

	raw, err := store.Read()
	require.NoError(t, err)
	err = raw.Validate()
	assert.ErrorIs(t, err, model.ErrInvalidSettings)
	assert.ErrorContains(t, err, "work duration")
	assert.ErrorContains(t, err, "curfew hour")
}

func TestStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_minutes: [oops"), 0o644))

	settings, err := NewStore(path).Load()
	require.Error(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store := NewStore(path)
	require.NoError(t, store.Save(model.DefaultSettings()))

	var (
		mu      sync.Mutex
		reloads []model.Settings
	)
	watcher, err := NewWatcher(store, 20*time.Millisecond, func(settings model.Settings) {
		mu.Lock()
		reloads = append(reloads, settings)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	require.NoError(t, store.Save(customSettings()))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloads) > 0 && reloads[len(reloads)-1] == customSettings()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "settings.yaml"))

	var (
		mu    sync.Mutex
		count int
	)
	watcher, err := NewWatcher(store, 10*time.Millisecond, func(model.Settings) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}
