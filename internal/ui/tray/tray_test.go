package tray

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/core/transition"
)

type fakeHost struct {
	menus []*fyne.Menu
	icons []fyne.Resource
}

func (host *fakeHost) SetSystemTrayMenu(menu *fyne.Menu) {
	host.menus = append(host.menus, menu)
}

func (host *fakeHost) SetSystemTrayIcon(icon fyne.Resource) {
	host.icons = append(host.icons, icon)
}

func newHost(t *testing.T) *fakeHost {
	t.Helper()
	test.NewTempApp(t)
	return &fakeHost{}
}

func (host *fakeHost) item(t *testing.T, label string) *fyne.MenuItem {
	t.Helper()
	require.NotEmpty(t, host.menus)
	for _, item := range host.menus[len(host.menus)-1].Items {
		if item.Label == label {
			return item
		}
	}
	t.Fatalf("menu item %q not found", label)
	return nil
}

func TestManager_CallbacksFire(t *testing.T) {
	host := newHost(t)
	var calls []string
	record := func(name string) func() {
		return func() { calls = append(calls, name) }
	}
	New(host, Callbacks{
		OnStart:      record("start"),
		OnStop:       record("stop"),
		OnReset:      record("reset"),
		OnStartBreak: record("break"),
		OnQuit:       record("quit"),
	})

	host.item(t, "Start").Action()
	host.item(t, "Stop").Action()
	host.item(t, "Reset").Action()
	host.item(t, "Take a break now").Action()
	host.item(t, "Quit").Action()
	host.item(t, "Skip break").Action()

	assert.Equal(t, []string{"start", "stop", "reset", "break", "quit"}, calls)
}

func TestManager_ApplyRunningWork(t *testing.T) {
	host := newHost(t)
	manager := New(host, Callbacks{})

	manager.Apply(timekeeper.Snapshot{
		State:     transition.StateWorkRunning,
		Cycle:     transition.CycleWork,
		Remaining: 24*time.Minute + 5*time.Second,
	})

	assert.Equal(t, "Status: work 24:05", host.item(t, "Status: work 24:05").Label)
	assert.True(t, host.item(t, "Start").Disabled)
	assert.False(t, host.item(t, "Pause").Disabled)
	assert.True(t, host.item(t, "Skip break").Disabled)
	assert.False(t, host.item(t, "Take a break now").Disabled)
}

func TestManager_ApplyPausedShowsResume(t *testing.T) {
	host := newHost(t)
	manager := New(host, Callbacks{})

	manager.Apply(timekeeper.Snapshot{
		State:     transition.StateWorkPausedBySystem,
		Cycle:     transition.CycleWork,
		Remaining: time.Minute,
	})

	assert.False(t, host.item(t, "Resume").Disabled)
	host.item(t, "Status: work 01:00 (paused)")
}

func TestManager_ApplyBreakEnablesSkip(t *testing.T) {
	host := newHost(t)
	manager := New(host, Callbacks{})

	manager.Apply(timekeeper.Snapshot{State: transition.StateRestPending, Cycle: transition.CycleWork})
	assert.False(t, host.item(t, "Skip break").Disabled)
	assert.True(t, host.item(t, "Take a break now").Disabled)
	host.item(t, "Status: break due")
}

func TestManager_ForcedSleepDisablesCommands(t *testing.T) {
	host := newHost(t)
	manager := New(host, Callbacks{})

	manager.Apply(timekeeper.Snapshot{State: transition.StateForcedSleep})
	for _, label := range []string{"Start", "Pause", "Stop", "Reset", "Take a break now", "Skip break"} {
		assert.True(t, host.item(t, label).Disabled, label)
	}
	assert.False(t, host.item(t, "Quit").Disabled)
	host.item(t, "Status: bedtime")
}

func TestManager_FinishCountdownFollowsSession(t *testing.T) {
	host := newHost(t)
	manager := New(host, Callbacks{})
	running := timekeeper.Snapshot{
		State:     transition.StateWorkRunning,
		Cycle:     transition.CycleWork,
		Remaining: 7 * time.Second,
	}

	manager.Apply(running)
	manager.SetFinishCountdown(7)
	host.item(t, "Status: work 00:07, break in 7s")

	running.Remaining = 6 * time.Second
	manager.Apply(running)
	host.item(t, "Status: work 00:06, break in 7s")

	manager.SetFinishCountdown(0)
	host.item(t, "Status: work 00:06")

	manager.SetFinishCountdown(3)
	manager.Apply(timekeeper.Snapshot{State: transition.StateWorkPausedByUser, Cycle: transition.CycleWork, Remaining: 3 * time.Second})
	host.item(t, "Status: work 00:03 (paused)")
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name     string
		snapshot timekeeper.Snapshot
		want     string
	}{
		{"idle", timekeeper.Snapshot{State: transition.StateIdle, Cycle: transition.CycleWork, Remaining: 25 * time.Minute}, "ready, work 25:00"},
		{"short break", timekeeper.Snapshot{State: transition.StateRestRunning, Cycle: transition.CycleShortBreak, Remaining: 90 * time.Second}, "short break 01:30"},
		{"long break", timekeeper.Snapshot{State: transition.StateRestRunning, Cycle: transition.CycleLongBreak, Remaining: 5 * time.Minute}, "long break 05:00"},
		{"forced sleep", timekeeper.Snapshot{State: transition.StateForcedSleep}, "bedtime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusText(tt.snapshot))
		})
	}
}
