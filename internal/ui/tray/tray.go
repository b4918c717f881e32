package tray

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/core/transition"
)

const menuTitle = "Pomodoro"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnStart       func()
	OnTogglePause func()
	OnStop        func()
	OnReset       func()
	OnStartBreak  func()
	OnSkipBreak   func()
	OnQuit        func()
}

// MenuHost is the part of desktop.App the tray needs.
type MenuHost interface {
	SetSystemTrayMenu(menu *fyne.Menu)
	SetSystemTrayIcon(icon fyne.Resource)
}

// Manager keeps the tray menu in step with the session.
type Manager struct {
	host      MenuHost
	callbacks Callbacks

	statusItem *fyne.MenuItem
	startItem  *fyne.MenuItem
	pauseItem  *fyne.MenuItem
	stopItem   *fyne.MenuItem
	resetItem  *fyne.MenuItem
	breakItem  *fyne.MenuItem
	skipItem   *fyne.MenuItem
	quitItem   *fyne.MenuItem

	paused      bool
	running     bool
	inBreak     bool
	forcedSleep bool
	statusLabel string
	finishIn    int
}

// New creates a tray manager with the provided callbacks.
func New(host MenuHost, callbacks Callbacks) *Manager {
	manager := &Manager{
		host:      host,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true
	manager.startItem = fyne.NewMenuItem("Start", invoke(&manager.callbacks.OnStart))
	manager.pauseItem = fyne.NewMenuItem("Pause", invoke(&manager.callbacks.OnTogglePause))
	manager.stopItem = fyne.NewMenuItem("Stop", invoke(&manager.callbacks.OnStop))
	manager.resetItem = fyne.NewMenuItem("Reset", invoke(&manager.callbacks.OnReset))
	manager.breakItem = fyne.NewMenuItem("Take a break now", invoke(&manager.callbacks.OnStartBreak))
	manager.skipItem = fyne.NewMenuItem("Skip break", invoke(&manager.callbacks.OnSkipBreak))
	manager.quitItem = fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit))

	manager.refreshItems()
	manager.refreshStatus()
	return manager
}

// Apply updates the menu from a session snapshot.
func (manager *Manager) Apply(snapshot timekeeper.Snapshot) {
	manager.running = snapshot.State.IsRunning()
	manager.paused = snapshot.State.IsPaused()
	manager.inBreak = snapshot.State.IsResting() || snapshot.State == transition.StateRestPending
	manager.forcedSleep = snapshot.State == transition.StateForcedSleep
	if snapshot.State != transition.StateWorkRunning {
		manager.finishIn = 0
	}
	manager.statusLabel = StatusText(snapshot)
	manager.refreshItems()
	manager.refreshStatus()
}

// SetFinishCountdown shows the seconds left before work ends next to the
// status. Zero hides it.
func (manager *Manager) SetFinishCountdown(seconds int) {
	manager.finishIn = max(seconds, 0)
	manager.refreshStatus()
}

// Menu returns the menu currently installed.
func (manager *Manager) Menu() *fyne.Menu {
	return fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.startItem,
		manager.pauseItem,
		manager.stopItem,
		manager.resetItem,
		fyne.NewMenuItemSeparator(),
		manager.breakItem,
		manager.skipItem,
		fyne.NewMenuItemSeparator(),
		manager.quitItem,
	)
}

func (manager *Manager) refreshItems() {
	if manager.paused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}

	manager.startItem.Disabled = manager.forcedSleep || manager.running || manager.paused
	manager.pauseItem.Disabled = manager.forcedSleep || !(manager.running || manager.paused)
	manager.stopItem.Disabled = manager.forcedSleep
	manager.resetItem.Disabled = manager.forcedSleep
	manager.breakItem.Disabled = manager.forcedSleep || manager.inBreak
	manager.skipItem.Disabled = manager.forcedSleep || !manager.inBreak
}

func (manager *Manager) refreshStatus() {
	status := manager.statusLabel
	if status == "" {
		status = "starting..."
	}
	if manager.paused {
		status = fmt.Sprintf("%s (paused)", status)
	}
	if manager.finishIn > 0 {
		status = fmt.Sprintf("%s, break in %ds", status, manager.finishIn)
	}
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.host == nil {
		return
	}
	manager.host.SetSystemTrayMenu(manager.Menu())
	manager.host.SetSystemTrayIcon(manager.icon())
}

func (manager *Manager) icon() fyne.Resource {
	switch {
	case manager.forcedSleep:
		return theme.VisibilityOffIcon()
	case manager.paused:
		return theme.MediaPauseIcon()
	case manager.inBreak:
		return theme.MediaReplayIcon()
	case manager.running:
		return theme.MediaPlayIcon()
	}
	return theme.MediaStopIcon()
}

// StatusText renders a snapshot for the status line.
func StatusText(snapshot timekeeper.Snapshot) string {
	switch snapshot.State {
	case transition.StateForcedSleep:
		return "bedtime"
	case transition.StateRestPending:
		return "break due"
	}
	kind := "work"
	switch snapshot.Cycle {
	case transition.CycleShortBreak:
		kind = "short break"
	case transition.CycleLongBreak:
		kind = "long break"
	}
	status := fmt.Sprintf("%s %s", kind, formatRemaining(snapshot.Remaining))
	if snapshot.State == transition.StateIdle {
		status = fmt.Sprintf("ready, %s", status)
	}
	return status
}

func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// invoke reads the callback at click time so callers may set it later.
func invoke(callback *func()) func() {
	return func() {
		if *callback != nil {
			(*callback)()
		}
	}
}
