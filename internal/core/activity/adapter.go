// Package activity turns OS idle time and lock/screensaver signals into
// scheduler events.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pomodoro/internal/core/transition"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// ErrSignalsUnsupported indicates the desktop exposes no lock or screensaver signals.
var ErrSignalsUnsupported = errors.New("lock and screensaver signals unsupported")

// DefaultPollInterval is how often idle time is sampled.
const DefaultPollInterval = 30 * time.Second

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Signal is a discrete OS notification without payload.
type Signal string

const (
	SignalScreenLocked       Signal = "screen_locked"
	SignalScreenUnlocked     Signal = "screen_unlocked"
	SignalScreensaverStarted Signal = "screensaver_started"
	SignalScreensaverStopped Signal = "screensaver_stopped"
)

// Event maps a signal to its engine event.
func (signal Signal) Event() (transition.Event, bool) {
	switch signal {
	case SignalScreenLocked:
		return transition.EventScreenLocked, true
	case SignalScreenUnlocked:
		return transition.EventScreenUnlocked, true
	case SignalScreensaverStarted:
		return transition.EventScreensaverStarted, true
	case SignalScreensaverStopped:
		return transition.EventScreensaverStopped, true
	}
	return "", false
}

// Target is the serialized entry point the adapter delivers to.
type Target interface {
	IdleMonitoringActive() bool
	ReportIdle(idle time.Duration)
	Dispatch(event transition.Event) transition.Action
}

// Config contains runtime options for Adapter.
type Config struct {
	PollInterval time.Duration
}

// Adapter polls idle time and forwards OS signals.
type Adapter struct {
	target  Target
	checker IdleChecker
	config  Config
	logger  *slog.Logger

	mu       sync.Mutex
	disabled bool
}

// New creates an adapter. A nil checker disables idle polling.
func New(target Target, checker IdleChecker, config Config, logger *slog.Logger) *Adapter {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		target:   target,
		checker:  checker,
		config:   config,
		logger:   logger.With("component", "activity"),
		disabled: checker == nil,
	}
}

// Poll samples idle time once and reports it to the target.
func (adapter *Adapter) Poll() {
	adapter.mu.Lock()
	disabled := adapter.disabled
	adapter.mu.Unlock()
	if disabled || !adapter.target.IdleMonitoringActive() {
		return
	}

	idle, err := adapter.checker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			adapter.mu.Lock()
			adapter.disabled = true
			adapter.mu.Unlock()
			adapter.logger.Warn("idle detection disabled", "error", err)
			return
		}
		adapter.logger.Error("read idle time", "error", err)
		return
	}
	adapter.target.ReportIdle(idle)
}

// Handle forwards one OS signal as its engine event.
func (adapter *Adapter) Handle(signal Signal) {
	event, ok := signal.Event()
	if !ok {
		adapter.logger.Warn("unknown signal", "signal", string(signal))
		return
	}
	action := adapter.target.Dispatch(event)
	adapter.logger.Debug("signal", "signal", string(signal), "action", string(action))
}

// IdlePollingEnabled reports whether polling is still active.
func (adapter *Adapter) IdlePollingEnabled() bool {
	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	return !adapter.disabled
}

// Run polls on the configured interval and forwards signals until ctx ends.
// Once the signal channel closes, or when it is nil, Run only polls.
func (adapter *Adapter) Run(ctx context.Context, signals <-chan Signal) {
	ticker := time.NewTicker(adapter.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			adapter.Poll()
		case signal, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			adapter.Handle(signal)
		}
	}
}
