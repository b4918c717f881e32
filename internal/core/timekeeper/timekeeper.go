package timekeeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"pomodoro/internal/clock"
	"pomodoro/internal/core/curfew"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/transition"
)

// UnlockDebounceWindow is how long after a handled screensaver stop an unlock
// is treated as its duplicate.
const UnlockDebounceWindow = time.Second

const tracerName = "pomodoro/timekeeper"

// Config contains runtime options for TimeKeeper.
type Config struct {
	// TickInterval is the period of the countdown ticker in Run. Every tick
	// counts as one elapsed second.
	TickInterval   time.Duration
	CurfewInterval time.Duration

	Clock    clock.Clock
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Listener Listener
}

// TimeKeeper owns the session state, the countdown and the cycle bookkeeping.
// Every operation is serialized behind one mutex.
type TimeKeeper struct {
	mu       sync.Mutex
	settings model.Settings
	config   Config
	logger   *slog.Logger

	state       transition.State
	cycle       transition.CycleKind
	cycleID     string
	remaining   time.Duration
	total       time.Duration
	completed   int
	accumulated time.Duration

	monitor               *curfew.Monitor
	lastScreensaverResume time.Time
	idleBaseline          time.Time
	// finishNotice is set while the pre-finish notice of a work countdown is up.
	finishNotice bool

	events  []chan Event
	pending []Event

	// deliverMu keeps notifications in dispatch order across goroutines.
	deliverMu sync.Mutex
}

// New creates an idle TimeKeeper holding a fresh work countdown.
func New(settings model.Settings, config Config) *TimeKeeper {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.CurfewInterval <= 0 {
		config.CurfewInterval = time.Minute
	}
	if config.Clock == nil {
		config.Clock = clock.System()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(tracerName)
	}

	keeper := &TimeKeeper{
		settings:     settings.Normalized(),
		config:       config,
		logger:       config.Logger.With("component", "timekeeper"),
		state:        transition.StateIdle,
		monitor:      curfew.New(),
		idleBaseline: config.Clock.Now(),
	}
	keeper.resetCountdownLocked(transition.CycleWork)
	return keeper
}

// Subscribe registers a new observer channel. Sends never block; a full
// channel drops events.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Close closes every observer channel.
func (keeper *TimeKeeper) Close() {
	keeper.mu.Lock()
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	keeper.deliverMu.Lock()
	defer keeper.deliverMu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

// Run drives the countdown ticker and the curfew poll until ctx ends.
func (keeper *TimeKeeper) Run(ctx context.Context) {
	ticker := time.NewTicker(keeper.config.TickInterval)
	defer ticker.Stop()
	curfewTicker := time.NewTicker(keeper.config.CurfewInterval)
	defer curfewTicker.Stop()

	keeper.EvaluateCurfew()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			keeper.Tick()
		case <-curfewTicker.C:
			keeper.EvaluateCurfew()
		}
	}
}

// Dispatch feeds one event through the transition table and applies the
// resulting action.
func (keeper *TimeKeeper) Dispatch(event transition.Event) transition.Action {
	var action transition.Action
	keeper.update(func() {
		action = keeper.dispatchLocked(event)
	})
	return action
}

// Tick accounts for one elapsed second while a countdown is running.
func (keeper *TimeKeeper) Tick() {
	keeper.update(func() {
		if !keeper.state.IsRunning() {
			return
		}
		keeper.remaining -= time.Second
		if keeper.remaining > 0 {
			keeper.emitLocked(Event{Type: EventTimeUpdate})
			keeper.finishNoticeLocked()
			return
		}
		keeper.remaining = 0
		keeper.emitLocked(Event{Type: EventTimeUpdate})
		keeper.finishLocked()
	})
}

// Start begins the countdown from Idle. A spent countdown is re-armed first.
func (keeper *TimeKeeper) Start() {
	keeper.update(func() {
		if keeper.state != transition.StateIdle {
			return
		}
		if keeper.remaining <= 0 {
			keeper.resetCountdownLocked(keeper.cycle)
			keeper.emitLocked(Event{Type: EventTimeUpdate})
		}
		keeper.dispatchLocked(transition.EventTimerStarted)
	})
}

// Pause holds a running countdown on behalf of the user.
func (keeper *TimeKeeper) Pause() {
	keeper.update(func() {
		if keeper.state.IsRunning() {
			keeper.dispatchLocked(transition.EventTimerPaused)
		}
	})
}

// Resume continues any paused countdown. A countdown with nothing left
// completes instead of resuming.
func (keeper *TimeKeeper) Resume() {
	keeper.update(func() {
		if !keeper.state.IsPaused() {
			return
		}
		if keeper.remaining <= 0 {
			keeper.finishLocked()
			return
		}
		keeper.dispatchLocked(transition.EventTimerStarted)
	})
}

// Stop halts the countdown and returns to Idle. A work countdown keeps its
// remaining time, so Start continues where Stop left off; a break ends as
// interrupted and the work countdown is re-armed.
func (keeper *TimeKeeper) Stop() {
	keeper.Dispatch(transition.EventTimerStopped)
}

// Reset stops the countdown and re-arms a full work countdown. Settings and
// cycle bookkeeping are untouched.
func (keeper *TimeKeeper) Reset() {
	keeper.update(func() {
		keeper.dispatchLocked(transition.EventTimerStopped)
		keeper.resetCountdownLocked(transition.CycleWork)
		keeper.emitLocked(Event{Type: EventTimeUpdate})
	})
}

// StartBreak begins a short or long break. It does nothing while a break is
// already underway or during forced sleep.
func (keeper *TimeKeeper) StartBreak() {
	keeper.update(func() {
		if keeper.state == transition.StateForcedSleep || keeper.state.IsResting() {
			return
		}

		kind := keeper.nextBreakLocked()
		keeper.resetCountdownLocked(kind)
		if kind == transition.CycleLongBreak && keeper.settings.AccumulateBreakTime {
			keeper.total += keeper.accumulated
			keeper.remaining = keeper.total
			keeper.accumulated = 0
		}
		keeper.emitLocked(Event{Type: EventTimeUpdate})
		keeper.dispatchLocked(transition.EventRestStarted)
	})
}

// CancelBreak ends a pending or running break early and starts the next
// work countdown. source only labels the outcome event.
func (keeper *TimeKeeper) CancelBreak(source string) {
	keeper.update(func() {
		if keeper.state == transition.StateForcedSleep {
			return
		}
		switch {
		case keeper.state == transition.StateRestPending:
			kind := keeper.nextBreakLocked()
			keeper.emitLocked(Event{
				Type:    EventBreakEnded,
				Break:   kind,
				Planned: durationFor(keeper.settings, kind),
				Outcome: OutcomeSkipped,
				Source:  source,
			})
		case keeper.state.IsResting():
			keeper.endBreakLocked(OutcomeCancelled, source)
		default:
			return
		}
		keeper.dispatchLocked(transition.EventRestCancelled)
		if keeper.state == transition.StateIdle {
			keeper.dispatchLocked(transition.EventTimerStarted)
		}
	})
}

// SkipBreak cancels the break on behalf of the user.
func (keeper *TimeKeeper) SkipBreak() {
	keeper.CancelBreak("user")
}

// ApplySettings replaces the settings snapshot. A fully stopped countdown
// picks up a changed duration; a running or resumable one keeps its time.
func (keeper *TimeKeeper) ApplySettings(settings model.Settings) {
	keeper.update(func() {
		settings = settings.Normalized()
		previous := keeper.settings
		keeper.settings = settings
		now := keeper.config.Clock.Now()

		if settings.Idle.Enabled && !previous.Idle.Enabled {
			keeper.idleBaseline = now
		}

		resumable := keeper.remaining > 0 && keeper.remaining < keeper.total
		if keeper.state == transition.StateIdle && !resumable &&
			durationFor(previous, keeper.cycle) != durationFor(settings, keeper.cycle) {
			keeper.resetCountdownLocked(keeper.cycle)
			keeper.emitLocked(Event{Type: EventTimeUpdate})
		}

		keeper.logger.Info("settings applied",
			"work", settings.WorkDuration,
			"idle", settings.Idle.Enabled,
			"curfew", settings.Curfew.Enabled)
		keeper.evaluateCurfewLocked(now)
	})
}

// EvaluateCurfew checks the curfew window at the current time.
func (keeper *TimeKeeper) EvaluateCurfew() {
	keeper.update(func() {
		keeper.evaluateCurfewLocked(keeper.config.Clock.Now())
	})
}

// ReportIdle feeds one idle-time sample. Only running work can be paused by
// inactivity and only an idle pause is lifted by activity.
func (keeper *TimeKeeper) ReportIdle(idle time.Duration) {
	keeper.update(func() {
		if !keeper.settings.Idle.Enabled || keeper.state == transition.StateForcedSleep {
			return
		}
		if since := keeper.config.Clock.Now().Sub(keeper.idleBaseline); since < idle {
			idle = since
		}

		if idle > keeper.settings.Idle.Threshold {
			if keeper.state == transition.StateWorkRunning {
				keeper.dispatchLocked(transition.EventIdleTimeExceeded)
			}
			return
		}
		if keeper.state == transition.StateWorkPausedByIdle {
			keeper.dispatchLocked(transition.EventUserActivityDetected)
		}
	})
}

// IdleMonitoringActive reports whether idle samples are currently wanted.
func (keeper *TimeKeeper) IdleMonitoringActive() bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.settings.Idle.Enabled && keeper.state != transition.StateForcedSleep
}

// State returns the current session state.
func (keeper *TimeKeeper) State() transition.State {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.state
}

// Settings returns the active settings snapshot.
func (keeper *TimeKeeper) Settings() model.Settings {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.settings
}

// Snapshot returns a consistent copy of the countdown and bookkeeping.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return Snapshot{
		State:               keeper.state,
		Cycle:               keeper.cycle,
		CycleID:             keeper.cycleID,
		Remaining:           keeper.remaining,
		Total:               keeper.total,
		CompletedWorkCycles: keeper.completed,
		AccumulatedBreak:    keeper.accumulated,
		InCurfew:            keeper.monitor.InWindow(),
	}
}

// update runs fn under the state lock, then delivers what fn emitted.
func (keeper *TimeKeeper) update(fn func()) {
	keeper.mu.Lock()
	fn()
	pending := keeper.pending
	keeper.pending = nil
	subscribers := append([]chan Event(nil), keeper.events...)
	keeper.deliverMu.Lock()
	keeper.mu.Unlock()
	defer keeper.deliverMu.Unlock()

	for _, event := range pending {
		keeper.deliver(event, subscribers)
	}
}

func (keeper *TimeKeeper) deliver(event Event, subscribers []chan Event) {
	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
		}
	}

	listener := keeper.config.Listener
	if listener == nil {
		return
	}
	switch event.Type {
	case EventTimeUpdate:
		listener.OnTimeUpdate(event.Remaining)
	case EventFinished:
		listener.OnFinished()
	case EventForcedSleep:
		listener.OnForcedSleepChanged(event.Entering)
	case EventCountdownWarning:
		listener.OnCountdownWarning(event.Minutes)
	case EventFinishWarning, EventFinishCountdown:
		listener.OnFinishCountdown(event.Seconds)
	case EventFinishHidden:
		listener.OnFinishCountdown(0)
	}
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	event.State = keeper.state
	event.Cycle = keeper.cycle
	event.CycleID = keeper.cycleID
	event.Remaining = keeper.remaining
	event.Total = keeper.total
	event.Progress = keeper.progressLocked()
	event.At = keeper.config.Clock.Now()
	keeper.pending = append(keeper.pending, event)
}

// nextBreakLocked picks the kind of break StartBreak would begin now.
func (keeper *TimeKeeper) nextBreakLocked() transition.CycleKind {
	if keeper.completed > 0 && keeper.completed%keeper.settings.LongBreakEvery == 0 {
		return transition.CycleLongBreak
	}
	return transition.CycleShortBreak
}

func (keeper *TimeKeeper) resetCountdownLocked(kind transition.CycleKind) {
	keeper.cycle = kind
	keeper.total = durationFor(keeper.settings, kind)
	keeper.remaining = keeper.total
	keeper.cycleID = uuid.NewString()
}

func (keeper *TimeKeeper) progressLocked() float64 {
	if keeper.total <= 0 {
		return 1
	}
	progress := float64(keeper.total-keeper.remaining) / float64(keeper.total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func durationFor(settings model.Settings, kind transition.CycleKind) time.Duration {
	switch kind {
	case transition.CycleShortBreak:
		return settings.ShortBreakDuration
	case transition.CycleLongBreak:
		return settings.LongBreakDuration
	}
	return settings.WorkDuration
}
