package timekeeper

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pomodoro/internal/core/transition"
)

func (keeper *TimeKeeper) dispatchLocked(event transition.Event) transition.Action {
	now := keeper.config.Clock.Now()
	from := keeper.state
	next, action := transition.Compute(from, event, transition.Input{
		Settings:         keeper.settings,
		Cycle:            keeper.cycle,
		InCurfew:         keeper.monitor.InWindow(),
		UnlockSuppressed: event == transition.EventScreenUnlocked && keeper.unlockSuppressedLocked(now),
	})

	_, span := keeper.config.Tracer.Start(context.Background(), "timekeeper.dispatch",
		trace.WithAttributes(
			attribute.String("pomodoro.event", string(event)),
			attribute.String("pomodoro.state.from", string(from)),
			attribute.String("pomodoro.state.to", string(next)),
			attribute.String("pomodoro.action", string(action)),
			attribute.String("pomodoro.cycle", string(keeper.cycle)),
		))
	defer span.End()

	keeper.logger.Debug("dispatch",
		"event", string(event),
		"from", string(from),
		"to", string(next),
		"action", string(action))

	if event == transition.EventScreensaverStopped && keeper.settings.Screensaver.Enabled && tracksScreensaver(from) {
		keeper.lastScreensaverResume = now
	}

	interrupted := from.IsResting() && !next.IsResting() &&
		event != transition.EventRestFinished && event != transition.EventRestCancelled
	if interrupted {
		keeper.endBreakLocked(OutcomeInterrupted, string(event))
	}

	keeper.state = next
	keeper.emitLocked(Event{Type: EventTransition, From: from, Trigger: event, Action: action})
	if next != from {
		keeper.emitLocked(Event{Type: EventStateChange, From: from, Trigger: event})
	}
	if next != transition.StateWorkRunning {
		keeper.hideFinishNoticeLocked()
	}
	if interrupted && next == transition.StateIdle {
		keeper.resetCountdownLocked(transition.CycleWork)
		keeper.emitLocked(Event{Type: EventTimeUpdate})
	}
	keeper.applyLocked(action, from, now)
	return action
}

// tracksScreensaver reports whether a screensaver stop in state arms the
// unlock debounce.
func tracksScreensaver(state transition.State) bool {
	switch state {
	case transition.StateWorkRunning, transition.StateWorkPausedBySystem,
		transition.StateRestRunning, transition.StateRestPausedBySystem:
		return true
	}
	return false
}

func (keeper *TimeKeeper) applyLocked(action transition.Action, from transition.State, now time.Time) {
	switch action {
	case transition.ActionNone:

	case transition.ActionPauseTimer:
		keeper.emitLocked(Event{Type: EventTimeUpdate})

	case transition.ActionResumeTimer:
		if keeper.remaining <= 0 {
			keeper.finishLocked()
			return
		}
		keeper.emitLocked(Event{Type: EventTimeUpdate})

	case transition.ActionRestartTimer:
		keeper.hideFinishNoticeLocked()
		keeper.total = durationFor(keeper.settings, keeper.cycle)
		keeper.remaining = keeper.total
		keeper.emitLocked(Event{Type: EventTimeUpdate})

	case transition.ActionShowRestOverlay:
		keeper.emitLocked(Event{Type: EventFinished})

	case transition.ActionStartNextPomodoro:
		keeper.resetCountdownLocked(transition.CycleWork)
		keeper.emitLocked(Event{Type: EventTimeUpdate})
		if keeper.settings.AutoStartNextWork {
			keeper.dispatchLocked(transition.EventTimerStarted)
		}

	case transition.ActionEnterForcedSleep:
		if from != transition.StateForcedSleep {
			keeper.emitLocked(Event{Type: EventForcedSleep, Entering: true})
		}

	case transition.ActionExitForcedSleep:
		keeper.idleBaseline = now
		keeper.resetCountdownLocked(transition.CycleWork)
		keeper.emitLocked(Event{Type: EventForcedSleep, Entering: false})
		keeper.emitLocked(Event{Type: EventTimeUpdate})
	}
}

// finishLocked completes the current countdown.
func (keeper *TimeKeeper) finishLocked() {
	keeper.remaining = 0
	if keeper.cycle == transition.CycleWork {
		keeper.completed++
		keeper.dispatchLocked(transition.EventPomodoroFinished)
		return
	}
	keeper.endBreakLocked(OutcomeFinished, "")
	keeper.dispatchLocked(transition.EventRestFinished)
}

// endBreakLocked reports the end of the current break. What is left of a
// short break is banked when carry-over is on.
func (keeper *TimeKeeper) endBreakLocked(outcome BreakOutcome, source string) {
	actual := keeper.total - keeper.remaining
	if actual < 0 {
		actual = 0
	}
	keeper.emitLocked(Event{
		Type:    EventBreakEnded,
		Break:   keeper.cycle,
		Planned: keeper.total,
		Actual:  actual,
		Outcome: outcome,
		Source:  source,
	})
	if keeper.cycle == transition.CycleShortBreak && keeper.settings.AccumulateBreakTime {
		keeper.accumulated += keeper.remaining
	}
}

// finishNoticeLocked announces the last seconds of a work countdown: a
// warning at FinishWarningSeconds, then one event per second from
// FinishCountdownSeconds down to 1.
func (keeper *TimeKeeper) finishNoticeLocked() {
	if keeper.cycle != transition.CycleWork {
		return
	}
	switch seconds := int(keeper.remaining / time.Second); {
	case seconds == FinishWarningSeconds:
		keeper.finishNotice = true
		keeper.emitLocked(Event{Type: EventFinishWarning, Seconds: seconds})
	case seconds > 0 && seconds <= FinishCountdownSeconds:
		keeper.finishNotice = true
		keeper.emitLocked(Event{Type: EventFinishCountdown, Seconds: seconds})
	}
}

func (keeper *TimeKeeper) hideFinishNoticeLocked() {
	if !keeper.finishNotice {
		return
	}
	keeper.finishNotice = false
	keeper.emitLocked(Event{Type: EventFinishHidden})
}

func (keeper *TimeKeeper) evaluateCurfewLocked(now time.Time) {
	result := keeper.monitor.Evaluate(now, keeper.settings.Curfew)
	if result.Entered {
		keeper.logger.Info("curfew window entered", "limit_hour", keeper.settings.Curfew.Hour, "limit_minute", keeper.settings.Curfew.Minute)
		keeper.dispatchLocked(transition.EventForcedSleepTriggered)
	}
	if result.Exited && keeper.state == transition.StateForcedSleep {
		keeper.logger.Info("curfew window left")
		keeper.dispatchLocked(transition.EventForcedSleepEnded)
	}
	if result.Warning != 0 {
		keeper.emitLocked(Event{Type: EventCountdownWarning, Minutes: result.Warning})
	}
}

func (keeper *TimeKeeper) unlockSuppressedLocked(now time.Time) bool {
	if keeper.lastScreensaverResume.IsZero() {
		return false
	}
	elapsed := now.Sub(keeper.lastScreensaverResume)
	return elapsed >= 0 && elapsed < UnlockDebounceWindow
}
