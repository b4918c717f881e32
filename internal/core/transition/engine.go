// Package transition holds the pomodoro session state machine. Compute is a
// pure function: it owns no timers and no state, so callers pass in
// everything a guard can depend on.
package transition

import "pomodoro/internal/core/model"

// Input carries the guard values the table depends on besides state and event.
type Input struct {
	Settings model.Settings
	Cycle    CycleKind
	// InCurfew mirrors the curfew monitor's shadow state.
	InCurfew bool
	// UnlockSuppressed is set when a screensaver stop was handled within the
	// debounce window, making the following unlock a duplicate.
	UnlockSuppressed bool
}

// Compute resolves the next state and the action to execute. Every
// (state, event) pair is defined; pairs without a rule keep the state and
// return ActionNone.
func Compute(state State, event Event, in Input) (State, Action) {
	if state == StateForcedSleep {
		return computeForcedSleep(event, in)
	}

	switch event {
	case EventForcedSleepTriggered:
		return StateForcedSleep, ActionEnterForcedSleep

	case EventForcedSleepEnded:
		return state, ActionNone

	case EventTimerStarted:
		if in.InCurfew {
			return StateForcedSleep, ActionEnterForcedSleep
		}
		if in.Cycle.IsBreak() {
			return StateRestRunning, ActionNone
		}
		return StateWorkRunning, ActionNone

	case EventTimerStopped:
		return StateIdle, ActionNone

	case EventTimerPaused:
		switch state {
		case StateWorkRunning:
			return StateWorkPausedByUser, ActionNone
		case StateRestRunning:
			return StateRestPausedByUser, ActionNone
		}
		return state, ActionNone

	case EventIdleTimeExceeded:
		if state == StateWorkRunning && in.Settings.Idle.Enabled {
			return StateWorkPausedByIdle, ActionPauseTimer
		}
		return state, ActionNone

	case EventUserActivityDetected:
		if state == StateWorkPausedByIdle && in.Settings.Idle.Enabled {
			return StateWorkRunning, restartOrResume(in.Settings.Idle.Trigger)
		}
		return state, ActionNone

	case EventScreenLocked:
		return pauseBySystem(state, in.Settings.ScreenLock)

	case EventScreensaverStarted:
		return pauseBySystem(state, in.Settings.Screensaver)

	case EventScreenUnlocked:
		if in.UnlockSuppressed {
			return state, ActionNone
		}
		return liftSystemPause(state, in.Settings.ScreenLock)

	case EventScreensaverStopped:
		return liftSystemPause(state, in.Settings.Screensaver)

	case EventPomodoroFinished:
		if state.IsWork() {
			return StateRestPending, ActionShowRestOverlay
		}
		// RestPending included: a duplicate finish must not show the overlay twice.
		return state, ActionNone

	case EventRestStarted:
		if state.IsResting() {
			return state, ActionNone
		}
		return StateRestRunning, ActionNone

	case EventRestFinished:
		if state.IsResting() {
			return StateIdle, ActionStartNextPomodoro
		}
		return state, ActionNone

	case EventRestCancelled:
		if state == StateRestPending || state.IsResting() {
			return StateIdle, ActionStartNextPomodoro
		}
		return state, ActionNone
	}

	return state, ActionNone
}

// computeForcedSleep handles every event while the curfew override is active.
// Nothing but the curfew itself, or an unlock after the window has passed,
// leaves forced sleep.
func computeForcedSleep(event Event, in Input) (State, Action) {
	switch event {
	case EventForcedSleepTriggered:
		return StateForcedSleep, ActionEnterForcedSleep
	case EventForcedSleepEnded:
		return StateIdle, ActionExitForcedSleep
	case EventScreenUnlocked:
		if in.Settings.ScreenLock.Enabled && !in.InCurfew {
			return StateIdle, ActionExitForcedSleep
		}
	}
	return StateForcedSleep, ActionNone
}

func pauseBySystem(state State, trigger model.Trigger) (State, Action) {
	// In restart mode the countdown keeps running; only the matching unlock
	// or screensaver stop restarts it.
	if !trigger.Enabled || trigger.Restart {
		return state, ActionNone
	}
	switch state {
	case StateWorkRunning:
		return StateWorkPausedBySystem, ActionPauseTimer
	case StateRestRunning:
		return StateRestPausedBySystem, ActionPauseTimer
	}
	return state, ActionNone
}

func liftSystemPause(state State, trigger model.Trigger) (State, Action) {
	if !trigger.Enabled {
		return state, ActionNone
	}
	switch state {
	case StateWorkPausedBySystem:
		return StateWorkRunning, restartOrResume(trigger)
	case StateRestPausedBySystem:
		return StateRestRunning, ActionResumeTimer
	case StateWorkRunning:
		if trigger.Restart {
			return StateWorkRunning, ActionRestartTimer
		}
	}
	return state, ActionNone
}

func restartOrResume(trigger model.Trigger) Action {
	if trigger.Restart {
		return ActionRestartTimer
	}
	return ActionResumeTimer
}
