package transition

// State is the single authoritative session state.
type State string

const (
	StateIdle               State = "idle"
	StateWorkRunning        State = "work_running"
	StateWorkPausedByUser   State = "work_paused_by_user"
	StateWorkPausedByIdle   State = "work_paused_by_idle"
	StateWorkPausedBySystem State = "work_paused_by_system"
	StateRestPending        State = "rest_pending"
	StateRestRunning        State = "rest_running"
	StateRestPausedByUser   State = "rest_paused_by_user"
	StateRestPausedBySystem State = "rest_paused_by_system"
	StateForcedSleep        State = "forced_sleep"
)

// States lists every session state.
func States() []State {
	return []State{
		StateIdle,
		StateWorkRunning,
		StateWorkPausedByUser,
		StateWorkPausedByIdle,
		StateWorkPausedBySystem,
		StateRestPending,
		StateRestRunning,
		StateRestPausedByUser,
		StateRestPausedBySystem,
		StateForcedSleep,
	}
}

// IsRunning reports whether a countdown ticks in this state.
func (state State) IsRunning() bool {
	return state == StateWorkRunning || state == StateRestRunning
}

// IsPaused reports whether the countdown is held and can be resumed.
func (state State) IsPaused() bool {
	switch state {
	case StateWorkPausedByUser, StateWorkPausedByIdle, StateWorkPausedBySystem,
		StateRestPausedByUser, StateRestPausedBySystem:
		return true
	}
	return false
}

// IsWork reports whether the state belongs to a work countdown.
func (state State) IsWork() bool {
	switch state {
	case StateWorkRunning, StateWorkPausedByUser, StateWorkPausedByIdle, StateWorkPausedBySystem:
		return true
	}
	return false
}

// IsResting reports whether a break is running or paused.
func (state State) IsResting() bool {
	switch state {
	case StateRestRunning, StateRestPausedByUser, StateRestPausedBySystem:
		return true
	}
	return false
}

// Event is an input to the engine.
type Event string

const (
	EventTimerStarted         Event = "timer_started"
	EventTimerStopped         Event = "timer_stopped"
	EventTimerPaused          Event = "timer_paused"
	EventIdleTimeExceeded     Event = "idle_time_exceeded"
	EventUserActivityDetected Event = "user_activity_detected"
	EventScreenLocked         Event = "screen_locked"
	EventScreenUnlocked       Event = "screen_unlocked"
	EventScreensaverStarted   Event = "screensaver_started"
	EventScreensaverStopped   Event = "screensaver_stopped"
	EventPomodoroFinished     Event = "pomodoro_finished"
	EventRestStarted          Event = "rest_started"
	EventRestFinished         Event = "rest_finished"
	EventRestCancelled        Event = "rest_cancelled"
	EventForcedSleepTriggered Event = "forced_sleep_triggered"
	EventForcedSleepEnded     Event = "forced_sleep_ended"
)

// Events lists every engine event.
func Events() []Event {
	return []Event{
		EventTimerStarted,
		EventTimerStopped,
		EventTimerPaused,
		EventIdleTimeExceeded,
		EventUserActivityDetected,
		EventScreenLocked,
		EventScreenUnlocked,
		EventScreensaverStarted,
		EventScreensaverStopped,
		EventPomodoroFinished,
		EventRestStarted,
		EventRestFinished,
		EventRestCancelled,
		EventForcedSleepTriggered,
		EventForcedSleepEnded,
	}
}

// Action is the abstract effect a caller executes after a transition.
type Action string

const (
	ActionNone              Action = "none"
	ActionPauseTimer        Action = "pause_timer"
	ActionResumeTimer       Action = "resume_timer"
	ActionRestartTimer      Action = "restart_timer"
	ActionShowRestOverlay   Action = "show_rest_overlay"
	ActionStartNextPomodoro Action = "start_next_pomodoro"
	ActionEnterForcedSleep  Action = "enter_forced_sleep"
	ActionExitForcedSleep   Action = "exit_forced_sleep"
)

// Actions lists every action.
func Actions() []Action {
	return []Action{
		ActionNone,
		ActionPauseTimer,
		ActionResumeTimer,
		ActionRestartTimer,
		ActionShowRestOverlay,
		ActionStartNextPomodoro,
		ActionEnterForcedSleep,
		ActionExitForcedSleep,
	}
}

// CycleKind tells which duration and post-completion path apply to the countdown.
type CycleKind string

const (
	CycleWork       CycleKind = "work"
	CycleShortBreak CycleKind = "short_break"
	CycleLongBreak  CycleKind = "long_break"
)

// IsBreak reports whether the cycle is a short or long break.
func (kind CycleKind) IsBreak() bool {
	return kind == CycleShortBreak || kind == CycleLongBreak
}
