package timekeeper

import (
	"time"

	"pomodoro/internal/core/transition"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	// EventTransition is emitted for every dispatch, including no-ops.
	EventTransition EventType = "transition"
	// EventStateChange is emitted when a dispatch changed the session state.
	EventStateChange      EventType = "state_change"
	EventTimeUpdate       EventType = "time_update"
	EventFinished         EventType = "finished"
	EventForcedSleep      EventType = "forced_sleep"
	EventCountdownWarning EventType = "countdown_warning"
	EventBreakEnded       EventType = "break_ended"
	// EventFinishWarning, EventFinishCountdown and EventFinishHidden drive the
	// notice shown before a work countdown runs out.
	EventFinishWarning   EventType = "finish_warning"
	EventFinishCountdown EventType = "finish_countdown"
	EventFinishHidden    EventType = "finish_hidden"
)

// Seconds left on a work countdown at which the finish notice fires.
const (
	FinishWarningSeconds   = 30
	FinishCountdownSeconds = 10
)

// BreakOutcome records how a break ended.
type BreakOutcome string

const (
	OutcomeFinished  BreakOutcome = "finished"
	OutcomeCancelled BreakOutcome = "cancelled"
	// OutcomeSkipped means the break was cancelled before it started.
	OutcomeSkipped BreakOutcome = "skipped"
	// OutcomeInterrupted means the break was cut short by a stop, a reset or
	// forced sleep.
	OutcomeInterrupted BreakOutcome = "interrupted"
)

// Event represents a TimeKeeper update for observers. Break, Planned and
// Actual are set on break_ended; Seconds on the finish notice events.
type Event struct {
	Type      EventType            `json:"type"`
	State     transition.State     `json:"state"`
	From      transition.State     `json:"from,omitempty"`
	Trigger   transition.Event     `json:"trigger,omitempty"`
	Action    transition.Action    `json:"action,omitempty"`
	Cycle     transition.CycleKind `json:"cycle"`
	CycleID   string               `json:"cycle_id"`
	Remaining time.Duration        `json:"remaining"`
	Total     time.Duration        `json:"total"`
	Progress  float64              `json:"progress"`
	Entering  bool                 `json:"entering,omitempty"`
	Minutes   int                  `json:"minutes,omitempty"`
	Seconds   int                  `json:"seconds,omitempty"`
	Break     transition.CycleKind `json:"break,omitempty"`
	Planned   time.Duration        `json:"planned,omitempty"`
	Actual    time.Duration        `json:"actual,omitempty"`
	Outcome   BreakOutcome         `json:"outcome,omitempty"`
	Source    string               `json:"source,omitempty"`
	At        time.Time            `json:"at"`
}

// Listener receives the core callbacks. Methods run synchronously on the
// goroutine that caused them, after the TimeKeeper has released its state,
// and must not call back into the TimeKeeper.
type Listener interface {
	OnTimeUpdate(remaining time.Duration)
	OnFinished()
	OnForcedSleepChanged(entering bool)
	OnCountdownWarning(minutesRemaining int)
	// OnFinishCountdown reports the seconds left before a work countdown
	// ends, or 0 when the notice should be hidden.
	OnFinishCountdown(secondsRemaining int)
}

// Snapshot is a consistent view of the TimeKeeper.
type Snapshot struct {
	State               transition.State     `json:"state"`
	Cycle               transition.CycleKind `json:"cycle"`
	CycleID             string               `json:"cycle_id"`
	Remaining           time.Duration        `json:"remaining"`
	Total               time.Duration        `json:"total"`
	CompletedWorkCycles int                  `json:"completed_work_cycles"`
	AccumulatedBreak    time.Duration        `json:"accumulated_break"`
	InCurfew            bool                 `json:"in_curfew"`
}
