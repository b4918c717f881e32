package transition

import (
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"

	"pomodoro/internal/core/model"
)

func genTrigger() *rapid.Generator[model.Trigger] {
	return rapid.Custom(func(t *rapid.T) model.Trigger {
		return model.Trigger{
			Enabled: rapid.Bool().Draw(t, "enabled"),
			Restart: rapid.Bool().Draw(t, "restart"),
		}
	})
}

func genInput() *rapid.Generator[Input] {
	return rapid.Custom(func(t *rapid.T) Input {
		settings := model.DefaultSettings()
		settings.Idle.Trigger = genTrigger().Draw(t, "idle")
		settings.Idle.Threshold = time.Duration(rapid.IntRange(1, 120).Draw(t, "idleMinutes")) * time.Minute
		settings.ScreenLock = genTrigger().Draw(t, "screenLock")
		settings.Screensaver = genTrigger().Draw(t, "screensaver")
		settings.Curfew.Enabled = rapid.Bool().Draw(t, "curfew")
		return Input{
			Settings:         settings,
			Cycle:            rapid.SampledFrom([]CycleKind{CycleWork, CycleShortBreak, CycleLongBreak}).Draw(t, "cycle"),
			InCurfew:         rapid.Bool().Draw(t, "inCurfew"),
			UnlockSuppressed: rapid.Bool().Draw(t, "suppressed"),
		}
	})
}

// Every state/event/guard combination resolves to a known state and action.
func TestCompute_Totality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := rapid.SampledFrom(States()).Draw(t, "state")
		event := rapid.SampledFrom(Events()).Draw(t, "event")
		in := genInput().Draw(t, "input")

		next, action := Compute(state, event, in)

		if !slices.Contains(States(), next) {
			t.Fatalf("Compute(%s, %s) returned unknown state %q", state, event, next)
		}
		if !slices.Contains(Actions(), action) {
			t.Fatalf("Compute(%s, %s) returned unknown action %q", state, event, action)
		}
		if action == ActionNone && event != EventTimerStarted && event != EventTimerStopped &&
			event != EventTimerPaused && event != EventRestStarted && next != state {
			t.Fatalf("Compute(%s, %s) changed state to %s without an action", state, event, next)
		}
	})
}

// Inside forced sleep only curfew events and a post-window unlock have any effect.
func TestCompute_ForcedSleepIsSticky(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		event := rapid.SampledFrom(Events()).Draw(t, "event")
		in := genInput().Draw(t, "input")

		next, action := Compute(StateForcedSleep, event, in)

		switch event {
		case EventForcedSleepTriggered:
			if next != StateForcedSleep || action != ActionEnterForcedSleep {
				t.Fatalf("re-trigger: got (%s, %s)", next, action)
			}
		case EventForcedSleepEnded:
			if next != StateIdle || action != ActionExitForcedSleep {
				t.Fatalf("end: got (%s, %s)", next, action)
			}
		case EventScreenUnlocked:
			if next != StateForcedSleep && (in.InCurfew || !in.Settings.ScreenLock.Enabled) {
				t.Fatalf("unlock left forced sleep inside the window")
			}
		default:
			if next != StateForcedSleep || action != ActionNone {
				t.Fatalf("event %s leaked out of forced sleep: (%s, %s)", event, next, action)
			}
		}
	})
}

// Idle detection only engages on running work and only lifts idle pauses.
func TestCompute_IdleScopedToWork(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := rapid.SampledFrom(States()).Draw(t, "state")
		in := genInput().Draw(t, "input")

		next, action := Compute(state, EventIdleTimeExceeded, in)
		if state != StateWorkRunning && (next != state || action != ActionNone) {
			t.Fatalf("idle exceeded acted on %s", state)
		}

		next, action = Compute(state, EventUserActivityDetected, in)
		if state != StateWorkPausedByIdle && (next != state || action != ActionNone) {
			t.Fatalf("activity acted on %s", state)
		}
	})
}
