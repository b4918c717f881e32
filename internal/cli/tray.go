package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/spf13/cobra"

	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/ui/tray"
)

const appID = "dev.pomodoro.app"

func newTrayCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run in the system tray (default)",
		RunE:  app.runTray,
	}
}

// notifier turns core callbacks into desktop notifications.
type notifier struct {
	app fyne.App
}

func (notifier *notifier) OnTimeUpdate(time.Duration) {}

func (notifier *notifier) OnFinished() {
	notifier.send("Time for a break", "The work countdown is over.")
}

func (notifier *notifier) OnForcedSleepChanged(entering bool) {
	if entering {
		notifier.send("Bedtime", "The timer is locked until morning.")
		return
	}
	notifier.send("Good morning", "The timer is available again.")
}

func (notifier *notifier) OnCountdownWarning(minutesRemaining int) {
	notifier.send("Bedtime soon", fmt.Sprintf("Curfew starts in %d min.", minutesRemaining))
}

func (notifier *notifier) OnFinishCountdown(secondsRemaining int) {
	switch secondsRemaining {
	case timekeeper.FinishWarningSeconds, timekeeper.FinishCountdownSeconds:
		notifier.send("Break soon", fmt.Sprintf("%d seconds of work left.", secondsRemaining))
	}
}

func (notifier *notifier) send(title, content string) {
	fyne.Do(func() {
		notifier.app.SendNotification(fyne.NewNotification(title, content))
	})
}

func (app *application) runTray(cmd *cobra.Command, _ []string) error {
	fyneApp := fyneapp.NewWithID(appID)
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("run tray: system tray unsupported on this platform")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s, err := app.openSession(ctx, modeTray, &notifier{app: fyneApp})
	if err != nil {
		return err
	}
	keeper := s.keeper

	manager := tray.New(desktopApp, tray.Callbacks{
		OnStart: keeper.Start,
		OnTogglePause: func() {
			if keeper.State().IsPaused() {
				keeper.Resume()
				return
			}
			keeper.Pause()
		},
		OnStop:       keeper.Stop,
		OnReset:      keeper.Reset,
		OnStartBreak: keeper.StartBreak,
		OnSkipBreak:  keeper.SkipBreak,
		OnQuit:       fyneApp.Quit,
	})
	manager.Apply(keeper.Snapshot())

	events := keeper.Subscribe(256)
	s.goRun(func() { followSession(ctx, events, manager) })
	s.start(ctx)

	fyneApp.Run()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return s.close(shutdownCtx)
}

// followSession mirrors observer events into the tray on the UI goroutine.
func followSession(ctx context.Context, events <-chan timekeeper.Event, manager *tray.Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case timekeeper.EventFinishWarning, timekeeper.EventFinishCountdown, timekeeper.EventFinishHidden:
				seconds := event.Seconds
				fyne.Do(func() { manager.SetFinishCountdown(seconds) })
			case timekeeper.EventTimeUpdate, timekeeper.EventStateChange:
				snapshot := timekeeper.Snapshot{
					State:     event.State,
					Cycle:     event.Cycle,
					CycleID:   event.CycleID,
					Remaining: event.Remaining,
					Total:     event.Total,
				}
				fyne.Do(func() { manager.Apply(snapshot) })
			}
		}
	}
}
