package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"pomodoro/internal/core/activity"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
	"pomodoro/internal/tracing"
)

// Session modes reported to a second instance.
const (
	modeTray = "tray"
	modeRun  = "run"
)

// session owns one running timekeeper and the collaborators around it.
type session struct {
	keeper  *timekeeper.TimeKeeper
	store   *storage.Store
	tracer  *tracing.Provider
	guard   *platform.InstanceGuard
	options Options
	logger  *slog.Logger

	wg sync.WaitGroup
}

// openSession takes the session lock for mode and builds the timekeeper.
func (app *application) openSession(ctx context.Context, mode string, listener timekeeper.Listener) (*session, error) {
	holder := platform.Holder{Mode: mode, PID: os.Getpid()}
	if mode == modeRun {
		holder.FeedAddr = app.options.FeedAddr
	}
	guard, err := platform.AcquireSingleInstance(appName, holder)
	if err != nil {
		return nil, err
	}

	store := storage.NewStore(app.options.SettingsPath)
	settings, err := store.Load()
	if err != nil {
		app.logger.Warn("load settings, using defaults", "path", store.Path(), "error", err)
	}
	if problems := settings.Validate(); problems != nil {
		app.logger.Warn("settings out of range", "error", problems)
	}

	provider, err := tracing.NewProvider(ctx, app.options.Tracing)
	if err != nil {
		_ = guard.Release()
		return nil, err
	}

	keeper := timekeeper.New(settings, timekeeper.Config{
		TickInterval: app.options.TickInterval,
		Logger:       app.logger,
		Tracer:       provider.Tracer(),
		Listener:     listener,
	})

	app.logger.Info("session opened",
		"settings", store.Path(),
		"instance", guard.Address(),
		"mode", mode,
		"tracing", provider.Enabled())

	return &session{
		keeper:  keeper,
		store:   store,
		tracer:  provider,
		guard:   guard,
		options: app.options,
		logger:  app.logger,
	}, nil
}

// start launches the run loop, the activity adapter and the settings watcher.
func (s *session) start(ctx context.Context) {
	s.goRun(func() { s.keeper.Run(ctx) })

	signals, err := platform.WatchSignals(ctx, s.logger)
	if err != nil {
		if errors.Is(err, activity.ErrSignalsUnsupported) {
			s.logger.Info("lock and screensaver signals unavailable", "error", err)
		} else {
			s.logger.Warn("watch signals", "error", err)
		}
	}
	adapter := activity.New(s.keeper, platform.NewIdleProvider(), activity.Config{PollInterval: s.options.IdlePoll}, s.logger)
	s.goRun(func() { adapter.Run(ctx, signals) })

	if !s.options.Watch {
		return
	}
	watcher, err := storage.NewWatcher(s.store, storage.DefaultDebounce, func(settings model.Settings) {
		s.keeper.ApplySettings(settings)
	}, s.logger)
	if err != nil {
		s.logger.Warn("settings hot reload disabled", "error", err)
		return
	}
	s.goRun(func() {
		if err := watcher.Run(ctx); err != nil {
			s.logger.Warn("settings watcher stopped", "error", err)
		}
	})
}

func (s *session) goRun(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// close waits for the goroutines started by start; ctx must already be done.
func (s *session) close(ctx context.Context) error {
	s.wg.Wait()
	s.keeper.Close()

	var errs []error
	if err := s.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	if err := s.guard.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release instance lock: %w", err))
	}
	return errors.Join(errs...)
}
