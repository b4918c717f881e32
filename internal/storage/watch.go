package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pomodoro/internal/core/model"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a store's file when it changes on disk.
type Watcher struct {
	store     *Store
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  func(model.Settings)
	logger    *slog.Logger
}

// NewWatcher watches the directory holding the store's file. onChange
// receives every successfully reloaded snapshot.
func NewWatcher(store *Store, debounce time.Duration, onChange func(model.Settings), logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(store.Path())
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watch directory %s: %w", dir, err)
	}
	return &Watcher{
		store:     store,
		fsWatcher: fsWatcher,
		debounce:  debounce,
		onChange:  onChange,
		logger:    logger.With("component", "settings-watcher"),
	}, nil
}

// Run delivers reloads until ctx ends, then releases the watcher.
func (watcher *Watcher) Run(ctx context.Context) error {
	defer watcher.fsWatcher.Close()

	timer := time.NewTimer(watcher.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !watcher.isRelevantEvent(event) {
				continue
			}
			timer.Reset(watcher.debounce)

		case <-timer.C:
			watcher.reload()

		case err, ok := <-watcher.fsWatcher.Errors:
			if !ok {
				return nil
			}
			watcher.logger.Warn("watch settings", "error", err)
		}
	}
}

func (watcher *Watcher) reload() {
	settings, err := watcher.store.Load()
	if err != nil {
		watcher.logger.Warn("reload settings", "path", watcher.store.Path(), "error", err)
		return
	}
	watcher.logger.Info("settings reloaded", "path", watcher.store.Path())
	watcher.onChange(settings)
}

func (watcher *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(watcher.store.Path())
}
