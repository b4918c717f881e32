//go:build !linux

package platform

import (
	"context"
	"log/slog"

	"pomodoro/internal/core/activity"
)

// WatchSignals is only implemented on Linux.
func WatchSignals(ctx context.Context, logger *slog.Logger) (<-chan activity.Signal, error) {
	return nil, activity.ErrSignalsUnsupported
}
