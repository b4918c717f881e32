package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"pomodoro/internal/core/activity"
)

// WatchSignals subscribes to logind lock/unlock on the system bus and to
// screensaver activation on the session bus. The returned channel closes
// when ctx ends. Either bus may be missing; if both are,
// activity.ErrSignalsUnsupported is returned.
func WatchSignals(ctx context.Context, logger *slog.Logger) (<-chan activity.Signal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "signals")

	raw := make(chan *dbus.Signal, 16)
	var conns []*dbus.Conn
	var errs []error

	if conn, err := subscribe(dbus.ConnectSystemBus, raw, login1SessionInterface, "Lock", "Unlock"); err != nil {
		errs = append(errs, fmt.Errorf("system bus: %w", err))
	} else {
		conns = append(conns, conn)
	}
	if conn, err := subscribe(dbus.ConnectSessionBus, raw, screenSaverInterface, "ActiveChanged"); err != nil {
		errs = append(errs, fmt.Errorf("session bus: %w", err))
	} else {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(gnomeSaverInterface),
			dbus.WithMatchMember("ActiveChanged"),
		); err != nil {
			logger.Debug("gnome screensaver match failed", "error", err)
		}
		conns = append(conns, conn)
	}
	if len(conns) == 0 {
		return nil, fmt.Errorf("watch signals: %w", errors.Join(append([]error{activity.ErrSignalsUnsupported}, errs...)...))
	}
	for _, err := range errs {
		logger.Warn("signal source unavailable", "error", err)
	}

	signals := make(chan activity.Signal, 16)
	go func() {
		defer close(signals)
		defer func() {
			for _, conn := range conns {
				conn.RemoveSignal(raw)
				_ = conn.Close()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-raw:
				if !ok {
					return
				}
				signal, known := translateSignal(message.Name, message.Body)
				if !known {
					continue
				}
				logger.Debug("os signal", "signal", string(signal))
				select {
				case signals <- signal:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return signals, nil
}

func subscribe(connect func(...dbus.ConnOption) (*dbus.Conn, error), raw chan *dbus.Signal, iface string, members ...string) (*dbus.Conn, error) {
	conn, err := connect()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	for _, member := range members {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember(member),
		); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("match %s.%s: %w", iface, member, err)
		}
	}
	conn.Signal(raw)
	return conn, nil
}
