package platform

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"pomodoro/internal/core/activity"
)

const (
	mutterIdleService = "org.gnome.Mutter.IdleMonitor"
	mutterIdlePath    = dbus.ObjectPath("/org/gnome/Mutter/IdleMonitor/Core")
	mutterIdleMethod  = "org.gnome.Mutter.IdleMonitor.GetIdletime"
)

type idleProvider struct {
	xprintidlePath string
}

// mutterIdleProvider asks GNOME's idle monitor, which also works on Wayland.
type mutterIdleProvider struct {
	conn *dbus.Conn
}

func newIdleProvider() IdleProvider {
	sessionType := strings.ToLower(os.Getenv("XDG_SESSION_TYPE"))
	if sessionType != "wayland" {
		if path, err := exec.LookPath("xprintidle"); err == nil {
			return &idleProvider{xprintidlePath: path}
		}
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return unsupportedIdleProvider{}
	}
	return &mutterIdleProvider{conn: conn}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseIdleMillis(string(output))
}

func (provider *mutterIdleProvider) IdleDuration() (time.Duration, error) {
	var idleMillis uint64
	err := provider.conn.Object(mutterIdleService, mutterIdlePath).
		Call(mutterIdleMethod, 0).
		Store(&idleMillis)
	if err != nil {
		return 0, fmt.Errorf("%w: mutter idle monitor: %v", activity.ErrIdleUnsupported, err)
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}
