package platform

import "pomodoro/internal/core/activity"

const (
	login1SessionInterface = "org.freedesktop.login1.Session"
	screenSaverInterface   = "org.freedesktop.ScreenSaver"
	gnomeSaverInterface    = "org.gnome.ScreenSaver"
)

// translateSignal maps a D-Bus signal name and body to an activity signal.
func translateSignal(name string, body []interface{}) (activity.Signal, bool) {
	switch name {
	case login1SessionInterface + ".Lock":
		return activity.SignalScreenLocked, true
	case login1SessionInterface + ".Unlock":
		return activity.SignalScreenUnlocked, true
	case screenSaverInterface + ".ActiveChanged", gnomeSaverInterface + ".ActiveChanged":
		if len(body) == 0 {
			return "", false
		}
		active, ok := body[0].(bool)
		if !ok {
			return "", false
		}
		if active {
			return activity.SignalScreensaverStarted, true
		}
		return activity.SignalScreensaverStopped, true
	}
	return "", false
}
