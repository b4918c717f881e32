package platform

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pomodoro/internal/core/activity"
)

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

var _ activity.IdleChecker = IdleProvider(nil)

// NewIdleProvider returns a platform-specific idle provider. Providers that
// cannot measure idle time return activity.ErrIdleUnsupported.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

type unsupportedIdleProvider struct{}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, activity.ErrIdleUnsupported
}

// parseIdleMillis parses xprintidle output.
func parseIdleMillis(output string) (time.Duration, error) {
	value := strings.TrimSpace(output)
	idleMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

// parseHIDIdleTime extracts HIDIdleTime (nanoseconds) from ioreg output.
func parseHIDIdleTime(output string) (time.Duration, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, `"HIDIdleTime"`) {
			continue
		}
		_, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		nanos, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
		}
		if nanos < 0 {
			nanos = 0
		}
		return time.Duration(nanos), nil
	}
	return 0, fmt.Errorf("parse HIDIdleTime: %w", activity.ErrIdleUnsupported)
}
