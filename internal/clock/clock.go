// Package clock supplies "now" to the scheduler so tests can control it.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Manual is a Clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (manual *Manual) Now() time.Time {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.now
}

// Set jumps to t.
func (manual *Manual) Set(t time.Time) {
	manual.mu.Lock()
	manual.now = t
	manual.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (manual *Manual) Advance(d time.Duration) time.Time {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	manual.now = manual.now.Add(d)
	return manual.now
}
