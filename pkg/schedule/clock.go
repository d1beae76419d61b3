// Package schedule provides the timing primitives the form engine runs on: a
// Clock abstraction so retries and debounces can be driven deterministically
// in tests, and a Debouncer that models "cancel the pending task, schedule a
// new one" as an explicit object instead of ambient timer state.
package schedule

import (
	"context"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports false when the callback already
	// fired or was stopped.
	Stop() bool
}

// Clock abstracts wall time.
type Clock interface {
	Now() time.Time
	// AfterFunc runs fn on its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// System is the Clock backed by package time.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
