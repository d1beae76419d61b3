package schedule

import (
	"sync"
	"time"
)

// Debouncer runs a task once no new trigger has arrived for the configured
// wait. Each Trigger cancels the pending run and schedules a fresh one;
// Flush runs immediately (used for change/blur events).
type Debouncer struct {
	clock Clock
	wait  time.Duration

	mu      sync.Mutex
	pending Timer
	gen     uint64
	closed  bool
}

// NewDebouncer builds a trailing-edge debouncer. A nil clock uses System.
func NewDebouncer(clock Clock, wait time.Duration) *Debouncer {
	if clock == nil {
		clock = System
	}
	return &Debouncer{clock: clock, wait: wait}
}

// Trigger schedules fn after the wait, replacing any pending task.
func (d *Debouncer) Trigger(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.pending != nil {
		d.pending.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = d.clock.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if d.closed || d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Flush cancels any pending task and runs fn synchronously.
func (d *Debouncer) Flush(fn func()) {
	d.Cancel()
	if fn != nil {
		fn()
	}
}

// Cancel drops the pending task, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// Pending reports whether a task is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Close cancels the pending task and rejects future triggers.
func (d *Debouncer) Close() {
	d.Cancel()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
