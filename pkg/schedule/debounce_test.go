package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-contactform/pkg/schedule"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDebouncerRunsOnceAfterQuietPeriod(t *testing.T) {
	clock := schedule.NewFakeClock(time.Unix(0, 0))
	d := schedule.NewDebouncer(clock, 300*time.Millisecond)

	var runs int
	for i := 0; i < 5; i++ {
		d.Trigger(func() { runs++ })
		clock.Advance(100 * time.Millisecond)
	}
	if runs != 0 {
		t.Fatalf("expected no run while edits keep arriving, got %d", runs)
	}

	clock.Advance(300 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("expected exactly one trailing run, got %d", runs)
	}
	if d.Pending() {
		t.Fatalf("expected nothing pending after the run")
	}
}

func TestDebouncerFlushCancelsPending(t *testing.T) {
	clock := schedule.NewFakeClock(time.Unix(0, 0))
	d := schedule.NewDebouncer(clock, 300*time.Millisecond)

	var calls []string
	d.Trigger(func() { calls = append(calls, "debounced") })
	d.Flush(func() { calls = append(calls, "flushed") })
	clock.Advance(time.Second)

	if diff := cmp.Diff([]string{"flushed"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if clock.PendingTimers() != 0 {
		t.Fatalf("expected cancelled timer to be dropped")
	}
}

func TestDebouncerClosedIgnoresTriggers(t *testing.T) {
	clock := schedule.NewFakeClock(time.Unix(0, 0))
	d := schedule.NewDebouncer(clock, time.Millisecond)
	d.Close()

	ran := false
	d.Trigger(func() { ran = true })
	clock.Advance(time.Second)
	if ran {
		t.Fatalf("closed debouncer must not run tasks")
	}
}

func TestDebouncerWithSystemClock(t *testing.T) {
	d := schedule.NewDebouncer(nil, 10*time.Millisecond)
	defer d.Close()

	var runs atomic.Int32
	done := make(chan struct{})
	d.Trigger(func() { runs.Add(1) })
	d.Trigger(func() {
		runs.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("debounced task never ran")
	}
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected one run, got %d", got)
	}
}

func TestSystemSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := schedule.System.Sleep(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFakeClockRecordsSleeps(t *testing.T) {
	clock := schedule.NewFakeClock(time.Unix(0, 0))
	_ = clock.Sleep(context.Background(), time.Second)
	_ = clock.Sleep(context.Background(), 2*time.Second)

	want := []time.Duration{time.Second, 2 * time.Second}
	if diff := cmp.Diff(want, clock.Sleeps()); diff != "" {
		t.Fatalf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if got := clock.Now(); !got.Equal(time.Unix(3, 0)) {
		t.Fatalf("clock did not advance, now %v", got)
	}
}
