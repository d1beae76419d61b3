package tui

import (
	"sync"

	"github.com/goliatone/go-contactform/pkg/status"
)

// feed is the status.Sink handed to the session. Updates are queued and
// printed by the renderer between prompts, never from inside a session
// call.
type feed struct {
	mu      sync.Mutex
	pending []status.Update
}

func (f *feed) Publish(u status.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, u)
}

// Locked is a no-op: Submit blocks the prompt loop for the whole
// submission, so no control is reachable while the form is locked.
func (f *feed) Locked(bool) {}

// drain returns and clears the queued updates.
func (f *feed) drain() []status.Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}
