// Package status carries feedback from the form engine to the presentation
// layer: a stream of user-facing messages with a severity, and the boolean
// "form locked" signal raised while a submission is in flight.
package status

import "sync"

// Severity classifies a status message.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// Kind distinguishes messages from UI hints carried on the same stream.
type Kind string

const (
	// KindMessage shows Message to the user.
	KindMessage Kind = "message"
	// KindDismiss hides the current message.
	KindDismiss Kind = "dismiss"
	// KindResetOffer asks the UI to offer a form reset.
	KindResetOffer Kind = "resetOffer"
)

// Update is one event on the status stream.
type Update struct {
	Kind     Kind
	Message  string
	Severity Severity
}

// Sink receives status updates and lock changes. Implementations must not
// call back into the session synchronously.
type Sink interface {
	Publish(Update)
	Locked(bool)
}

// Funcs adapts two callbacks to Sink. Nil callbacks are skipped.
type Funcs struct {
	OnUpdate func(Update)
	OnLock   func(bool)
}

// Publish implements Sink.
func (f Funcs) Publish(u Update) {
	if f.OnUpdate != nil {
		f.OnUpdate(u)
	}
}

// Locked implements Sink.
func (f Funcs) Locked(locked bool) {
	if f.OnLock != nil {
		f.OnLock(locked)
	}
}

// Discard drops every update.
var Discard Sink = Funcs{}

// Message builds a KindMessage update.
func Message(severity Severity, text string) Update {
	return Update{Kind: KindMessage, Message: text, Severity: severity}
}

// Recorder is a Sink that keeps everything it receives. Safe for concurrent
// use; intended for tests and headless runs.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
	locks   []bool
}

// Publish implements Sink.
func (r *Recorder) Publish(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

// Locked implements Sink.
func (r *Recorder) Locked(locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, locked)
}

// Updates returns a copy of the received updates.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// Messages returns the text of KindMessage updates.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, u := range r.updates {
		if u.Kind == KindMessage {
			out = append(out, u.Message)
		}
	}
	return out
}

// Locks returns the lock transitions received.
func (r *Recorder) Locks() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.locks...)
}

// Last returns the most recent update.
func (r *Recorder) Last() (Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return Update{}, false
	}
	return r.updates[len(r.updates)-1], true
}
