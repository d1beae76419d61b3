package submit

import (
	"errors"
	"fmt"
)

var (
	// ErrInFlight is returned when a submission is already running. No
	// network call is made.
	ErrInFlight = errors.New("submit: submission already in flight")
	// ErrRetriesExhausted wraps the last failure once every attempt failed.
	ErrRetriesExhausted = errors.New("submit: retries exhausted")
)

// TransientError is a failure worth retrying: network errors, timeouts,
// 5xx/408/429 responses, malformed bodies and explicit failure verdicts.
type TransientError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransientError) Error() string {
	return describe("submit: transient failure", e.StatusCode, e.Message, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError is a failure that retrying cannot fix, such as a 4xx
// rejection or a payload that violates the intake contract.
type TerminalError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TerminalError) Error() string {
	return describe("submit: rejected", e.StatusCode, e.Message, e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// IsRetryable reports whether err should trigger another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var terminal *TerminalError
	return !errors.As(err, &terminal)
}

func describe(prefix string, status int, message string, err error) string {
	out := prefix
	if status > 0 {
		out += fmt.Sprintf(" (HTTP %d)", status)
	}
	if message != "" {
		out += ": " + message
	}
	if err != nil {
		out += ": " + err.Error()
	}
	return out
}
