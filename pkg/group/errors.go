package group

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-contactform/pkg/model"
)

var (
	// ErrCapacityExceeded is returned by Add when the group is full.
	ErrCapacityExceeded = errors.New("group: maximum number of contacts reached")
	// ErrRequiredEntry is returned when removing an entry within the required
	// prefix.
	ErrRequiredEntry = errors.New("group: required contact cannot be removed")
	// ErrUnknownPosition is returned for positions outside the group.
	ErrUnknownPosition = errors.New("group: unknown contact position")
)

// StructuralError reports a rejected add/remove. The group is unchanged when
// one is returned.
type StructuralError struct {
	Op       string
	Position int
	Limit    int
	Err      error
}

func (e *StructuralError) Error() string {
	if e == nil || e.Err == nil {
		return "group: structural error"
	}
	switch {
	case errors.Is(e.Err, ErrCapacityExceeded):
		return fmt.Sprintf("%s (max %d)", e.Err, e.Limit)
	case e.Position > 0:
		return fmt.Sprintf("%s: position %d", e.Err, e.Position)
	default:
		return e.Err.Error()
	}
}

func (e *StructuralError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorState tracks per-field messages keyed by field identifier. Validation
// passes replace it wholesale; real-time checks touch one field at a time.
type ErrorState struct {
	errors map[string][]string
}

// NewErrorState returns an empty error map.
func NewErrorState() *ErrorState {
	return &ErrorState{errors: make(map[string][]string)}
}

// Replace discards every stored message and records errs instead.
func (s *ErrorState) Replace(errs []model.ValidationError) {
	s.errors = make(map[string][]string, len(errs))
	for _, e := range errs {
		id := e.Field.ID()
		s.errors[id] = normalizeMessages(append(s.errors[id], e.Message))
	}
}

// Set stores messages for ref; an empty list clears it.
func (s *ErrorState) Set(ref model.FieldRef, messages ...string) {
	cleaned := normalizeMessages(messages)
	if len(cleaned) == 0 {
		delete(s.errors, ref.ID())
		return
	}
	s.errors[ref.ID()] = cleaned
}

// Clear removes messages for ref.
func (s *ErrorState) Clear(ref model.FieldRef) {
	delete(s.errors, ref.ID())
}

// Reset removes every message.
func (s *ErrorState) Reset() {
	s.errors = make(map[string][]string)
}

// For returns the messages attached to ref.
func (s *ErrorState) For(ref model.FieldRef) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.errors[ref.ID()]...)
}

// Has reports whether ref carries any message.
func (s *ErrorState) Has(ref model.FieldRef) bool {
	return s != nil && len(s.errors[ref.ID()]) > 0
}

// Len returns how many fields carry errors.
func (s *ErrorState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.errors)
}

// Snapshot returns a copy of the map keyed by field identifier.
func (s *ErrorState) Snapshot() map[string][]string {
	out := make(map[string][]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// IDs lists the field identifiers carrying errors, sorted.
func (s *ErrorState) IDs() []string {
	ids := make([]string, 0, len(s.errors))
	for id := range s.errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// dropEntry removes messages of the entry at position and moves messages of
// later entries one position down so they follow their records.
func (s *ErrorState) dropEntry(position int) {
	next := make(map[string][]string, len(s.errors))
	for id, msgs := range s.errors {
		ref, ok := model.ParseFieldID(id)
		if !ok {
			continue
		}
		switch {
		case ref.IsTopLevel(), ref.Position < position:
			next[id] = msgs
		case ref.Position == position:
		default:
			ref.Position--
			next[ref.ID()] = msgs
		}
	}
	s.errors = next
}

// prune drops messages whose identifier no longer names an existing field.
func (s *ErrorState) prune(exists func(model.FieldRef) bool) {
	for id := range s.errors {
		ref, ok := model.ParseFieldID(id)
		if !ok || !exists(ref) {
			delete(s.errors, id)
		}
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
