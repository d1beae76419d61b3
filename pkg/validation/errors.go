package validation

import (
	"strings"

	"github.com/goliatone/go-contactform/pkg/model"
)

// Errors is the ordered result of a validation pass. A non-empty Errors
// satisfies the error interface so callers can return it directly.
type Errors []model.ValidationError

func (e Errors) Error() string {
	return "validation: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the violation messages in order.
func (e Errors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, v := range e {
		out = append(out, v.Message)
	}
	return out
}

// Display joins every message on its own line for status output.
func (e Errors) Display() string {
	return strings.Join(e.Messages(), "\n")
}

// First returns the field of the first violation.
func (e Errors) First() (model.FieldRef, bool) {
	if len(e) == 0 {
		return model.FieldRef{}, false
	}
	return e[0].Field, true
}

// For filters violations attached to ref.
func (e Errors) For(ref model.FieldRef) []string {
	var out []string
	for _, v := range e {
		if v.Field == ref {
			out = append(out, v.Message)
		}
	}
	return out
}

// Err returns nil for an empty result so callers can use the usual
// `if err := ...; err != nil` flow.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
