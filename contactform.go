package contactform

import (
	"context"

	"github.com/goliatone/go-contactform/pkg/config"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/session"
	"github.com/goliatone/go-contactform/pkg/submit"
)

// Config aliases config.Config so callers can configure the form from the
// top-level module.
type Config = config.Config

// Session aliases session.Session, the stateful form engine.
type Session = session.Session

// Option configures a Session.
type Option = session.Option

// FormState is the whole form snapshot.
type FormState = model.FormState

// Result reports the outcome of one submission.
type Result = submit.Result

// DefaultConfig returns the built-in configuration: one required contact,
// at most ten, three attempts with a one second base delay.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	return config.LoadFile(path)
}

// NewSession exposes the session constructor from the top-level module.
func NewSession(cfg Config, options ...Option) (*Session, error) {
	return session.New(cfg, options...)
}

// SubmitState loads a complete form state into a fresh session and submits
// it. It is the simplest entry point for callers that already hold the data,
// e.g. from a saved file.
func SubmitState(ctx context.Context, cfg Config, state FormState, options ...Option) (Result, error) {
	s, err := session.New(cfg, options...)
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	if err := s.Load(state); err != nil {
		return Result{}, err
	}
	return s.Submit(ctx)
}
