// Package tui is a terminal front-end for a contact form session. It walks
// the company fields and every contact entry with survey prompts, then
// offers a menu to add, edit or remove contacts and to submit.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-contactform/pkg/messages"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/session"
	"github.com/goliatone/go-contactform/pkg/status"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/validation"
)

const (
	menuSubmit = iota
	menuAdd
	menuEdit
	menuRemove
	menuCompany
	menuQuit
)

// Renderer drives a session from the terminal.
type Renderer struct {
	driver PromptDriver
	out    io.Writer
	theme  Theme
	feed   *feed
}

// New constructs a renderer with the survey driver by default.
func New(options ...Option) *Renderer {
	r := &Renderer{feed: &feed{}}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// Sink returns the status sink to pass to session.WithSink so status
// updates reach the terminal.
func (r *Renderer) Sink() status.Sink {
	return r.feed
}

// Run prompts until the user submits successfully and declines a reset, or
// quits. The last submission result is returned.
func (r *Renderer) Run(ctx context.Context, s *session.Session) (submit.Result, error) {
	if ctx == nil {
		return submit.Result{}, errors.New("tui: context is required")
	}
	if s == nil {
		return submit.Result{}, ErrNoSession
	}
	catalog := s.Catalog()

	var last submit.Result
	for {
		if err := r.fillAll(ctx, s); err != nil {
			return last, err
		}

		restart, err := r.menu(ctx, s, catalog, &last)
		if err != nil || !restart {
			return last, err
		}
	}
}

func (r *Renderer) fillAll(ctx context.Context, s *session.Session) error {
	if err := r.editCompany(ctx, s); err != nil {
		return err
	}
	for pos := 1; pos <= s.Len(); pos++ {
		if err := r.editContact(ctx, s, pos); err != nil {
			return err
		}
	}
	return nil
}

// menu loops until a terminal choice. restart reports that the form was
// reset and must be filled again.
func (r *Renderer) menu(ctx context.Context, s *session.Session, catalog *messages.Catalog, last *submit.Result) (restart bool, err error) {
	options := []string{
		catalog.Render(messages.MenuSubmit, nil),
		catalog.Render(messages.MenuAdd, nil),
		catalog.Render(messages.MenuEdit, nil),
		catalog.Render(messages.MenuRemove, nil),
		catalog.Render(messages.MenuCompany, nil),
		catalog.Render(messages.MenuQuit, nil),
	}
	for {
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message: catalog.Render(messages.MenuPrompt, nil),
			Options: options,
		})
		if err != nil {
			return false, err
		}

		switch choice {
		case menuSubmit:
			result, err := s.Submit(ctx)
			*last = result
			reset, flushErr := r.flush(ctx, s)
			if flushErr != nil {
				return false, flushErr
			}
			if result.Phase == submit.PhaseSucceeded {
				return reset, nil
			}
			if err != nil && !isExpected(err) {
				return false, err
			}
		case menuAdd:
			pos, err := s.AddContact()
			if _, ferr := r.flush(ctx, s); ferr != nil {
				return false, ferr
			}
			if err != nil {
				continue
			}
			if err := r.editContact(ctx, s, pos); err != nil {
				return false, err
			}
		case menuEdit:
			pos, err := r.pickContact(ctx, s, catalog, false)
			if err != nil {
				return false, err
			}
			if pos > 0 {
				if err := r.editContact(ctx, s, pos); err != nil {
					return false, err
				}
			}
		case menuRemove:
			pos, err := r.pickContact(ctx, s, catalog, true)
			if err != nil {
				return false, err
			}
			if pos == 0 {
				continue
			}
			ok, err := r.driver.Confirm(ctx, ConfirmConfig{
				Message: catalog.Render(messages.RemoveConfirm, messages.Params{"position": pos}),
			})
			if err != nil {
				return false, err
			}
			if ok {
				_ = s.RemoveContact(pos)
				if _, err := r.flush(ctx, s); err != nil {
					return false, err
				}
			}
		case menuCompany:
			if err := r.editCompany(ctx, s); err != nil {
				return false, err
			}
		default:
			return false, nil
		}
	}
}

// isExpected reports submission errors already surfaced on the status
// stream, which leave the user at the menu.
func isExpected(err error) bool {
	var verrs validation.Errors
	var transient *submit.TransientError
	var terminal *submit.TerminalError
	return errors.As(err, &verrs) ||
		errors.Is(err, submit.ErrRetriesExhausted) ||
		errors.Is(err, submit.ErrInFlight) ||
		errors.As(err, &transient) ||
		errors.As(err, &terminal)
}

func (r *Renderer) pickContact(ctx context.Context, s *session.Session, catalog *messages.Catalog, removable bool) (int, error) {
	var positions []int
	var labels []string
	for pos := 1; pos <= s.Len(); pos++ {
		if removable && !s.CanRemove(pos) {
			continue
		}
		positions = append(positions, pos)
		labels = append(labels, catalog.Render(messages.ContactTitle, messages.Params{"position": pos}))
	}
	if len(positions) == 0 {
		if removable {
			msg := catalog.Render(messages.RequiredEntry, messages.Params{"position": 1})
			return 0, r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
		}
		return 0, nil
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message: catalog.Render(messages.PickContact, nil),
		Options: labels,
	})
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(positions) {
		return 0, nil
	}
	return positions[idx], nil
}

func (r *Renderer) editCompany(ctx context.Context, s *session.Session) error {
	catalog := s.Catalog()
	fields := []struct {
		name  model.FieldName
		label messages.Key
	}{
		{model.FieldCompanyID, messages.LabelCompanyID},
		{model.FieldCompanyName, messages.LabelCompanyName},
		{model.FieldAnnualRevenue, messages.LabelRevenue},
		{model.FieldEmployeeCount, messages.LabelEmployees},
	}
	for _, f := range fields {
		if err := r.promptText(ctx, s, model.Top(f.name), catalog.Render(f.label, nil)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) editContact(ctx context.Context, s *session.Session, pos int) error {
	catalog := s.Catalog()
	params := messages.Params{"position": pos}
	cfg := s.Config()

	if err := r.info(ctx, status.Info, catalog.Render(messages.ContactTitle, params)); err != nil {
		return err
	}
	if err := r.promptText(ctx, s, model.Entry(pos, model.FieldEmail), catalog.Render(messages.LabelEmail, params)); err != nil {
		return err
	}
	if err := r.promptText(ctx, s, model.Entry(pos, model.FieldPhone), catalog.Render(messages.LabelPhone, params)); err != nil {
		return err
	}

	if cfg.DepartmentMode == model.DepartmentPerChannel {
		if err := r.promptDepartment(ctx, s, model.Entry(pos, model.FieldEmailDepartment), catalog.Render(messages.LabelEmailDept, params)); err != nil {
			return err
		}
		if err := r.promptDepartment(ctx, s, model.Entry(pos, model.FieldPhoneDepartment), catalog.Render(messages.LabelPhoneDept, params)); err != nil {
			return err
		}
	} else if err := r.promptDepartment(ctx, s, model.Entry(pos, model.FieldDepartment), catalog.Render(messages.LabelDepartment, params)); err != nil {
		return err
	}

	return r.promptPreferences(ctx, s, pos, catalog.Render(messages.LabelPreferences, params))
}

// promptText asks for a text field, storing each answer through the session
// and re-asking while the real-time check reports a problem.
func (r *Renderer) promptText(ctx context.Context, s *session.Session, ref model.FieldRef, label string) error {
	for {
		current, _ := currentValue(s.Snapshot(), ref)
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: current})
		if err != nil {
			return err
		}
		if _, err := s.SetField(ref, answer); err != nil {
			if ierr := r.info(ctx, status.Error, err.Error()); ierr != nil {
				return ierr
			}
			continue
		}
		s.Commit(ref)
		problems := s.FieldErrors(ref)
		if len(problems) == 0 {
			return nil
		}
		for _, msg := range problems {
			if err := r.info(ctx, status.Error, msg); err != nil {
				return err
			}
		}
	}
}

func (r *Renderer) promptDepartment(ctx context.Context, s *session.Session, ref model.FieldRef, label string) error {
	options := s.Config().Departments
	current, _ := currentValue(s.Snapshot(), ref)
	def := indexOf(options.Values(), current)
	if def < 0 {
		def = 0
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options.Labels(),
		DefaultIndex: def,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return nil
	}
	_, err = s.SetField(ref, options[idx].Value)
	return err
}

func (r *Renderer) promptPreferences(ctx context.Context, s *session.Session, pos int, label string) error {
	options := s.Config().Preferences
	entry, _ := s.Snapshot().Contact(pos)
	idx, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  label,
		Options:  options.Labels(),
		Defaults: indicesOf(options.Values(), entry.Preferences),
	})
	if err != nil {
		return err
	}
	tags := make([]string, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(options) {
			tags = append(tags, options[i].Value)
		}
	}
	return s.SetPreferences(pos, tags)
}

// flush prints queued status updates. A reset offer is answered with a
// confirm prompt; reset reports whether the form was reset.
func (r *Renderer) flush(ctx context.Context, s *session.Session) (reset bool, err error) {
	for _, u := range r.feed.drain() {
		switch u.Kind {
		case status.KindMessage:
			if err := r.info(ctx, u.Severity, u.Message); err != nil {
				return reset, err
			}
		case status.KindResetOffer:
			ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: u.Message, Default: true})
			if err != nil {
				return reset, err
			}
			if ok {
				if err := s.Reset(); err != nil {
					return reset, fmt.Errorf("tui: reset: %w", err)
				}
				reset = true
			}
		}
	}
	return reset, nil
}

func (r *Renderer) info(ctx context.Context, sev status.Severity, msg string) error {
	prefix := r.theme.InfoPrefix
	switch sev {
	case status.Success:
		prefix = r.theme.SuccessPrefix
	case status.Error:
		prefix = r.theme.ErrorPrefix
	}
	return r.driver.Info(ctx, prefix+msg)
}

func currentValue(state model.FormState, ref model.FieldRef) (string, bool) {
	if ref.IsTopLevel() {
		return state.TopLevelValue(ref.Name)
	}
	entry, ok := state.Contact(ref.Position)
	if !ok {
		return "", false
	}
	switch ref.Name {
	case model.FieldEmail:
		return entry.Email, true
	case model.FieldPhone:
		return entry.Phone, true
	case model.FieldDepartment:
		return entry.Department, true
	case model.FieldEmailDepartment:
		return entry.EmailDepartment, true
	case model.FieldPhoneDepartment:
		return entry.PhoneDepartment, true
	default:
		return "", false
	}
}
