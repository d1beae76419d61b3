// Package session is the composition root of one form. A Session owns the
// company fields and the repeating contact group, applies input masks,
// runs debounced real-time checks, and hands snapshots to the submission
// pipeline. All methods are safe for concurrent use; mutations are rejected
// while a submission holds the lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/internal/contract"
	"github.com/goliatone/go-contactform/pkg/config"
	"github.com/goliatone/go-contactform/pkg/group"
	"github.com/goliatone/go-contactform/pkg/mask"
	"github.com/goliatone/go-contactform/pkg/messages"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/prefill"
	"github.com/goliatone/go-contactform/pkg/schedule"
	"github.com/goliatone/go-contactform/pkg/status"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/validation"
)

var (
	// ErrLocked is returned by mutations attempted while a submission is in
	// flight.
	ErrLocked = errors.New("session: form is locked while submitting")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
	// ErrUnknownField is returned for refs that address no editable field.
	ErrUnknownField = errors.New("session: unknown field")
	// ErrUnknownOption is returned for department or preference values
	// outside the configured option sets.
	ErrUnknownOption = errors.New("session: unknown option")
)

// Option configures a Session.
type Option func(*options)

type options struct {
	transport submit.Transport
	clock     schedule.Clock
	sink      status.Sink
	logger    *zap.Logger
	metrics   *submit.Metrics
	prefill   prefill.Params
	listeners []group.Listener
	newID     func() string
}

// WithTransport overrides the HTTP transport built from the config endpoint.
func WithTransport(t submit.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithClock sets the clock driving debounce, backoff and dismiss timers.
func WithClock(c schedule.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSink sets the status stream consumer.
func WithSink(s status.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics attaches submission metrics.
func WithMetrics(m *submit.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPrefill seeds the form. Values override those parsed from the
// config's prefill query.
func WithPrefill(p prefill.Params) Option {
	return func(o *options) { o.prefill = p }
}

// WithListener receives group events (added, removed, focus, ...).
// Listeners run synchronously and must not call back into the session.
func WithListener(fn group.Listener) Option {
	return func(o *options) {
		if fn != nil {
			o.listeners = append(o.listeners, fn)
		}
	}
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// Session is one live form.
type Session struct {
	cfg      config.Config
	clock    schedule.Clock
	logger   *zap.Logger
	catalog  *messages.Catalog
	currency mask.CurrencyMask
	engine   *validation.Engine
	pipeline *submit.Pipeline
	sink     status.Sink
	prefill  prefill.Params

	mu       sync.Mutex
	company  model.FormState
	group    *group.Manager
	debounce *schedule.Debouncer
	dirty    map[model.FieldRef]struct{}
	dismiss  schedule.Timer
	closed   bool

	locked atomic.Bool
}

// New builds a session from cfg. The initial state is the seeded group with
// prefill applied.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{clock: schedule.System, sink: status.Discard, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.clock == nil {
		o.clock = schedule.System
	}
	if o.sink == nil {
		o.sink = status.Discard
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	params, err := prefill.Parse(cfg.Prefill)
	if err != nil {
		return nil, fmt.Errorf("session: prefill: %w", err)
	}
	for k, v := range o.prefill {
		params[k] = v
	}

	transport := o.transport
	if transport == nil {
		t, err := cfg.Transport()
		if err != nil {
			return nil, err
		}
		transport = t
	}

	s := &Session{
		cfg:      cfg,
		clock:    o.clock,
		logger:   o.logger,
		catalog:  catalog,
		currency: cfg.CurrencyMask(),
		engine:   validation.New(cfg.Rules(), validation.WithCatalog(catalog)),
		prefill:  params,
		dirty:    make(map[model.FieldRef]struct{}),
	}
	s.sink = lockTracker{session: s, next: o.sink}

	pipelineOpts := []submit.Option{
		submit.WithValidator(s.engine),
		submit.WithClock(o.clock),
		submit.WithRetry(cfg.Retry.Attempts, cfg.Retry.BaseDelay),
		submit.WithLogger(o.logger.Named("submit")),
		submit.WithMetrics(o.metrics),
		submit.WithCatalog(catalog),
		submit.WithSink(s.sink),
		submit.WithPayloadOptions(cfg.PayloadOptions()),
		submit.WithIDGenerator(o.newID),
	}
	if cfg.ValidatePayload {
		c, err := contract.Default(context.Background())
		if err != nil {
			return nil, err
		}
		if limit, ok := c.MaxContacts(); ok && cfg.MaxContacts > limit {
			return nil, fmt.Errorf("session: maxContacts %d exceeds the intake contract limit of %d; disable validatePayload or lower maxContacts", cfg.MaxContacts, limit)
		}
		pipelineOpts = append(pipelineOpts, submit.WithContract(c))
	}
	s.pipeline, err = submit.NewPipeline(transport, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	groupOpts := make([]group.Option, 0, len(o.listeners))
	for _, fn := range o.listeners {
		groupOpts = append(groupOpts, group.WithListener(fn))
	}
	s.group = group.New(cfg.GroupConfig(), groupOpts...)
	s.debounce = schedule.NewDebouncer(o.clock, cfg.Debounce)
	s.applyPrefillLocked()
	return s, nil
}

// lockTracker mirrors the pipeline lock into the session before forwarding.
type lockTracker struct {
	session *Session
	next    status.Sink
}

func (l lockTracker) Publish(u status.Update) { l.next.Publish(u) }

func (l lockTracker) Locked(locked bool) {
	l.session.locked.Store(locked)
	l.next.Locked(locked)
}

// Config returns the session configuration.
func (s *Session) Config() config.Config { return s.cfg }

// Catalog returns the message catalog in use.
func (s *Session) Catalog() *messages.Catalog { return s.catalog }

// Locked reports whether a submission is in flight.
func (s *Session) Locked() bool {
	return s.locked.Load() || s.pipeline.InFlight()
}

// Phase reports the pipeline state and current attempt.
func (s *Session) Phase() (submit.Phase, int) {
	return s.pipeline.Phase()
}

// Snapshot returns a deep copy of the whole form.
func (s *Session) Snapshot() model.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() model.FormState {
	out := s.company
	out.Contacts = s.group.Contacts()
	return out
}

// Errors returns the per-field error map keyed by field id ("email-2").
func (s *Session) Errors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.Errors().Snapshot()
}

// FieldErrors returns the messages attached to ref.
func (s *Session) FieldErrors(ref model.FieldRef) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.Errors().For(ref)
}

// Len returns the number of contact entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.Len()
}

// CanAdd reports whether another contact fits.
func (s *Session) CanAdd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.CanAdd()
}

// CanRemove reports whether the contact at position may be removed.
func (s *Session) CanRemove(position int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.CanRemove(position)
}

// FieldRefs lists every editable contact field in display order.
func (s *Session) FieldRefs() []model.FieldRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.FieldRefs()
}

func (s *Session) guard() error {
	if s.closed {
		return ErrClosed
	}
	if s.Locked() {
		return ErrLocked
	}
	return nil
}

// SetField stores raw into ref after applying the field's mask and
// schedules the debounced real-time check. It returns the stored value.
func (s *Session) SetField(ref model.FieldRef, raw string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return "", err
	}
	value, err := s.setLocked(ref, raw)
	if err != nil {
		return "", err
	}
	if live(ref) {
		s.dirty[ref] = struct{}{}
		s.debounce.Trigger(s.runLive)
	}
	return value, nil
}

// Commit runs the real-time check for ref and any pending edits now, as on
// a change or blur event.
func (s *Session) Commit(ref model.FieldRef) {
	s.mu.Lock()
	if live(ref) {
		s.dirty[ref] = struct{}{}
	}
	s.mu.Unlock()
	s.debounce.Flush(s.runLive)
}

func live(ref model.FieldRef) bool {
	return !ref.IsTopLevel() && (ref.Name == model.FieldEmail || ref.Name == model.FieldPhone)
}

// runLive re-checks every field edited since the last run. Each run reads
// current state, so a stale trigger is harmless.
func (s *Session) runLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	state := s.snapshotLocked()
	errs := s.group.Errors()
	for ref := range s.dirty {
		delete(s.dirty, ref)
		if _, ok := state.Contact(ref.Position); !ok {
			continue
		}
		violations := s.engine.ValidateField(state, ref)
		if len(violations) == 0 {
			errs.Clear(ref)
			continue
		}
		errs.Set(ref, violations.Messages()...)
	}
}

func (s *Session) setLocked(ref model.FieldRef, raw string) (string, error) {
	if ref.IsTopLevel() {
		var value string
		switch ref.Name {
		case model.FieldCompanyID:
			value = raw
			s.company.CompanyID = value
		case model.FieldCompanyName:
			value = raw
			s.company.CompanyName = value
		case model.FieldAnnualRevenue:
			value = s.currency.Format(s.company.AnnualRevenue, raw)
			s.company.AnnualRevenue = value
		case model.FieldEmployeeCount:
			value = strings.TrimSpace(raw)
			s.company.EmployeeCount = value
		default:
			return "", fmt.Errorf("%w: %s", ErrUnknownField, ref)
		}
		return value, nil
	}

	var value string
	var optErr error
	err := s.group.Update(ref.Position, func(e *model.ContactEntry) {
		switch ref.Name {
		case model.FieldEmail:
			value = raw
			e.Email = value
		case model.FieldPhone:
			value = mask.PhoneFormatter.Format(e.Phone, raw)
			e.Phone = value
		case model.FieldDepartment, model.FieldEmailDepartment, model.FieldPhoneDepartment:
			value = strings.TrimSpace(raw)
			if value != "" && !s.cfg.Departments.Contains(value) {
				optErr = fmt.Errorf("%w: department %q", ErrUnknownOption, value)
				return
			}
			switch ref.Name {
			case model.FieldDepartment:
				e.Department = value
			case model.FieldEmailDepartment:
				e.EmailDepartment = value
			default:
				e.PhoneDepartment = value
			}
		default:
			optErr = fmt.Errorf("%w: %s", ErrUnknownField, ref)
		}
	})
	if err != nil {
		return "", err
	}
	if optErr != nil {
		return "", optErr
	}
	return value, nil
}

// SetPreferences replaces the selected communication tags of an entry.
func (s *Session) SetPreferences(position int, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	for _, tag := range tags {
		if !s.cfg.Preferences.Contains(tag) {
			return fmt.Errorf("%w: preference %q", ErrUnknownOption, tag)
		}
	}
	ordered := s.cfg.Preferences.Order(tags)
	return s.group.Update(position, func(e *model.ContactEntry) {
		e.Preferences = ordered
	})
}

// TogglePreference flips one tag and reports whether it is now selected.
func (s *Session) TogglePreference(position int, tag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return false, err
	}
	if !s.cfg.Preferences.Contains(tag) {
		return false, fmt.Errorf("%w: preference %q", ErrUnknownOption, tag)
	}
	var selected bool
	err := s.group.Update(position, func(e *model.ContactEntry) {
		next := make([]string, 0, len(e.Preferences)+1)
		for _, p := range e.Preferences {
			if p != tag {
				next = append(next, p)
			}
		}
		selected = len(next) == len(e.Preferences)
		if selected {
			next = append(next, tag)
		}
		e.Preferences = s.cfg.Preferences.Order(next)
	})
	return selected, err
}

// AddContact appends an empty entry. Capacity errors are also published on
// the status stream.
func (s *Session) AddContact() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return 0, err
	}
	entry, err := s.group.Add()
	if err != nil {
		s.publishStructural(err)
		return 0, err
	}
	return entry.Position, nil
}

// RemoveContact deletes the entry at position and renumbers the rest.
func (s *Session) RemoveContact(position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.group.Remove(position); err != nil {
		s.publishStructural(err)
		return err
	}
	for ref := range s.dirty {
		if ref.Position >= position {
			delete(s.dirty, ref)
		}
	}
	return nil
}

func (s *Session) publishStructural(err error) {
	var se *group.StructuralError
	if !errors.As(err, &se) {
		return
	}
	var msg string
	switch {
	case errors.Is(err, group.ErrCapacityExceeded):
		msg = s.catalog.Render(messages.CapacityError, messages.Params{"max": se.Limit})
	case errors.Is(err, group.ErrRequiredEntry):
		msg = s.catalog.Render(messages.RequiredEntry, messages.Params{"position": se.Position})
	default:
		msg = s.catalog.Render(messages.UnknownEntry, messages.Params{"position": se.Position})
	}
	s.sink.Publish(status.Message(status.Error, msg))
}

// Load replaces the whole form, e.g. from a saved state file. Phones and
// 14-digit company IDs are re-masked and currency is normalized.
func (s *Session) Load(state model.FormState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	contacts := make([]model.ContactEntry, len(state.Contacts))
	for i, c := range state.Contacts {
		c = c.Clone()
		c.Phone = mask.Phone(c.Phone)
		if len(c.Preferences) > 0 {
			c.Preferences = s.cfg.Preferences.Order(c.Preferences)
		}
		contacts[i] = c
	}
	if err := s.group.Load(contacts); err != nil {
		return err
	}
	s.company = model.FormState{
		CompanyID:     mask.CompanyID(state.CompanyID),
		CompanyName:   state.CompanyName,
		AnnualRevenue: s.currency.Format("", state.AnnualRevenue),
		EmployeeCount: strings.TrimSpace(state.EmployeeCount),
	}
	clear(s.dirty)
	s.debounce.Cancel()
	return nil
}

// Submit validates the form and delivers it. On validation failure the
// error map is replaced with the full result and focus moves to the first
// offending field. On success the message is dismissed after the configured
// delay and a reset is offered.
func (s *Session) Submit(ctx context.Context) (submit.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return submit.Result{}, ErrClosed
	}
	s.debounce.Cancel()
	clear(s.dirty)
	s.stopDismissLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	result, err := s.pipeline.Submit(ctx, snapshot)
	if errors.Is(err, submit.ErrInFlight) {
		s.sink.Publish(status.Message(status.Info, s.catalog.Render(messages.SubmitInFlight, nil)))
		return result, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch result.Phase {
	case submit.PhaseIdle:
		s.group.Errors().Replace(result.Errors)
		if first, ok := result.Errors.First(); ok {
			s.group.Focus(first)
		}
	case submit.PhaseSucceeded:
		s.group.Errors().Reset()
		s.scheduleDismissLocked()
		s.sink.Publish(status.Update{
			Kind:     status.KindResetOffer,
			Message:  s.catalog.Render(messages.ResetPrompt, nil),
			Severity: status.Success,
		})
	}
	return result, err
}

func (s *Session) scheduleDismissLocked() {
	if s.cfg.SuccessDismiss <= 0 {
		return
	}
	s.dismiss = s.clock.AfterFunc(s.cfg.SuccessDismiss, func() {
		s.sink.Publish(status.Update{Kind: status.KindDismiss})
	})
}

func (s *Session) stopDismissLocked() {
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
}

// Reset clears every value, shrinks the group to its required entries,
// hides the status message and re-applies the prefill.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.debounce.Cancel()
	clear(s.dirty)
	s.stopDismissLocked()
	s.group.Reset()
	s.company = model.FormState{}
	s.applyPrefillLocked()
	s.sink.Publish(status.Update{Kind: status.KindDismiss})
	s.logger.Debug("form reset", zap.Int("prefilled", len(s.prefill)))
	return nil
}

func (s *Session) applyPrefillLocked() {
	if s.prefill.Empty() {
		return
	}
	seeded := prefill.Apply(s.snapshotLocked(), s.prefill)
	s.company = model.FormState{
		CompanyID:     seeded.CompanyID,
		CompanyName:   seeded.CompanyName,
		AnnualRevenue: seeded.AnnualRevenue,
		EmployeeCount: seeded.EmployeeCount,
	}
	if len(seeded.Contacts) == 0 {
		return
	}
	first := seeded.Contacts[0]
	_ = s.group.Update(1, func(e *model.ContactEntry) {
		e.Email = first.Email
		e.Phone = first.Phone
	})
}

// Close cancels pending timers. The session rejects mutations afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.debounce.Close()
	s.stopDismissLocked()
}
