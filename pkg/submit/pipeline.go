// Package submit turns a validated form snapshot into a payload and drives
// the retry protocol against the intake endpoint. A Pipeline owns the
// in-flight lock: while one submission runs, further Submit calls return
// ErrInFlight without touching the network.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/internal/contract"
	"github.com/goliatone/go-contactform/pkg/messages"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/schedule"
	"github.com/goliatone/go-contactform/pkg/status"
	"github.com/goliatone/go-contactform/pkg/validation"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Phase is the pipeline state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no automatic transition follows p.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// Validator is the synchronous check run before any network call.
type Validator interface {
	Validate(state model.FormState) validation.Errors
}

// Result summarizes one Submit call.
type Result struct {
	Phase        Phase
	Attempts     int
	Delays       []time.Duration
	SubmissionID string
	Verdict      Verdict
	Errors       validation.Errors
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithValidator sets the pre-submit validator.
func WithValidator(v Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithRetry sets the attempt ceiling and the base backoff delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if baseDelay >= 0 {
			p.baseDelay = baseDelay
		}
	}
}

// WithClock overrides the clock used for timestamps and backoff.
func WithClock(c schedule.Clock) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithCatalog sets the catalog for status messages.
func WithCatalog(c *messages.Catalog) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.catalog = c
		}
	}
}

// WithSink sets where status updates and lock changes go.
func WithSink(s status.Sink) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sink = s
		}
	}
}

// WithPayloadOptions sets serialization details.
func WithPayloadOptions(opts PayloadOptions) Option {
	return func(p *Pipeline) { p.payload = opts }
}

// WithContract checks every payload against the intake contract before the
// first attempt. Violations fail the submission without a network call.
func WithContract(c *contract.Contract) Option {
	return func(p *Pipeline) { p.contract = c }
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// Pipeline runs submissions.
type Pipeline struct {
	transport Transport
	validator Validator
	clock     schedule.Clock
	attempts  int
	baseDelay time.Duration
	logger    *zap.Logger
	metrics   *Metrics
	catalog   *messages.Catalog
	sink      status.Sink
	payload   PayloadOptions
	contract  *contract.Contract
	newID     func() string

	inFlight atomic.Bool
	mu       sync.Mutex
	phase    Phase
	attempt  int
}

// NewPipeline builds a Pipeline around transport.
func NewPipeline(transport Transport, opts ...Option) (*Pipeline, error) {
	if transport == nil {
		return nil, errors.New("submit: transport is required")
	}
	p := &Pipeline{
		transport: transport,
		clock:     schedule.System,
		attempts:  DefaultMaxAttempts,
		baseDelay: DefaultBaseDelay,
		logger:    zap.NewNop(),
		catalog:   messages.Default(),
		sink:      status.Discard,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Phase returns the current state and attempt number.
func (p *Pipeline) Phase() (Phase, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase, p.attempt
}

// InFlight reports whether the lock is held.
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Backoff returns the delay scheduled after attempt n fails:
// baseDelay * 2^(n-1).
func (p *Pipeline) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return p.baseDelay << (n - 1)
}

// Submit validates state and, when clean, delivers it with retries. It
// blocks until a terminal phase is reached (or validation fails, which
// returns to PhaseIdle). Cancelling ctx abandons pending retries.
func (p *Pipeline) Submit(ctx context.Context, state model.FormState) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("submit: context is required")
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.submission("rejected_in_flight")
		return Result{}, ErrInFlight
	}
	defer p.inFlight.Store(false)

	snapshot := state.Clone()
	p.setPhase(PhaseValidating, 0)
	p.publish(status.Info, p.catalog.Render(messages.Validating, nil))

	if p.validator != nil {
		if errs := p.validator.Validate(snapshot); len(errs) > 0 {
			p.setPhase(PhaseIdle, 0)
			p.metrics.submission("invalid")
			p.publish(status.Error, errs.Display())
			p.logger.Debug("submission blocked by validation", zap.Int("violations", len(errs)))
			return Result{Phase: PhaseIdle, Errors: errs}, errs
		}
	}

	result := Result{SubmissionID: p.newID()}
	opts := p.payload
	opts.SubmissionID = result.SubmissionID
	opts.Now = p.clock.Now()
	payload := BuildPayload(snapshot, opts)

	if p.contract != nil {
		if err := p.contract.ValidatePayload(payload); err != nil {
			p.setPhase(PhaseFailed, 0)
			p.metrics.submission("failed")
			p.logger.Error("payload violates intake contract", zap.Error(err))
			p.publish(status.Error, p.catalog.Render(messages.Unexpected, nil))
			result.Phase = PhaseFailed
			return result, &TerminalError{Message: "contract violation", Err: err}
		}
	}

	p.lock(true)
	lastErr := p.run(ctx, payload, &result)
	p.lock(false)

	if lastErr == nil {
		p.setPhase(PhaseSucceeded, result.Attempts)
		p.metrics.submission("succeeded")
		p.logger.Info("submission delivered",
			zap.String("submission_id", result.SubmissionID),
			zap.Int("attempts", result.Attempts))
		p.publish(status.Success, p.catalog.Render(messages.Succeeded, nil))
		result.Phase = PhaseSucceeded
		return result, nil
	}

	p.setPhase(PhaseFailed, result.Attempts)
	p.metrics.submission("failed")
	p.logger.Error("submission failed",
		zap.String("submission_id", result.SubmissionID),
		zap.Int("attempts", result.Attempts),
		zap.Error(lastErr))
	result.Phase = PhaseFailed

	var terminal *TerminalError
	if errors.As(lastErr, &terminal) {
		p.publish(status.Error, p.catalog.Render(messages.Rejected, messages.Params{"reason": terminal.Message}))
		return result, lastErr
	}
	p.publish(status.Error, p.catalog.Render(messages.Failed, nil))
	if ctx.Err() != nil {
		return result, fmt.Errorf("submit: abandoned after %d attempts: %w", result.Attempts, lastErr)
	}
	return result, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, result.Attempts, lastErr)
}

func (p *Pipeline) run(ctx context.Context, payload Payload, result *Result) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return lastErr
		}

		p.setPhase(PhaseSubmitting, attempt)
		p.publish(status.Info, p.catalog.Render(messages.Sending, messages.Params{"attempt": attempt}))
		result.Attempts = attempt

		started := p.clock.Now()
		verdict, err := p.transport.Send(ctx, payload)
		elapsed := p.clock.Now().Sub(started)
		if err == nil {
			p.metrics.attempt("success", elapsed)
			result.Verdict = verdict
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			p.metrics.attempt("terminal", elapsed)
			p.logger.Warn("submission rejected", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		p.metrics.attempt("transient", elapsed)

		if attempt == p.attempts {
			p.logger.Warn("submission attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			break
		}

		delay := p.Backoff(attempt)
		p.logger.Warn("submission attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		result.Delays = append(result.Delays, delay)
		if err := p.clock.Sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (p *Pipeline) setPhase(phase Phase, attempt int) {
	p.mu.Lock()
	p.phase = phase
	p.attempt = attempt
	p.mu.Unlock()
}

func (p *Pipeline) publish(sev status.Severity, msg string) {
	p.sink.Publish(status.Message(sev, msg))
}

func (p *Pipeline) lock(held bool) {
	p.metrics.lock(held)
	p.sink.Locked(held)
}
