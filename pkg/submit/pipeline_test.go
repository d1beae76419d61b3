package submit_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-contactform/internal/contract"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/schedule"
	"github.com/goliatone/go-contactform/pkg/status"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/testsupport"
	"github.com/goliatone/go-contactform/pkg/validation"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type scriptedTransport struct {
	calls   atomic.Int32
	results []error
	seen    []submit.Payload
}

func (s *scriptedTransport) Send(_ context.Context, payload submit.Payload) (submit.Verdict, error) {
	n := int(s.calls.Add(1))
	s.seen = append(s.seen, payload)
	idx := n - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	if err := s.results[idx]; err != nil {
		return submit.Verdict{}, err
	}
	return submit.Verdict{Success: true}, nil
}

func newPipeline(t *testing.T, transport submit.Transport, clock *schedule.FakeClock, sink status.Sink, opts ...submit.Option) *submit.Pipeline {
	t.Helper()
	base := []submit.Option{
		submit.WithClock(clock),
		submit.WithSink(sink),
		submit.WithValidator(validation.New(validation.Rules{RequiredContacts: 1})),
		submit.WithIDGenerator(func() string { return "sub-1" }),
	}
	p, err := submit.NewPipeline(transport, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func newClock() *schedule.FakeClock { return schedule.NewFakeClock(epoch) }

func transient() error { return &submit.TransientError{StatusCode: 503, Message: "unavailable"} }

func TestSubmitRetriesWithExponentialBackoff(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	sink := &status.Recorder{}
	transport := &scriptedTransport{results: []error{transient(), transient(), nil}}
	p := newPipeline(t, transport, clock, sink)

	result, err := p.Submit(context.Background(), testsupport.ValidState())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Phase != submit.PhaseSucceeded || result.Attempts != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if diff := cmp.Diff(want, clock.Sleeps()); diff != "" {
		t.Fatalf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, result.Delays); diff != "" {
		t.Fatalf("delays mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, false}, sink.Locks()); diff != "" {
		t.Fatalf("lock transitions (-want +got):\n%s", diff)
	}
	msgs := sink.Messages()
	wantMsgs := []string{
		"Validando dados...",
		"Enviando dados... (tentativa 1)",
		"Enviando dados... (tentativa 2)",
		"Enviando dados... (tentativa 3)",
		"✔ Dados enviados com sucesso! Obrigado pela atualização.",
	}
	if diff := cmp.Diff(wantMsgs, msgs); diff != "" {
		t.Fatalf("status messages (-want +got):\n%s", diff)
	}
	if p.InFlight() {
		t.Fatalf("lock should be released")
	}
	if phase, _ := p.Phase(); phase != submit.PhaseSucceeded {
		t.Fatalf("expected succeeded phase, got %s", phase)
	}
	for _, payload := range transport.seen {
		if payload.SubmissionID != "sub-1" {
			t.Fatalf("retries must reuse the submission id, got %q", payload.SubmissionID)
		}
	}
}

func TestSubmitFailsAfterMaxAttempts(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	sink := &status.Recorder{}
	transport := &scriptedTransport{results: []error{transient()}}
	p := newPipeline(t, transport, clock, sink)

	result, err := p.Submit(context.Background(), testsupport.ValidState())
	if !errors.Is(err, submit.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	var te *submit.TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected the last transient error to be wrapped, got %v", err)
	}
	if result.Phase != submit.PhaseFailed || result.Attempts != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := transport.calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, clock.Sleeps()); diff != "" {
		t.Fatalf("no delay after the final attempt (-want +got):\n%s", diff)
	}
	if p.InFlight() {
		t.Fatalf("lock should be released after failure")
	}
	last, _ := sink.Last()
	if last.Severity != status.Error || !strings.Contains(last.Message, "após várias tentativas") {
		t.Fatalf("unexpected final status %+v", last)
	}
}

func TestSubmitTerminalErrorSkipsRetries(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	sink := &status.Recorder{}
	transport := &scriptedTransport{results: []error{&submit.TerminalError{StatusCode: 422, Message: "CNPJ inválido"}}}
	p := newPipeline(t, transport, clock, sink)

	result, err := p.Submit(context.Background(), testsupport.ValidState())
	var terminal *submit.TerminalError
	if !errors.As(err, &terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if result.Attempts != 1 || len(clock.Sleeps()) != 0 {
		t.Fatalf("terminal errors must not be retried: %+v sleeps=%v", result, clock.Sleeps())
	}
	last, _ := sink.Last()
	if !strings.Contains(last.Message, "(CNPJ inválido)") {
		t.Fatalf("expected reason in message, got %q", last.Message)
	}
}

func TestSubmitValidationFailureMakesNoNetworkCall(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	sink := &status.Recorder{}
	transport := &scriptedTransport{results: []error{nil}}
	p := newPipeline(t, transport, clock, sink)

	state := testsupport.ValidState()
	state.Contacts[0].Email = ""
	state.EmployeeCount = ""

	result, err := p.Submit(context.Background(), state)
	var errs validation.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if transport.calls.Load() != 0 {
		t.Fatalf("transport must not be called")
	}
	if result.Phase != submit.PhaseIdle {
		t.Fatalf("expected idle phase, got %s", result.Phase)
	}
	first, ok := result.Errors.First()
	if !ok || first != model.Entry(1, model.FieldEmail) {
		t.Fatalf("first error should target email-1, got %v", first)
	}
	if len(sink.Locks()) != 0 {
		t.Fatalf("lock must not be raised for invalid forms")
	}
	last, _ := sink.Last()
	if last.Message != errs.Display() {
		t.Fatalf("status should list violations, got %q", last.Message)
	}
}

func TestSubmitRejectsConcurrentCalls(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	transport := submit.TransportFunc(func(ctx context.Context, _ submit.Payload) (submit.Verdict, error) {
		calls.Add(1)
		close(entered)
		<-release
		return submit.Verdict{Success: true}, nil
	})
	p := newPipeline(t, transport, clock, status.Discard)

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), testsupport.ValidState())
		done <- err
	}()
	<-entered

	if !p.InFlight() {
		t.Fatalf("expected in-flight lock")
	}
	if _, err := p.Submit(context.Background(), testsupport.ValidState()); !errors.Is(err, submit.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if phase, attempt := p.Phase(); phase != submit.PhaseSubmitting || attempt != 1 {
		t.Fatalf("expected submitting(1), got %s(%d)", phase, attempt)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("second submit must not reach the transport")
	}
}

func TestSubmitCancelledContextAbandonsRetries(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	transport := submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		cancel()
		return submit.Verdict{}, transient()
	})
	p := newPipeline(t, transport, clock, status.Discard)

	result, err := p.Submit(ctx, testsupport.ValidState())
	if err == nil || errors.Is(err, submit.ErrRetriesExhausted) {
		t.Fatalf("expected abandonment error, got %v", err)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", result.Attempts)
	}
	if p.InFlight() {
		t.Fatalf("lock must be released")
	}
}

func TestSubmitContractViolationIsTerminal(t *testing.T) {
	c, err := contract.Default(context.Background())
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	clock := schedule.NewFakeClock(epoch)
	transport := &scriptedTransport{results: []error{nil}}
	// No validator: a negative count slips through to the contract check.
	p, err := submit.NewPipeline(transport,
		submit.WithClock(clock),
		submit.WithContract(c),
	)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	state := testsupport.ValidState()
	state.EmployeeCount = "-3"

	_, err = p.Submit(context.Background(), state)
	var terminal *submit.TerminalError
	if !errors.As(err, &terminal) {
		t.Fatalf("expected terminal contract error, got %v", err)
	}
	if transport.calls.Load() != 0 {
		t.Fatalf("invalid payloads must not be sent")
	}
}

func TestSubmitRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := submit.NewMetrics(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	clock := schedule.NewFakeClock(epoch)
	transport := &scriptedTransport{results: []error{transient(), nil}}
	p := newPipeline(t, transport, clock, status.Discard, submit.WithMetrics(metrics))

	if _, err := p.Submit(context.Background(), testsupport.ValidState()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("transient")); got != 1 {
		t.Fatalf("transient attempts = %v", got)
	}
	if got := testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("successful attempts = %v", got)
	}
	if got := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("succeeded submissions = %v", got)
	}
	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Fatalf("in-flight gauge = %v", got)
	}
	if _, err := submit.NewMetrics(reg); err == nil {
		t.Fatalf("registering twice should fail")
	}
}

func TestBackoffAndPhaseNames(t *testing.T) {
	p, err := submit.NewPipeline(submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		return submit.Verdict{Success: true}, nil
	}), submit.WithRetry(5, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	got := []time.Duration{p.Backoff(1), p.Backoff(2), p.Backoff(3), p.Backoff(4)}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("backoff (-want +got):\n%s", diff)
	}
	if submit.PhaseSubmitting.String() != "submitting" || !submit.PhaseFailed.Terminal() || submit.PhaseIdle.Terminal() {
		t.Fatalf("unexpected phase helpers")
	}
	if _, err := submit.NewPipeline(nil); err == nil {
		t.Fatalf("nil transport should be rejected")
	}
}
