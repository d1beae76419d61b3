package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contactform/pkg/config"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/schedule"
	"github.com/goliatone/go-contactform/pkg/session"
	"github.com/goliatone/go-contactform/pkg/submit"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	confirmCfgs  []ConfirmConfig
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.confirmCfgs = append(s.confirmCfgs, cfg)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newSession(t *testing.T, r *Renderer, transport submit.Transport) *session.Session {
	t.Helper()
	s, err := session.New(config.Default(),
		session.WithTransport(transport),
		session.WithClock(schedule.NewFakeClock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))),
		session.WithSink(r.Sink()),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func companyAnswers() []string {
	return []string{"12.345.678/0001-95", "ACME Ltda", "123456", "42"}
}

func TestRunFillsAndSubmits(t *testing.T) {
	var sent []submit.Payload
	transport := submit.TransportFunc(func(_ context.Context, p submit.Payload) (submit.Verdict, error) {
		sent = append(sent, p)
		return submit.Verdict{Success: true}, nil
	})
	driver := &stubDriver{
		inputs:    append(companyAnswers(), "ana@acme.com.br", "11987654321"),
		selectIdx: []int{0, menuSubmit},
		multiIdx:  [][]int{{0, 1}},
		confirm:   []bool{false},
	}
	r := New(WithPromptDriver(driver))
	s := newSession(t, r, transport)

	result, err := r.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Phase != submit.PhaseSucceeded {
		t.Fatalf("expected success, got %s", result.Phase)
	}
	if len(sent) != 1 {
		t.Fatalf("expected one payload, got %d", len(sent))
	}
	want := []submit.ContactPayload{{
		Position:    1,
		Email:       "ana@acme.com.br",
		Phone:       "(11) 98765-4321",
		Department:  "financeiro",
		Preferences: []string{"boletos", "notas_fiscais"},
	}}
	if diff := cmp.Diff(want, sent[0].Contacts); diff != "" {
		t.Fatalf("contacts (-want +got):\n%s", diff)
	}
	if sent[0].AnnualRevenue != "R$ 1.234,56" {
		t.Fatalf("revenue = %q", sent[0].AnnualRevenue)
	}
	if len(driver.confirmCfgs) != 1 || !driver.confirmCfgs[0].Default {
		t.Fatalf("reset offer should default to yes, got %+v", driver.confirmCfgs)
	}
	joined := strings.Join(driver.infoMessages, "\n")
	if !strings.Contains(joined, "Enviando dados... (tentativa 1)") || !strings.Contains(joined, "Dados enviados com sucesso") {
		t.Fatalf("expected status lines, got %q", joined)
	}
}

func TestRunReasksInvalidEmail(t *testing.T) {
	driver := &stubDriver{
		inputs:    append(companyAnswers(), "ana@", "ana@acme.com.br", "1133334444"),
		selectIdx: []int{2, menuQuit},
		multiIdx:  [][]int{{3}},
	}
	r := New(WithPromptDriver(driver))
	s := newSession(t, r, submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		t.Fatalf("quit must not submit")
		return submit.Verdict{}, nil
	}))

	if _, err := r.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(strings.Join(driver.infoMessages, "\n"), "E-mail do contato 1 não é válido") {
		t.Fatalf("expected real-time error to be shown, got %v", driver.infoMessages)
	}
	entry, _ := s.Snapshot().Contact(1)
	want := model.ContactEntry{Position: 1, Email: "ana@acme.com.br", Phone: "(11) 3333-4444", Department: "rh", Preferences: []string{"eventos"}}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("entry (-want +got):\n%s", diff)
	}
}

func TestRunValidationFailureReturnsToMenu(t *testing.T) {
	calls := 0
	transport := submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		calls++
		return submit.Verdict{Success: true}, nil
	})
	driver := &stubDriver{
		// Company skipped with empty answers; contact left blank.
		inputs:    []string{"", "", "", "", "", ""},
		selectIdx: []int{0, menuSubmit, menuQuit},
		multiIdx:  [][]int{{}},
	}
	r := New(WithPromptDriver(driver))
	s := newSession(t, r, transport)

	result, err := r.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 0 || result.Phase != submit.PhaseIdle {
		t.Fatalf("invalid form must not be sent: calls=%d phase=%s", calls, result.Phase)
	}
	if len(s.Errors()) == 0 {
		t.Fatalf("expected errors recorded on the session")
	}
	if !strings.Contains(strings.Join(driver.infoMessages, "\n"), "Faturamento bruto anual é obrigatório") {
		t.Fatalf("expected validation summary, got %v", driver.infoMessages)
	}
}

func TestAddAndRemoveFromMenu(t *testing.T) {
	driver := &stubDriver{
		inputs: append(companyAnswers(),
			"ana@acme.com.br", "11987654321",
			"rh@acme.com.br", "1133334444",
		),
		// department of contact 1, add, department of contact 2, remove
		// the only removable contact, quit
		selectIdx: []int{0, menuAdd, 2, menuRemove, 0, menuQuit},
		multiIdx: [][]int{{0}, {1}},
		confirm:  []bool{true},
	}
	r := New(WithPromptDriver(driver))
	s := newSession(t, r, submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		return submit.Verdict{Success: true}, nil
	}))

	if _, err := r.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected the added contact to be removed, len=%d", s.Len())
	}
}

func TestAbortPropagates(t *testing.T) {
	r := New(WithPromptDriver(abortDriver{&stubDriver{}}))
	s := newSession(t, r, submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		return submit.Verdict{Success: true}, nil
	}))
	if _, err := r.Run(context.Background(), s); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if _, err := r.Run(context.Background(), nil); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

type abortDriver struct{ *stubDriver }

func (abortDriver) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }

func TestSelectionHelpers(t *testing.T) {
	opts := []string{"a", "b", "c"}
	if indexOf(opts, "c") != 2 || indexOf(opts, "z") != -1 {
		t.Fatalf("indexOf mismatch")
	}
	if diff := cmp.Diff([]int{0, 2}, indicesOf(opts, []string{"c", "a"})); diff != "" {
		t.Fatalf("indicesOf (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, defaultsFromIndices(opts, []int{1, 7})); diff != "" {
		t.Fatalf("defaultsFromIndices (-want +got):\n%s", diff)
	}
}
