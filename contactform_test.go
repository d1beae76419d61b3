package contactform_test

import (
	"context"
	"errors"
	"testing"

	contactform "github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/pkg/session"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/testsupport"
	"github.com/goliatone/go-contactform/pkg/validation"
)

func TestSubmitStateDeliversPayload(t *testing.T) {
	intake := testsupport.NewIntakeServer(t)
	cfg := contactform.DefaultConfig()
	cfg.Endpoint = intake.URL

	result, err := contactform.SubmitState(context.Background(), cfg, testsupport.ValidState())
	if err != nil {
		t.Fatalf("SubmitState: %v", err)
	}
	if result.Phase != submit.PhaseSucceeded || result.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if intake.Calls() != 1 {
		t.Fatalf("expected one request, got %d", intake.Calls())
	}
}

func TestSubmitStateReturnsValidationErrors(t *testing.T) {
	state := testsupport.ValidState()
	state.Contacts[0].Email = "ana@"

	transport := submit.TransportFunc(func(context.Context, submit.Payload) (submit.Verdict, error) {
		t.Fatal("transport must not be called for an invalid form")
		return submit.Verdict{}, nil
	})
	_, err := contactform.SubmitState(context.Background(), contactform.DefaultConfig(), state,
		session.WithTransport(transport))

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if ref, _ := verrs.First(); ref.ID() != "email-1" {
		t.Fatalf("expected email-1 first, got %s", ref.ID())
	}
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := contactform.DefaultConfig()
	cfg.RequiredContacts = 0
	if _, err := contactform.NewSession(cfg); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}
