package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goliatone/go-contactform/pkg/testsupport"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(testsupport.Context())
	return out.String(), err
}

func TestValidateCommandAcceptsValidState(t *testing.T) {
	out, err := execute(t, "validate", "--state", "testdata/state.yaml")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if strings.TrimSpace(out) != "ok" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidateCommandReportsFieldErrors(t *testing.T) {
	out, err := execute(t, "validate", "--state", "testdata/invalid.yaml")
	if err == nil {
		t.Fatalf("expected validation failure, got output %q", out)
	}
	for _, id := range []string{"email-1:", "phone-1:"} {
		if !strings.Contains(out, id) {
			t.Fatalf("expected %s in output:\n%s", id, out)
		}
	}
}

func TestSubmitCommandDeliversToEndpoint(t *testing.T) {
	intake := testsupport.NewIntakeServer(t)
	state := testsupport.MustLoadState(t, "testdata/state.yaml")

	out, err := execute(t, "submit", "--state", "testdata/state.yaml", "--endpoint", intake.URL)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if intake.Calls() != 1 {
		t.Fatalf("expected one request, got %d", intake.Calls())
	}
	body := intake.Requests()[0].Body
	if got := body["companyId"]; got != "12.345.678/0001-95" {
		t.Fatalf("expected masked company id, got %v", got)
	}
	if got := body["companyName"]; got != state.CompanyName {
		t.Fatalf("companyName = %v, want %q", got, state.CompanyName)
	}
	contacts, _ := body["contacts"].([]any)
	if len(contacts) != len(state.Contacts) {
		t.Fatalf("expected %d contacts, got %d", len(state.Contacts), len(contacts))
	}
	if !strings.Contains(out, "delivered after 1 attempt(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSubmitCommandDryRunPrintsPayload(t *testing.T) {
	out, err := execute(t, "submit", "--state", "testdata/state.yaml", "--dry-run")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"companyName": "ACME Ltda"`) {
		t.Fatalf("payload missing from output:\n%s", out)
	}
}

func TestSubmitCommandRequiresState(t *testing.T) {
	if _, err := execute(t, "submit", "--dry-run"); err == nil {
		t.Fatal("expected missing --state to fail")
	}
}

func TestConfigFlagOverrides(t *testing.T) {
	a := &app{endpoint: "http://intake.test/contacts", locale: "en"}
	cfg, err := a.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Endpoint != "http://intake.test/contacts" || cfg.Locale != "en" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestPrefillFlagHelpListsKeys(t *testing.T) {
	root := newRootCmd()
	usage := root.PersistentFlags().Lookup("prefill").Usage
	for _, key := range []string{"cnpj", "razaoSocial", "telefone"} {
		if !strings.Contains(usage, key) {
			t.Fatalf("expected %q in --prefill help: %q", key, usage)
		}
	}
}
