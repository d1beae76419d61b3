package submit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contactform/internal/contract"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/testsupport"
)

func TestBuildPayloadSkipsBlankEntriesAndKeepsPositions(t *testing.T) {
	state := testsupport.ValidState()
	state.Contacts = append(state.Contacts,
		model.ContactEntry{Position: 2},
		model.ContactEntry{Position: 3, Email: "rh@acme.com.br", Phone: "(11) 3333-4444", Department: "rh", Preferences: []string{"eventos"}},
	)

	payload := submit.BuildPayload(state, submit.PayloadOptions{
		SubmissionID: "id-1",
		Source:       submit.DefaultSource,
		ClientInfo:   "test-agent",
		Now:          epoch,
	})

	want := submit.Payload{
		CompanyID:     "12.345.678/0001-95",
		CompanyName:   "ACME Ltda",
		AnnualRevenue: "R$ 1.234,56",
		EmployeeCount: 42,
		Contacts: []submit.ContactPayload{
			{Position: 1, Email: "ana@acme.com.br", Phone: "(11) 98765-4321", Department: "financeiro", Preferences: []string{"boletos", "notas_fiscais"}},
			{Position: 3, Email: "rh@acme.com.br", Phone: "(11) 3333-4444", Department: "rh", Preferences: []string{"eventos"}},
		},
		Timestamp:    "2024-03-01T12:00:00.000Z",
		ClientInfo:   "test-agent",
		FormVersion:  "2.0",
		Source:       "formulario_web",
		SubmissionID: "id-1",
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayloadMatchesGolden(t *testing.T) {
	state := testsupport.MustLoadState(t, "testdata/state.yaml")

	payload := submit.BuildPayload(state, submit.PayloadOptions{
		SubmissionID: "golden-1",
		Source:       submit.DefaultSource,
		ClientInfo:   "test-agent",
		Now:          epoch,
		Preferences:  model.DefaultPreferences(),
	})

	const golden = "testdata/payload.golden.json"
	testsupport.WriteGolden(t, golden, payload)
	var want submit.Payload
	testsupport.MustReadGolden(t, golden, &want)
	if diff := testsupport.CompareGolden(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayloadOptions(t *testing.T) {
	state := testsupport.ValidState()
	state.EmployeeCount = "muitos"
	state.Contacts[0].Preferences = []string{"eventos", "boletos"}

	payload := submit.BuildPayload(state, submit.PayloadOptions{
		PhoneFormat: submit.PhoneDigits,
		Preferences: model.DefaultPreferences(),
		Now:         epoch,
	})
	if payload.EmployeeCount != 0 {
		t.Fatalf("unparsable count should serialize as 0, got %d", payload.EmployeeCount)
	}
	contact := payload.Contacts[0]
	if contact.Phone != "11987654321" {
		t.Fatalf("expected digit phone, got %q", contact.Phone)
	}
	if diff := cmp.Diff([]string{"boletos", "eventos"}, contact.Preferences); diff != "" {
		t.Fatalf("preferences should follow option order (-want +got):\n%s", diff)
	}
}

func TestBuildPayloadJSONShape(t *testing.T) {
	state := testsupport.ValidState()
	state.Contacts[0].Preferences = nil
	payload := submit.BuildPayload(state, submit.PayloadOptions{Now: epoch})

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	contacts := doc["contacts"].([]any)
	first := contacts[0].(map[string]any)
	if prefs, ok := first["preferences"].([]any); !ok || len(prefs) != 0 {
		t.Fatalf("preferences should be an empty array, got %#v", first["preferences"])
	}
	if _, ok := first["emailDepartment"]; ok {
		t.Fatalf("empty per-channel departments should be omitted")
	}
	if _, ok := doc["submissionId"]; ok {
		t.Fatalf("empty submission id should be omitted")
	}
}

func TestBuildPayloadSatisfiesContract(t *testing.T) {
	c, err := contract.Default(context.Background())
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	payload := submit.BuildPayload(testsupport.ValidState(), submit.PayloadOptions{Now: epoch, SubmissionID: "x"})
	if err := c.ValidatePayload(payload); err != nil {
		t.Fatalf("payload should satisfy contract: %v", err)
	}
}
