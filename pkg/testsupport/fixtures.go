package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contactform/pkg/config"
	"github.com/goliatone/go-contactform/pkg/model"
)

// ValidState returns a snapshot that passes every submit-time rule with one
// required contact.
func ValidState() model.FormState {
	return model.FormState{
		CompanyID:     "12.345.678/0001-95",
		CompanyName:   "ACME Ltda",
		AnnualRevenue: "R$ 1.234,56",
		EmployeeCount: "42",
		Contacts: []model.ContactEntry{
			{
				Position:    1,
				Email:       "ana@acme.com.br",
				Phone:       "(11) 98765-4321",
				Department:  "financeiro",
				Preferences: []string{"boletos", "notas_fiscais"},
			},
		},
	}
}

// MustLoadState reads a YAML or JSON state fixture.
func MustLoadState(t *testing.T, path string) model.FormState {
	t.Helper()

	state, err := config.LoadState(path)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return state
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// MustReadGolden decodes the JSON golden at path into out.
func MustReadGolden(t *testing.T, path string, out any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s: %v (run with UPDATE_GOLDENS=1 to create it)", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
