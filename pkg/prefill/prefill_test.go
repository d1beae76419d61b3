package prefill_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/prefill"
)

func TestFromQueryRecognizesAliases(t *testing.T) {
	values := url.Values{
		"cnpj":        {"12345678000195"},
		"razaoSocial": {"ACME <b>Ltda</b>"},
		"telefone":    {"11987654321"},
		"email":       {" ana@acme.com.br "},
		"utm_source":  {"newsletter"},
	}
	got := prefill.FromQuery(values)
	want := prefill.Params{
		model.FieldCompanyID:   "12345678000195",
		model.FieldCompanyName: "ACME Ltda",
		model.FieldPhone:       "11987654321",
		model.FieldEmail:       "ana@acme.com.br",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonicalKeyWinsOverAlias(t *testing.T) {
	for i := 0; i < 20; i++ {
		got := prefill.FromMap(map[string]string{"cnpj": "111", "companyId": "222"})
		if got[model.FieldCompanyID] != "222" {
			t.Fatalf("expected canonical key to win, got %q", got[model.FieldCompanyID])
		}
	}
}

func TestSanitizeKeepsAmpersand(t *testing.T) {
	got := prefill.FromMap(map[string]string{"companyName": "Foo & Bar <script>x()</script>"})
	if got[model.FieldCompanyName] != "Foo & Bar" {
		t.Fatalf("unexpected sanitized value %q", got[model.FieldCompanyName])
	}
}

func TestApply(t *testing.T) {
	state := model.FormState{Contacts: []model.ContactEntry{{Position: 1}, {Position: 2}}}
	params := prefill.Params{
		model.FieldCompanyID:   "12345678000195",
		model.FieldCompanyName: "ACME",
		model.FieldEmail:       "ana@acme.com.br",
		model.FieldPhone:       "1133334444",
	}
	got := prefill.Apply(state, params)

	if got.CompanyID != "12.345.678/0001-95" {
		t.Fatalf("company id = %q", got.CompanyID)
	}
	if got.Contacts[0].Email != "ana@acme.com.br" || got.Contacts[0].Phone != "(11) 3333-4444" {
		t.Fatalf("first contact not seeded: %+v", got.Contacts[0])
	}
	if got.Contacts[1].Email != "" {
		t.Fatalf("only the first contact is seeded")
	}
	if state.Contacts[0].Email != "" {
		t.Fatalf("Apply must not mutate its input")
	}
}

func TestApplyKeepsNonCNPJIdentifiers(t *testing.T) {
	got := prefill.Apply(model.FormState{}, prefill.Params{model.FieldCompanyID: "ABC-1"})
	if got.CompanyID != "ABC-1" {
		t.Fatalf("company id = %q", got.CompanyID)
	}
	if len(got.Contacts) != 0 {
		t.Fatalf("company-only prefill should not create contacts")
	}
}

func TestParse(t *testing.T) {
	got, err := prefill.Parse("?companyName=ACME&foo=bar")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(prefill.Params{model.FieldCompanyName: "ACME"}, got); diff != "" {
		t.Fatalf("params (-want +got):\n%s", diff)
	}
	if _, err := prefill.Parse("a=%zz"); err == nil {
		t.Fatalf("expected parse error")
	}
	if !prefill.FromMap(nil).Empty() {
		t.Fatalf("nil map should yield empty params")
	}
}

func TestKeysListsEveryAlias(t *testing.T) {
	want := []string{"cnpj", "companyId", "companyName", "email", "phone", "razaoSocial", "telefone"}
	if diff := cmp.Diff(want, prefill.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
}
