// Package prefill seeds a form snapshot from externally supplied key/value
// pairs, typically the query string of the page that opened the form.
package prefill

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-contactform/pkg/mask"
	"github.com/goliatone/go-contactform/pkg/model"
)

// Params are recognized prefill values keyed by canonical field name.
type Params map[model.FieldName]string

// aliases maps accepted parameter names to canonical fields.
var aliases = map[string]model.FieldName{
	"companyId":   model.FieldCompanyID,
	"cnpj":        model.FieldCompanyID,
	"companyName": model.FieldCompanyName,
	"razaoSocial": model.FieldCompanyName,
	"email":       model.FieldEmail,
	"phone":       model.FieldPhone,
	"telefone":    model.FieldPhone,
}

// Keys lists every accepted parameter name.
func Keys() []string {
	out := make([]string, 0, len(aliases))
	for k := range aliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// clean strips markup and surrounding whitespace. Entities produced by the
// policy are decoded back so "Foo & Bar" survives as typed.
func clean(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	out := sanitizer().Sanitize(trimmed)
	out = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&lt;", "<", "&gt;", ">").Replace(out)
	return strings.TrimSpace(out)
}

// FromMap normalizes raw keys. Unknown keys and empty values are ignored.
// When a field is given under more than one alias, the canonical English
// name wins.
func FromMap(raw map[string]string) Params {
	out := Params{}
	for key, value := range raw {
		field, ok := aliases[strings.TrimSpace(key)]
		if !ok {
			continue
		}
		value = clean(value)
		if value == "" {
			continue
		}
		if _, exists := out[field]; exists && string(field) != key {
			continue
		}
		out[field] = value
	}
	return out
}

// FromQuery reads the first value of each recognized key.
func FromQuery(values url.Values) Params {
	raw := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) == 0 {
			continue
		}
		raw[key] = vs[0]
	}
	return FromMap(raw)
}

// Parse reads a raw query string such as "cnpj=123&email=a@b.c".
func Parse(query string) (Params, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return nil, err
	}
	return FromQuery(values), nil
}

// Apply returns a copy of state with params written in. The company id is
// formatted as a CNPJ when it has 14 digits and the phone is masked. Contact
// fields go to the first entry, which is created when the group is empty.
func Apply(state model.FormState, params Params) model.FormState {
	out := state.Clone()
	if len(params) == 0 {
		return out
	}
	if v, ok := params[model.FieldCompanyID]; ok {
		out.CompanyID = mask.CompanyID(v)
	}
	if v, ok := params[model.FieldCompanyName]; ok {
		out.CompanyName = v
	}

	email, hasEmail := params[model.FieldEmail]
	phone, hasPhone := params[model.FieldPhone]
	if !hasEmail && !hasPhone {
		return out
	}
	if len(out.Contacts) == 0 {
		out.Contacts = []model.ContactEntry{{Position: 1}}
	}
	if hasEmail {
		out.Contacts[0].Email = email
	}
	if hasPhone {
		out.Contacts[0].Phone = mask.Phone(phone)
	}
	return out
}

// Empty reports whether nothing would be applied.
func (p Params) Empty() bool { return len(p) == 0 }
