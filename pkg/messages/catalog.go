// Package messages holds the user-facing strings of the contact form as
// pongo2 templates keyed by message identifiers. Catalogs are compiled once
// at construction so a bad override fails fast instead of at display time.
package messages

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Key identifies a message template.
type Key string

const (
	Validating     Key = "status.validating"
	Sending        Key = "status.sending"
	Succeeded      Key = "status.succeeded"
	Failed         Key = "status.failed"
	Rejected       Key = "status.rejected"
	Unexpected     Key = "status.unexpected"
	ResetPrompt    Key = "status.resetPrompt"
	CapacityError  Key = "group.capacity"
	RequiredEntry  Key = "group.requiredEntry"
	UnknownEntry   Key = "group.unknownEntry"
	RemoveConfirm  Key = "group.removeConfirm"
	ContactTitle   Key = "group.contactTitle"
	EmailRequired  Key = "validation.emailRequired"
	EmailInvalid   Key = "validation.emailInvalid"
	PhoneRequired  Key = "validation.phoneRequired"
	PhoneTooShort  Key = "validation.phoneTooShort"
	DeptRequired   Key = "validation.departmentRequired"
	EmailDeptReq   Key = "validation.emailDepartmentRequired"
	PhoneDeptReq   Key = "validation.phoneDepartmentRequired"
	PrefsRequired  Key = "validation.preferencesRequired"
	EmailsEqual    Key = "validation.emailsMustDiffer"
	RevenueReq     Key = "validation.revenueRequired"
	EmployeesReq   Key = "validation.employeesRequired"
	EmployeesNaN   Key = "validation.employeesNotInteger"
	EmployeesNeg   Key = "validation.employeesNegative"
	DeptUnknown    Key = "validation.departmentUnknown"
	PrefUnknown    Key = "validation.preferenceUnknown"
	SubmitInFlight Key = "status.inFlight"

	LabelCompanyID   Key = "label.companyId"
	LabelCompanyName Key = "label.companyName"
	LabelRevenue     Key = "label.annualRevenue"
	LabelEmployees   Key = "label.employeeCount"
	LabelEmail       Key = "label.email"
	LabelPhone       Key = "label.phone"
	LabelDepartment  Key = "label.department"
	LabelEmailDept   Key = "label.emailDepartment"
	LabelPhoneDept   Key = "label.phoneDepartment"
	LabelPreferences Key = "label.preferences"
	MenuPrompt       Key = "menu.prompt"
	MenuSubmit       Key = "menu.submit"
	MenuAdd          Key = "menu.add"
	MenuEdit         Key = "menu.edit"
	MenuRemove       Key = "menu.remove"
	MenuCompany      Key = "menu.company"
	MenuQuit         Key = "menu.quit"
	PickContact      Key = "menu.pickContact"
)

// Params are the template variables passed to Render.
type Params map[string]any

// Catalog renders localized messages.
type Catalog struct {
	locale   string
	mu       sync.RWMutex
	compiled map[Key]*pongo2.Template
	sources  map[Key]string
}

// New compiles the built-in templates for locale ("pt-BR" or "en"; anything
// else falls back to pt-BR) with overrides applied on top.
func New(locale string, overrides map[string]string) (*Catalog, error) {
	base, resolved := builtin(locale)
	sources := make(map[Key]string, len(base)+len(overrides))
	for key, src := range base {
		sources[key] = src
	}
	for key, src := range overrides {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		sources[Key(trimmed)] = src
	}

	set := pongo2.NewSet("messages", pongo2.DefaultLoader)
	compiled := make(map[Key]*pongo2.Template, len(sources))
	for _, key := range sortedKeys(sources) {
		tpl, err := set.FromString(sources[key])
		if err != nil {
			return nil, fmt.Errorf("messages: compile %s: %w", key, err)
		}
		compiled[key] = tpl
	}

	return &Catalog{
		locale:   resolved,
		compiled: compiled,
		sources:  sources,
	}, nil
}

// MustNew is New that panics on error. Intended for built-in catalogs.
func MustNew(locale string) *Catalog {
	c, err := New(locale, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the Portuguese catalog.
func Default() *Catalog {
	return MustNew(LocalePortuguese)
}

// Locale reports the resolved catalog locale.
func (c *Catalog) Locale() string {
	if c == nil {
		return LocalePortuguese
	}
	return c.locale
}

// Render executes the template for key. Unknown keys and execution failures
// degrade to the key itself so a message is always produced.
func (c *Catalog) Render(key Key, params Params) string {
	if c == nil {
		return string(key)
	}
	c.mu.RLock()
	tpl, ok := c.compiled[key]
	c.mu.RUnlock()
	if !ok {
		return string(key)
	}
	out, err := tpl.Execute(pongo2.Context(params))
	if err != nil {
		return string(key)
	}
	return strings.TrimSpace(out)
}

// Has reports whether key is defined.
func (c *Catalog) Has(key Key) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.compiled[key]
	return ok
}

func sortedKeys(m map[Key]string) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
