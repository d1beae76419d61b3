// Package validation derives the list of violations for a form snapshot. It
// never mutates state: Validate is a pure function of its input, and the
// real-time checks used while typing are a strict, cheaper subset of it.
package validation

import (
	"strings"

	"github.com/goliatone/go-contactform/pkg/mask"
	"github.com/goliatone/go-contactform/pkg/messages"
	"github.com/goliatone/go-contactform/pkg/model"
)

// DefaultMinPhoneDigits is the landline length without country code.
const DefaultMinPhoneDigits = 10

// Rules configures the engine.
type Rules struct {
	RequiredContacts int
	MinPhoneDigits   int
	DepartmentMode   model.DepartmentMode
	// Departments and Preferences restrict selectable values when non-empty.
	Departments model.OptionSet
	Preferences model.OptionSet
}

// Engine evaluates Rules against form snapshots.
type Engine struct {
	rules   Rules
	catalog *messages.Catalog
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog sets the message catalog used for violation text.
func WithCatalog(c *messages.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// New builds an Engine.
func New(rules Rules, opts ...Option) *Engine {
	if rules.RequiredContacts < 1 {
		rules.RequiredContacts = 1
	}
	if rules.MinPhoneDigits < 1 {
		rules.MinPhoneDigits = DefaultMinPhoneDigits
	}
	if rules.DepartmentMode == "" {
		rules.DepartmentMode = model.DepartmentSingle
	}
	e := &Engine{rules: rules, catalog: messages.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Validate runs the engine with the default catalog.
func Validate(state model.FormState, rules Rules) Errors {
	return New(rules).Validate(state)
}

// Rules returns the engine configuration.
func (e *Engine) Rules() Rules { return e.rules }

// Validate returns every violation in display order: required entries field
// by field, then the cross-entry email rule, then company fields.
func (e *Engine) Validate(state model.FormState) Errors {
	var errs Errors

	limit := min(len(state.Contacts), e.rules.RequiredContacts)
	for i := 0; i < limit; i++ {
		errs = append(errs, e.requiredEntry(state.Contacts[i], i+1)...)
	}

	if len(state.Contacts) >= 2 {
		first := strings.TrimSpace(state.Contacts[0].Email)
		second := strings.TrimSpace(state.Contacts[1].Email)
		if first != "" && second != "" && first == second {
			errs = append(errs, e.violation(model.Entry(2, model.FieldEmail), messages.EmailsEqual, nil))
		}
	}

	if _, ok := mask.ParseCents(state.AnnualRevenue); !ok {
		errs = append(errs, e.violation(model.Top(model.FieldAnnualRevenue), messages.RevenueReq, nil))
	}

	ref := model.Top(model.FieldEmployeeCount)
	if strings.TrimSpace(state.EmployeeCount) == "" {
		errs = append(errs, e.violation(ref, messages.EmployeesReq, nil))
	} else if _, ok, negative := parseCount(state.EmployeeCount); !ok {
		errs = append(errs, e.violation(ref, messages.EmployeesNaN, nil))
	} else if negative {
		errs = append(errs, e.violation(ref, messages.EmployeesNeg, nil))
	}

	return errs
}

func (e *Engine) requiredEntry(entry model.ContactEntry, position int) Errors {
	var errs Errors
	params := messages.Params{"position": position, "min": e.rules.MinPhoneDigits}
	fields := newRequiredEntryFields(entry, e.rules)
	failed := fields.failures()

	email := model.Entry(position, model.FieldEmail)
	switch failed["Email"] {
	case "required":
		errs = append(errs, e.violation(email, messages.EmailRequired, params))
	case emailShapeTag:
		errs = append(errs, e.violation(email, messages.EmailInvalid, params))
	}

	phone := model.Entry(position, model.FieldPhone)
	if _, missing := failed["Phone"]; missing {
		errs = append(errs, e.violation(phone, messages.PhoneRequired, params))
	} else if _, short := failed["PhoneDigits"]; short {
		errs = append(errs, e.violation(phone, messages.PhoneTooShort, params))
	}

	if fields.PerChannel {
		errs = append(errs, e.department(fields.EmailDepartment, failed["EmailDepartment"] != "", model.Entry(position, model.FieldEmailDepartment), messages.EmailDeptReq, params)...)
		errs = append(errs, e.department(fields.PhoneDepartment, failed["PhoneDepartment"] != "", model.Entry(position, model.FieldPhoneDepartment), messages.PhoneDeptReq, params)...)
	} else {
		errs = append(errs, e.department(fields.Department, failed["Department"] != "", model.Entry(position, model.FieldDepartment), messages.DeptRequired, params)...)
	}

	prefs := model.Entry(position, model.FieldPreferences)
	if _, missing := failed["Preferences"]; missing {
		errs = append(errs, e.violation(prefs, messages.PrefsRequired, params))
	} else if len(e.rules.Preferences) > 0 {
		for _, tag := range entry.Preferences {
			if !e.rules.Preferences.Contains(tag) {
				errs = append(errs, e.violation(prefs, messages.PrefUnknown, params))
				break
			}
		}
	}
	return errs
}

func (e *Engine) department(value string, missing bool, ref model.FieldRef, key messages.Key, params messages.Params) Errors {
	if missing {
		return Errors{e.violation(ref, key, params)}
	}
	if len(e.rules.Departments) > 0 && !e.rules.Departments.Contains(value) {
		return Errors{e.violation(ref, messages.DeptUnknown, params)}
	}
	return nil
}

// ValidateField runs the real-time subset for one field: email shape and
// phone length. Empty values are never flagged and every other field yields
// no violations.
func (e *Engine) ValidateField(state model.FormState, ref model.FieldRef) Errors {
	entry, ok := state.Contact(ref.Position)
	if !ok {
		return nil
	}
	params := messages.Params{"position": ref.Position, "min": e.rules.MinPhoneDigits}
	switch ref.Name {
	case model.FieldEmail:
		value := strings.TrimSpace(entry.Email)
		if value != "" && !IsEmail(value) {
			return Errors{e.violation(ref, messages.EmailInvalid, params)}
		}
	case model.FieldPhone:
		value := strings.TrimSpace(entry.Phone)
		if value != "" && mask.PhoneDigitCount(value) < e.rules.MinPhoneDigits {
			return Errors{e.violation(ref, messages.PhoneTooShort, params)}
		}
	}
	return nil
}

func (e *Engine) violation(ref model.FieldRef, key messages.Key, params messages.Params) model.ValidationError {
	return model.ValidationError{Field: ref, Message: e.catalog.Render(key, params)}
}
