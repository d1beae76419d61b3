package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldName identifies a field of a contact entry or of the company block.
type FieldName string

const (
	FieldEmail           FieldName = "email"
	FieldPhone           FieldName = "phone"
	FieldDepartment      FieldName = "department"
	FieldEmailDepartment FieldName = "emailDepartment"
	FieldPhoneDepartment FieldName = "phoneDepartment"
	FieldPreferences     FieldName = "preferences"

	FieldCompanyID     FieldName = "companyId"
	FieldCompanyName   FieldName = "companyName"
	FieldAnnualRevenue FieldName = "annualRevenue"
	FieldEmployeeCount FieldName = "employeeCount"
)

// DepartmentMode selects how many department selectors each entry carries.
type DepartmentMode string

const (
	// DepartmentSingle uses one department per entry.
	DepartmentSingle DepartmentMode = "single"
	// DepartmentPerChannel uses one department for the email channel and one
	// for the phone channel.
	DepartmentPerChannel DepartmentMode = "perChannel"
)

// FieldRef points at a single field. Position 0 denotes a top-level company
// field; positive positions address contact entries.
type FieldRef struct {
	Position int
	Name     FieldName
}

// Top returns a reference to a top-level field.
func Top(name FieldName) FieldRef {
	return FieldRef{Name: name}
}

// Entry returns a reference to a field of the entry at position.
func Entry(position int, name FieldName) FieldRef {
	return FieldRef{Position: position, Name: name}
}

// IsTopLevel reports whether the reference addresses a company field.
func (r FieldRef) IsTopLevel() bool {
	return r.Position == 0
}

// ID renders the stable field identifier used by presentation layers, e.g.
// "email-2" or "annualRevenue".
func (r FieldRef) ID() string {
	if r.IsTopLevel() {
		return string(r.Name)
	}
	return fmt.Sprintf("%s-%d", r.Name, r.Position)
}

func (r FieldRef) String() string {
	return r.ID()
}

// ParseFieldID is the inverse of FieldRef.ID.
func ParseFieldID(id string) (FieldRef, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return FieldRef{}, false
	}
	idx := strings.LastIndex(id, "-")
	if idx < 0 {
		return Top(FieldName(id)), true
	}
	pos, err := strconv.Atoi(id[idx+1:])
	if err != nil || pos < 1 || idx == 0 {
		return FieldRef{}, false
	}
	return Entry(pos, FieldName(id[:idx])), true
}

// ContactEntry is one row of the repeating contact group.
type ContactEntry struct {
	Position        int      `json:"position" yaml:"position"`
	Email           string   `json:"email" yaml:"email"`
	Phone           string   `json:"phone" yaml:"phone"`
	Department      string   `json:"department,omitempty" yaml:"department,omitempty"`
	EmailDepartment string   `json:"emailDepartment,omitempty" yaml:"emailDepartment,omitempty"`
	PhoneDepartment string   `json:"phoneDepartment,omitempty" yaml:"phoneDepartment,omitempty"`
	Preferences     []string `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Required reports whether the entry falls within the mandatory prefix of
// the group.
func (e ContactEntry) Required(requiredCount int) bool {
	return e.Position >= 1 && e.Position <= requiredCount
}

// IsBlank reports whether every user-editable field is empty.
func (e ContactEntry) IsBlank() bool {
	return strings.TrimSpace(e.Email) == "" &&
		strings.TrimSpace(e.Phone) == "" &&
		strings.TrimSpace(e.Department) == "" &&
		strings.TrimSpace(e.EmailDepartment) == "" &&
		strings.TrimSpace(e.PhoneDepartment) == "" &&
		len(e.Preferences) == 0
}

// HasPreference reports whether tag is selected.
func (e ContactEntry) HasPreference(tag string) bool {
	for _, p := range e.Preferences {
		if p == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (e ContactEntry) Clone() ContactEntry {
	out := e
	if e.Preferences != nil {
		out.Preferences = append([]string(nil), e.Preferences...)
	}
	return out
}

// FormState is the whole form snapshot.
type FormState struct {
	CompanyID     string         `json:"companyId" yaml:"companyId"`
	CompanyName   string         `json:"companyName" yaml:"companyName"`
	AnnualRevenue string         `json:"annualRevenue" yaml:"annualRevenue"`
	EmployeeCount string         `json:"employeeCount" yaml:"employeeCount"`
	Contacts      []ContactEntry `json:"contacts" yaml:"contacts"`
}

// Clone returns a deep copy so snapshots never alias live state.
func (s FormState) Clone() FormState {
	out := s
	if s.Contacts != nil {
		out.Contacts = make([]ContactEntry, len(s.Contacts))
		for i, entry := range s.Contacts {
			out.Contacts[i] = entry.Clone()
		}
	}
	return out
}

// Contact returns the entry at position (1-based).
func (s FormState) Contact(position int) (ContactEntry, bool) {
	if position < 1 || position > len(s.Contacts) {
		return ContactEntry{}, false
	}
	return s.Contacts[position-1], true
}

// TopLevelValue returns the raw text of a company field.
func (s FormState) TopLevelValue(name FieldName) (string, bool) {
	switch name {
	case FieldCompanyID:
		return s.CompanyID, true
	case FieldCompanyName:
		return s.CompanyName, true
	case FieldAnnualRevenue:
		return s.AnnualRevenue, true
	case FieldEmployeeCount:
		return s.EmployeeCount, true
	default:
		return "", false
	}
}

// ValidationError is a single violation attached to a field.
type ValidationError struct {
	Field   FieldRef `json:"field"`
	Message string   `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}
