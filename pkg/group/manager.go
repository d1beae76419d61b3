// Package group owns the ordered list of contact entries. It is the only
// component allowed to insert, remove or renumber entries, and it keeps the
// per-field error map aligned with the entries after every structural
// change. A Manager is not safe for concurrent use; the owning session
// serializes access.
package group

import (
	"github.com/goliatone/go-contactform/pkg/model"
)

const (
	// DefaultRequired is the number of mandatory leading entries.
	DefaultRequired = 1
	// DefaultMax is the group capacity.
	DefaultMax = 10
)

// Config sizes the group.
type Config struct {
	Required       int
	Max            int
	DepartmentMode model.DepartmentMode
}

// EventKind classifies Manager notifications.
type EventKind string

const (
	EventAdded    EventKind = "added"
	EventRemoved  EventKind = "removed"
	EventRenumber EventKind = "renumbered"
	EventFocus    EventKind = "focus"
	EventReset    EventKind = "reset"
)

// Event describes a structural change or a UI hint emitted by the Manager.
type Event struct {
	Kind     EventKind
	Position int
	Field    model.FieldRef
	Count    int
}

// Listener receives Manager events synchronously.
type Listener func(Event)

// Option configures a Manager.
type Option func(*Manager)

// WithListener registers a listener for structural events.
func WithListener(fn Listener) Option {
	return func(m *Manager) {
		if fn != nil {
			m.listeners = append(m.listeners, fn)
		}
	}
}

// Manager holds the repeating contact entries.
type Manager struct {
	required  int
	max       int
	deptMode  model.DepartmentMode
	contacts  []model.ContactEntry
	errors    *ErrorState
	listeners []Listener
}

// New builds a Manager seeded with the required number of empty entries
// (at least one).
func New(cfg Config, opts ...Option) *Manager {
	cfg = normalizeConfig(cfg)
	m := &Manager{
		required: cfg.Required,
		max:      cfg.Max,
		deptMode: cfg.DepartmentMode,
		errors:   NewErrorState(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.contacts = m.seed()
	return m
}

func normalizeConfig(cfg Config) Config {
	if cfg.Required < 1 {
		cfg.Required = DefaultRequired
	}
	if cfg.Max < 1 {
		cfg.Max = DefaultMax
	}
	if cfg.Max < cfg.Required {
		cfg.Max = cfg.Required
	}
	if cfg.DepartmentMode == "" {
		cfg.DepartmentMode = model.DepartmentSingle
	}
	return cfg
}

func (m *Manager) seed() []model.ContactEntry {
	out := make([]model.ContactEntry, m.required)
	for i := range out {
		out[i] = model.ContactEntry{Position: i + 1}
	}
	return out
}

// RequiredCount returns the size of the mandatory prefix.
func (m *Manager) RequiredCount() int { return m.required }

// MaxCount returns the group capacity.
func (m *Manager) MaxCount() int { return m.max }

// Len returns the number of entries.
func (m *Manager) Len() int { return len(m.contacts) }

// IsRequired reports whether the entry at position is mandatory.
func (m *Manager) IsRequired(position int) bool {
	return position >= 1 && position <= m.required
}

// CanAdd reports whether another entry fits.
func (m *Manager) CanAdd() bool { return len(m.contacts) < m.max }

// CanRemove reports whether the entry at position may be removed.
func (m *Manager) CanRemove(position int) bool {
	return position > m.required && position <= len(m.contacts) && len(m.contacts)-1 >= m.required
}

// Contacts returns a deep copy of the entries in order.
func (m *Manager) Contacts() []model.ContactEntry {
	out := make([]model.ContactEntry, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Clone()
	}
	return out
}

// Entry returns a copy of the entry at position.
func (m *Manager) Entry(position int) (model.ContactEntry, bool) {
	if position < 1 || position > len(m.contacts) {
		return model.ContactEntry{}, false
	}
	return m.contacts[position-1].Clone(), true
}

// Errors exposes the per-field error map.
func (m *Manager) Errors() *ErrorState { return m.errors }

// Add appends an empty entry and moves focus to its first field.
func (m *Manager) Add() (model.ContactEntry, error) {
	if len(m.contacts) >= m.max {
		return model.ContactEntry{}, &StructuralError{Op: "add", Limit: m.max, Err: ErrCapacityExceeded}
	}
	entry := model.ContactEntry{Position: len(m.contacts) + 1}
	m.contacts = append(m.contacts, entry)
	m.emit(Event{Kind: EventAdded, Position: entry.Position, Count: len(m.contacts)})
	m.emit(Event{Kind: EventFocus, Position: entry.Position, Field: model.Entry(entry.Position, model.FieldEmail)})
	return entry.Clone(), nil
}

// Remove deletes the entry at position and renumbers the rest.
func (m *Manager) Remove(position int) error {
	if position < 1 || position > len(m.contacts) {
		return &StructuralError{Op: "remove", Position: position, Err: ErrUnknownPosition}
	}
	if m.IsRequired(position) || len(m.contacts)-1 < m.required {
		return &StructuralError{Op: "remove", Position: position, Limit: m.required, Err: ErrRequiredEntry}
	}

	m.contacts = append(m.contacts[:position-1], m.contacts[position:]...)
	m.errors.dropEntry(position)
	m.Renumber()
	m.emit(Event{Kind: EventRemoved, Position: position, Count: len(m.contacts)})
	return nil
}

// Renumber reassigns dense positions in current order and drops errors for
// fields that no longer exist. It is idempotent.
func (m *Manager) Renumber() {
	for i := range m.contacts {
		m.contacts[i].Position = i + 1
	}
	m.errors.prune(m.fieldExists)
	m.emit(Event{Kind: EventRenumber, Count: len(m.contacts)})
}

// Update applies fn to the entry at position. fn must not change Position.
func (m *Manager) Update(position int, fn func(*model.ContactEntry)) error {
	if position < 1 || position > len(m.contacts) {
		return &StructuralError{Op: "update", Position: position, Err: ErrUnknownPosition}
	}
	entry := &m.contacts[position-1]
	fn(entry)
	entry.Position = position
	return nil
}

// Load replaces all entries, e.g. when restoring a saved state. Entries are
// renumbered in slice order and padded up to the required count; a list
// larger than the capacity is rejected without changes.
func (m *Manager) Load(contacts []model.ContactEntry) error {
	if len(contacts) > m.max {
		return &StructuralError{Op: "load", Limit: m.max, Err: ErrCapacityExceeded}
	}
	next := make([]model.ContactEntry, 0, max(len(contacts), m.required))
	for _, c := range contacts {
		next = append(next, c.Clone())
	}
	for len(next) < m.required {
		next = append(next, model.ContactEntry{})
	}
	m.contacts = next
	m.errors.Reset()
	m.Renumber()
	return nil
}

// Reset shrinks the group back to the required empty entries and clears
// every error.
func (m *Manager) Reset() {
	m.contacts = m.seed()
	m.errors.Reset()
	m.emit(Event{Kind: EventReset, Count: len(m.contacts)})
}

// Focus emits a focus hint for ref, e.g. the first invalid field.
func (m *Manager) Focus(ref model.FieldRef) {
	m.emit(Event{Kind: EventFocus, Position: ref.Position, Field: ref})
}

// FieldRefs lists every field of every entry in display order.
func (m *Manager) FieldRefs() []model.FieldRef {
	names := m.entryFieldNames()
	out := make([]model.FieldRef, 0, len(m.contacts)*len(names))
	for _, c := range m.contacts {
		for _, name := range names {
			out = append(out, model.Entry(c.Position, name))
		}
	}
	return out
}

func (m *Manager) entryFieldNames() []model.FieldName {
	if m.deptMode == model.DepartmentPerChannel {
		return []model.FieldName{model.FieldEmail, model.FieldEmailDepartment, model.FieldPhone, model.FieldPhoneDepartment, model.FieldPreferences}
	}
	return []model.FieldName{model.FieldEmail, model.FieldPhone, model.FieldDepartment, model.FieldPreferences}
}

func (m *Manager) fieldExists(ref model.FieldRef) bool {
	if ref.IsTopLevel() {
		switch ref.Name {
		case model.FieldCompanyID, model.FieldCompanyName, model.FieldAnnualRevenue, model.FieldEmployeeCount:
			return true
		}
		return false
	}
	if ref.Position > len(m.contacts) {
		return false
	}
	for _, name := range m.entryFieldNames() {
		if name == ref.Name {
			return true
		}
	}
	return false
}

func (m *Manager) emit(evt Event) {
	for _, fn := range m.listeners {
		fn(evt)
	}
}
