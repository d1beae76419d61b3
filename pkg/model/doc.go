// Package model defines the data records shared by the contact form engine:
// the repeating ContactEntry rows, the FormState snapshot that owns them,
// field references used to key per-field errors, and the option sets
// (departments, communication preferences) supplied by the embedding
// application. Records are plain values; all mutation of the contact list
// goes through pkg/group so position contiguity holds at every observable
// point.
package model
