// Package model defines the typed records shared by the inline form packages:
// widget instances, rows, settings, field definitions, final field values, and
// the error kinds surfaced to the enclosing form.
//
// Rows carry an explicit FormMode instead of relying on the presence of keys,
// and Record values are shared by pointer so that edits made through an open
// sub-form are visible when the submission is reconciled.
package model
