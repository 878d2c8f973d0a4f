package model

import (
	"sort"
	"strings"
)

// FormMode identifies which sub-form, if any, is open for a row or for the
// widget as a whole.
type FormMode string

const (
	FormModeNone        FormMode = "none"
	FormModeEdit        FormMode = "edit"
	FormModeRemove      FormMode = "remove"
	FormModeAdd         FormMode = "add"
	FormModeAddExisting FormMode = "add_existing"
)

// Normalize maps the empty mode to FormModeNone.
func (m FormMode) Normalize() FormMode {
	if strings.TrimSpace(string(m)) == "" {
		return FormModeNone
	}
	return m
}

// Open reports whether the mode represents an open sub-form.
func (m FormMode) Open() bool {
	return m.Normalize() != FormModeNone
}

// RowLevel reports whether the mode may be assigned to a single row.
func (m FormMode) RowLevel() bool {
	switch m.Normalize() {
	case FormModeNone, FormModeEdit, FormModeRemove:
		return true
	default:
		return false
	}
}

// WidgetLevel reports whether the mode may be assigned to the widget itself.
func (m FormMode) WidgetLevel() bool {
	switch m.Normalize() {
	case FormModeNone, FormModeAdd, FormModeAddExisting:
		return true
	default:
		return false
	}
}

// Variant selects the UI flavour of the widget.
type Variant string

const (
	// VariantMultiple allows independent per-row forms and drag reordering.
	VariantMultiple Variant = "multiple"
	// VariantSingle allows at most one open row form and keeps insertion
	// order.
	VariantSingle Variant = "single"
)

// Operation names an access-checked action on a record.
type Operation string

const (
	OperationView   Operation = "view"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// MatchOperator controls how "add existing" lookups match labels.
type MatchOperator string

const (
	MatchStartsWith MatchOperator = "STARTS_WITH"
	MatchContains   MatchOperator = "CONTAINS"
)

// Valid reports whether the operator is one of the supported values.
func (m MatchOperator) Valid() bool {
	return m == MatchStartsWith || m == MatchContains
}

// Record is a child record referenced by the field. Rows hold shared
// pointers so edits made through a sub-form are visible to the reconciler.
type Record struct {
	ID     string         `json:"id,omitempty"`
	Type   string         `json:"type"`
	Bundle string         `json:"bundle"`
	Label  string         `json:"label,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Saved reports whether the record has a persisted identity.
func (r *Record) Saved() bool {
	return r != nil && strings.TrimSpace(r.ID) != ""
}

// Clone returns a shallow copy with its own Fields map.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Fields != nil {
		out.Fields = make(map[string]any, len(r.Fields))
		for key, value := range r.Fields {
			out.Fields[key] = value
		}
	}
	return &out
}

// Apply merges values into the record fields. A "label" key also updates
// Label.
func (r *Record) Apply(values map[string]any) {
	if r == nil || len(values) == 0 {
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]any, len(values))
	}
	for key, value := range values {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		if name == "label" {
			if label, ok := value.(string); ok {
				r.Label = label
			}
		}
		r.Fields[name] = value
	}
}

// Row is one entry in the referenced-record collection of an instance.
type Row struct {
	Key           int
	Record        *Record
	Weight        int
	FormMode      FormMode
	NeedsSave     bool
	OriginalDelta int
	// Draft holds values posted to an open edit form that have not been
	// applied to Record yet.
	Draft map[string]any
}

// Settings is the immutable widget configuration captured on first render.
type Settings struct {
	AllowExisting    bool          `json:"allow_existing" yaml:"allow_existing"`
	MatchOperator    MatchOperator `json:"match_operator" yaml:"match_operator"`
	DeleteReferences bool          `json:"delete_references" yaml:"delete_references"`
	OverrideLabels   bool          `json:"override_labels" yaml:"override_labels"`
	LabelSingular    string        `json:"label_singular" yaml:"label_singular"`
	LabelPlural      string        `json:"label_plural" yaml:"label_plural"`
}

// Labels holds the singular and plural names used in UI strings.
type Labels struct {
	Singular string
	Plural   string
}

// FieldDefinition describes the owning reference field.
type FieldDefinition struct {
	Name           string
	ParentType     string
	ParentBundle   string
	TargetType     string
	AllowedBundles []string
	Cardinality    int
	Required       bool
}

// Unlimited reports whether the field accepts any number of references.
func (f FieldDefinition) Unlimited() bool {
	return f.Cardinality <= 0
}

// Bundles returns the allowed bundles sorted for deterministic output.
func (f FieldDefinition) Bundles() []string {
	if len(f.AllowedBundles) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.AllowedBundles))
	seen := make(map[string]struct{}, len(f.AllowedBundles))
	for _, bundle := range f.AllowedBundles {
		trimmed := strings.TrimSpace(bundle)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}

// Pending is a record confirmed for destruction at final submission.
type Pending struct {
	RecordID      string
	OriginalDelta int
}

// Instance is one occurrence of the widget on a form.
type Instance struct {
	ID        string
	Settings  Settings
	Field     FieldDefinition
	FieldPath []string
	Variant   Variant

	Rows       []Row
	RowsLoaded bool
	NextKey    int

	WidgetForm FormMode
	AddBundle  string
	AddDraft   *Record

	PendingDeletion []Pending
}

// RowIndex returns the slice index of the row with key, or -1.
func (i *Instance) RowIndex(key int) int {
	if i == nil {
		return -1
	}
	for idx := range i.Rows {
		if i.Rows[idx].Key == key {
			return idx
		}
	}
	return -1
}

// OpenRowForm reports whether any row currently has an open sub-form.
func (i *Instance) OpenRowForm() bool {
	if i == nil {
		return false
	}
	for _, row := range i.Rows {
		if row.FormMode.Open() {
			return true
		}
	}
	return false
}
