package model

import "strings"

// KeyTargetID is the persisted key carrying the referenced record id.
const KeyTargetID = "target_id"

// transientKeys never reach persisted field storage.
var transientKeys = map[string]struct{}{
	"_weight":         {},
	"_original_delta": {},
	"needs_save":      {},
}

// IsTransientKey reports whether key is bookkeeping that must be stripped.
func IsTransientKey(key string) bool {
	_, ok := transientKeys[strings.TrimSpace(key)]
	return ok
}

// FieldValue is one entry of the final field value list.
type FieldValue struct {
	TargetID string
	Extra    map[string]any
}

// Empty reports whether the value carries nothing worth persisting.
func (v FieldValue) Empty() bool {
	if strings.TrimSpace(v.TargetID) != "" {
		return false
	}
	for key, value := range v.Extra {
		if IsTransientKey(key) || value == nil {
			continue
		}
		return false
	}
	return true
}

// Strip returns a copy without transient keys.
func (v FieldValue) Strip() FieldValue {
	out := FieldValue{TargetID: v.TargetID}
	for key, value := range v.Extra {
		if IsTransientKey(key) || key == KeyTargetID {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(v.Extra))
		}
		out.Extra[key] = value
	}
	return out
}

// Map flattens the value into its wire representation.
func (v FieldValue) Map() map[string]any {
	stripped := v.Strip()
	out := make(map[string]any, len(stripped.Extra)+1)
	for key, value := range stripped.Extra {
		out[key] = value
	}
	out[KeyTargetID] = stripped.TargetID
	return out
}
