package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-inlineform/pkg/controller"
)

// DecodeSubmission collects the posted values that belong to the scope of
// action. Values of other rows and of other widget instances are ignored.
func DecodeSubmission(action controller.Action, values url.Values) controller.Submission {
	sub := controller.Submission{}
	for name, posted := range values {
		if len(posted) == 0 {
			continue
		}
		ref, ok := ParseInputName(name)
		if !ok || ref.InstanceID != action.InstanceID || !InScope(action, ref) {
			continue
		}
		value := posted[len(posted)-1]
		switch {
		case ref.Existing:
			sub.RecordID = strings.TrimSpace(value)
		case ref.Bundle:
			sub.Bundle = strings.TrimSpace(value)
		case ref.Delete:
			sub.Delete = truthy(value)
		default:
			if sub.Values == nil {
				sub.Values = make(map[string]any)
			}
			sub.Values[ref.Field] = value
		}
	}
	return sub
}

// InScope reports whether an input feeds the given action.
func InScope(action controller.Action, ref InputRef) bool {
	if ref.Weight {
		return false
	}
	switch action.Kind {
	case controller.ActionSaveRow:
		return ref.RowKey == action.RowKey && !ref.Delete
	case controller.ActionConfirmRemove:
		return ref.RowKey == action.RowKey && ref.Delete
	case controller.ActionOpenAdd:
		return ref.Add && ref.Bundle
	case controller.ActionCloseAdd:
		return ref.Add && !ref.Bundle
	case controller.ActionAddExisting:
		return ref.Existing
	default:
		return false
	}
}

// DecodeWeights extracts the row weights posted for instance id.
func DecodeWeights(id string, values url.Values) map[int]int {
	out := make(map[int]int)
	for name, posted := range values {
		if len(posted) == 0 {
			continue
		}
		ref, ok := ParseInputName(name)
		if !ok || ref.InstanceID != id || !ref.Weight {
			continue
		}
		weight, err := strconv.Atoi(strings.TrimSpace(posted[len(posted)-1]))
		if err != nil {
			continue
		}
		out[ref.RowKey] = weight
	}
	return out
}

// DecodeOpenForms extracts the sub-form values posted for instance id with
// the parent form: one map per row key and one for the add form. Weights,
// remove checkboxes, the bundle choice and the existing record id are left
// out.
func DecodeOpenForms(id string, values url.Values) (map[int]map[string]any, map[string]any) {
	var (
		rows map[int]map[string]any
		add  map[string]any
	)
	for name, posted := range values {
		if len(posted) == 0 {
			continue
		}
		ref, ok := ParseInputName(name)
		if !ok || ref.InstanceID != id || ref.Existing || ref.Weight || ref.Delete || ref.Bundle {
			continue
		}
		value := posted[len(posted)-1]
		if ref.Add {
			if add == nil {
				add = make(map[string]any)
			}
			add[ref.Field] = value
			continue
		}
		if rows == nil {
			rows = make(map[int]map[string]any)
		}
		if rows[ref.RowKey] == nil {
			rows[ref.RowKey] = make(map[string]any)
		}
		rows[ref.RowKey][ref.Field] = value
	}
	return rows, add
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
