package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/model"
)

// ErrorMapping splits an error into input-level and form-level messages keyed
// by the input names used in the render tree.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapRowErrors routes validation and persistence errors to the inputs of the
// row they name. Rows are located by key, so the mapping survives reordering.
// Errors without a matching input fall back to the row node, then to the
// form-level list, so no message is lost.
func MapRowErrors(tree form.Tree, err error) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	for _, leaf := range flatten(err) {
		name, messages := routeError(tree, leaf)
		messages = normalizeMessages(messages)
		if len(messages) == 0 {
			continue
		}
		if name == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = normalizeMessages(append(mapping.Fields[name], messages...))
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, inner := range joined.Unwrap() {
			out = append(out, flatten(inner)...)
		}
		return out
	}
	return []error{err}
}

func routeError(tree form.Tree, err error) (string, []string) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		messages := verr.Messages
		if len(messages) == 0 {
			messages = []string{"invalid value"}
		}
		return validationTarget(tree, verr), messages
	}

	var perr *model.PersistenceError
	if errors.As(err, &perr) {
		message := fmt.Sprintf("Could not %s the record: %v", persistenceVerb(perr.Op), perr.Err)
		if perr.RowKey >= 0 {
			if name := rowName(tree, perr.RowKey); name != "" {
				return name, []string{message}
			}
		}
		return "", []string{message}
	}
	return "", []string{err.Error()}
}

func validationTarget(tree form.Tree, verr *model.ValidationError) string {
	id := tree.InstanceID
	if id == "" {
		return ""
	}
	if verr.RowKey >= 0 {
		if verr.Field != "" {
			if name := form.InputName(id, verr.RowKey, verr.Field); present(tree, name) {
				return name
			}
		}
		return rowName(tree, verr.RowKey)
	}
	if verr.Field != "" {
		for _, name := range []string{form.AddInputName(id, verr.Field), form.ExistingName(id)} {
			if present(tree, name) {
				return name
			}
		}
	}
	return id
}

func rowName(tree form.Tree, key int) string {
	for _, row := range tree.Rows() {
		if row.RowKey() == key {
			return row.Name
		}
	}
	return ""
}

func present(tree form.Tree, name string) bool {
	_, ok := tree.Find(name)
	return ok
}

func persistenceVerb(op model.Operation) string {
	switch op {
	case model.OperationCreate:
		return "create"
	case model.OperationDelete:
		return "delete"
	default:
		return "save"
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
