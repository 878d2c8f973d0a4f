package form

import (
	"context"
	"fmt"
	"sort"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// EntityFormRequest describes one sub-form to build.
type EntityFormRequest struct {
	InstanceID string
	// RowKey is -1 for the add form.
	RowKey int
	Mode   model.FormMode
	Record *model.Record
	// Values are the current input values: record fields overlaid with any
	// posted draft.
	Values map[string]any
}

// Name returns the input name of field within the sub-form.
func (r EntityFormRequest) Name(field string) string {
	if r.RowKey < 0 {
		return AddInputName(r.InstanceID, field)
	}
	return InputName(r.InstanceID, r.RowKey, field)
}

// EntityFormBuilder produces the input nodes of a child record sub-form.
type EntityFormBuilder interface {
	BuildEntityForm(ctx context.Context, req EntityFormRequest) []Node
}

// EntityFormFunc adapts a function to EntityFormBuilder.
type EntityFormFunc func(ctx context.Context, req EntityFormRequest) []Node

// BuildEntityForm implements EntityFormBuilder.
func (fn EntityFormFunc) BuildEntityForm(ctx context.Context, req EntityFormRequest) []Node {
	if fn == nil {
		return nil
	}
	return fn(ctx, req)
}

// FieldsForm renders a label input followed by one text input per field in
// fields. With no fields the record's existing field names are used.
func FieldsForm(fields ...string) EntityFormBuilder {
	return EntityFormFunc(func(_ context.Context, req EntityFormRequest) []Node {
		names := append([]string(nil), fields...)
		if len(names) == 0 && req.Record != nil {
			for name := range req.Record.Fields {
				if name == "label" {
					continue
				}
				names = append(names, name)
			}
			sort.Strings(names)
		}
		nodes := []Node{{
			Kind:  KindInput,
			Name:  req.Name("label"),
			Label: "Label",
			Value: valueString(req.Values, "label"),
		}}
		for _, name := range names {
			if name == "label" {
				continue
			}
			nodes = append(nodes, Node{
				Kind:  KindInput,
				Name:  req.Name(name),
				Label: name,
				Value: valueString(req.Values, name),
			})
		}
		return nodes
	})
}

func valueString(values map[string]any, key string) string {
	value, ok := values[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func formValues(rec *model.Record, draft map[string]any) map[string]any {
	out := make(map[string]any)
	if rec != nil {
		for key, value := range rec.Fields {
			out[key] = value
		}
		if rec.Label != "" {
			out["label"] = rec.Label
		}
	}
	for key, value := range draft {
		out[key] = value
	}
	return out
}
