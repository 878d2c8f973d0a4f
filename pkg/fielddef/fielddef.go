// Package fielddef extracts inline form field definitions from OpenAPI 3
// documents. A schema property opts in with the x-inline-entity-form
// extension; the owning schema may declare its own record type and bundle
// through x-inline-entity-form-parent so that self-nesting can be detected.
package fielddef

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-inlineform/pkg/model"
)

const (
	fieldExtensionKey  = "x-inline-entity-form"
	parentExtensionKey = "x-inline-entity-form-parent"
)

// Definitions indexes field definitions by schema name and field name.
type Definitions struct {
	schemas map[string]map[string]model.FieldDefinition
}

// Load parses an OpenAPI document and collects every opted-in property of the
// component schemas.
func Load(ctx context.Context, data []byte) (*Definitions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("fielddef: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("fielddef: load document: %w", err)
	}

	defs := &Definitions{schemas: make(map[string]map[string]model.FieldDefinition)}
	if doc.Components == nil {
		return defs, nil
	}
	for name, ref := range doc.Components.Schemas {
		if ref == nil || ref.Value == nil {
			continue
		}
		fields, err := collectSchema(name, ref.Value)
		if err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			defs.schemas[name] = fields
		}
	}
	return defs, nil
}

// Field returns the definition of field on schema.
func (d *Definitions) Field(schema, field string) (model.FieldDefinition, bool) {
	if d == nil {
		return model.FieldDefinition{}, false
	}
	def, ok := d.schemas[schema][field]
	return def, ok
}

// Schema returns the definitions of a schema sorted by field name.
func (d *Definitions) Schema(schema string) []model.FieldDefinition {
	if d == nil {
		return nil
	}
	fields := d.schemas[schema]
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]model.FieldDefinition, 0, len(names))
	for _, name := range names {
		out = append(out, fields[name])
	}
	return out
}

// Schemas lists schema names that declare at least one inline field.
func (d *Definitions) Schemas() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.schemas))
	for name := range d.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectSchema(schemaName string, schema *openapi3.Schema) (map[string]model.FieldDefinition, error) {
	parentType, parentBundle := parentIdentity(schemaName, schema.Extensions)

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	out := make(map[string]model.FieldDefinition)
	for fieldName, prop := range schema.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		raw, ok := prop.Value.Extensions[fieldExtensionKey]
		if !ok {
			continue
		}
		ext, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fielddef: %s.%s: %s must be an object", schemaName, fieldName, fieldExtensionKey)
		}

		def := model.FieldDefinition{
			Name:         fieldName,
			ParentType:   parentType,
			ParentBundle: parentBundle,
			TargetType:   stringValue(ext["target_type"]),
			Cardinality:  1,
		}
		if def.TargetType == "" {
			return nil, fmt.Errorf("fielddef: %s.%s: target_type is required", schemaName, fieldName)
		}
		def.AllowedBundles = stringSlice(ext["bundles"])
		if len(def.AllowedBundles) == 0 {
			def.AllowedBundles = []string{def.TargetType}
		}

		switch {
		case ext["cardinality"] != nil:
			cardinality, err := intValue(ext["cardinality"])
			if err != nil {
				return nil, fmt.Errorf("fielddef: %s.%s: cardinality: %w", schemaName, fieldName, err)
			}
			def.Cardinality = cardinality
		case prop.Value.Type != nil && prop.Value.Type.Is(openapi3.TypeArray):
			def.Cardinality = 0
			if prop.Value.MaxItems != nil && *prop.Value.MaxItems <= math.MaxInt32 {
				def.Cardinality = int(*prop.Value.MaxItems)
			}
		}
		if _, ok := required[fieldName]; ok {
			def.Required = true
		}
		out[fieldName] = def
	}
	return out, nil
}

func parentIdentity(schemaName string, extensions map[string]any) (string, string) {
	ext, ok := extensions[parentExtensionKey].(map[string]any)
	if !ok {
		return strings.ToLower(schemaName), ""
	}
	parentType := stringValue(ext["type"])
	if parentType == "" {
		parentType = strings.ToLower(schemaName)
	}
	return parentType, stringValue(ext["bundle"])
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func stringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case float64:
		if typed != math.Trunc(typed) {
			return 0, fmt.Errorf("expected integer, got %v", typed)
		}
		return int(typed), nil
	case json.Number:
		n, err := typed.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(typed))
	default:
		return 0, fmt.Errorf("unsupported value %T", value)
	}
}
