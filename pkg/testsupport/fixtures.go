// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/model"
	rendertemplate "github.com/goliatone/go-inlineform/pkg/render/template"
	"github.com/goliatone/go-inlineform/pkg/state"
)

// InstanceID is the widget instance id used by fixtures.
const InstanceID = "abc"

// Field returns a multiple-value reference field targeting "item" records.
func Field() model.FieldDefinition {
	return model.FieldDefinition{
		Name:           "field_items",
		ParentType:     "article",
		ParentBundle:   "article",
		TargetType:     "item",
		AllowedBundles: []string{"item"},
	}
}

// Records builds saved item records with ids "1".."n" and the given labels.
func Records(labels ...string) []*model.Record {
	out := make([]*model.Record, 0, len(labels))
	for idx, label := range labels {
		out = append(out, &model.Record{
			ID:     strconv.Itoa(idx + 1),
			Type:   "item",
			Bundle: "item",
			Label:  label,
		})
	}
	return out
}

// Store registers InstanceID with the given settings and field and loads
// records as its initial rows.
func Store(t testing.TB, settings model.Settings, field model.FieldDefinition, records ...*model.Record) *state.Store {
	t.Helper()
	store := state.NewStore()
	variant := model.VariantMultiple
	if field.Cardinality == 1 {
		variant = model.VariantSingle
	}
	if !store.Init(InstanceID, settings, field, []string{field.Name, "form"}, variant) {
		t.Fatalf("testsupport: init %s failed", InstanceID)
	}
	store.LoadInitialRows(InstanceID, records)
	return store
}

// CaptureTemplateOutput renders name with data and returns the output.
func CaptureTemplateOutput(t testing.TB, renderer rendertemplate.TemplateRenderer, name string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	out, err := renderer.RenderTemplate(name, data, &buf)
	if err != nil {
		t.Fatalf("render template %s: %v", name, err)
	}
	if buf.Len() > 0 {
		return buf.String()
	}
	return out
}

// AssertDiff fails the test when want and got differ.
func AssertDiff(t testing.TB, what string, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", what, diff)
	}
}
