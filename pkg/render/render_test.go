package render_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/state"
)

const testID = "abc"

func editingTree(t *testing.T) form.Tree {
	t.Helper()
	store := state.NewStore()
	store.Init(testID, model.Settings{}, model.FieldDefinition{TargetType: "item", AllowedBundles: []string{"item"}}, nil, model.VariantMultiple)
	store.LoadInitialRows(testID, []*model.Record{
		{ID: "1", Type: "item", Bundle: "item", Label: "One"},
		{ID: "2", Type: "item", Bundle: "item", Label: "Two"},
	})
	store.SetWeight(testID, 0, 5)
	store.SetFormMode(testID, 1, model.FormModeEdit)
	return form.NewAssembler().Assemble(context.Background(), store, testID)
}

func TestMapRowErrorsRoutesByRowKey(t *testing.T) {
	tree := editingTree(t)
	err := errors.Join(
		&model.ValidationError{Delta: 1, RowKey: 1, Field: "label", Messages: []string{"Label is required"}},
		&model.ValidationError{Delta: 0, RowKey: 0, Field: "label", Messages: []string{"Row zero is closed"}},
		&model.PersistenceError{Op: model.OperationDelete, RecordID: "9", Delta: 3, RowKey: -1, Err: errors.New("locked")},
		&model.ValidationError{Delta: -1, RowKey: -1, Field: "field_items", Messages: []string{"field is required"}},
	)

	mapping := render.MapRowErrors(tree, err)

	wantFields := map[string][]string{
		form.InputName(testID, 1, "label"): {"Label is required"},
		"abc[0]":                           {"Row zero is closed"},
		testID:                             {"field is required"},
	}
	if diff := cmp.Diff(wantFields, mapping.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Could not delete the record: locked"}
	if diff := cmp.Diff(wantForm, mapping.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRowErrorsUnknownErrorsAreFormLevel(t *testing.T) {
	mapping := render.MapRowErrors(form.Tree{}, errors.New("boom"))
	if mapping.Fields != nil {
		t.Fatalf("expected no field errors, got %v", mapping.Fields)
	}
	if diff := cmp.Diff([]string{"boom"}, mapping.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if got := render.MapRowErrors(form.Tree{}, nil); got.Fields != nil || got.Form != nil {
		t.Fatalf("nil error must map to nothing, got %+v", got)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.BuildIDField("form-1"),
		render.InstanceField(testID),
		render.CSRFToken("_csrf", "token123"),
		render.Hidden("  ", "skip"),
	)

	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: render.FieldBuildID, Value: "form-1"},
		{Name: render.FieldInstance, Value: testID},
	}
	if diff := cmp.Diff(wantSorted, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalizeTree(t *testing.T) {
	tree := editingTree(t)
	translator := stubTranslator{"Edit": "Modifier", "Cancel": "Annuler"}

	localized := render.LocalizeTree(tree, render.RenderOptions{Locale: "fr", Translator: translator})

	var labels []string
	localized.Walk(func(node form.Node) bool {
		if node.Kind == form.KindButton {
			labels = append(labels, node.Label)
		}
		return true
	})
	want := []string{"Update item", "Annuler", "Modifier", "Remove"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("button labels mismatch (-want +got):\n%s", diff)
	}

	original, _ := tree.Find(form.InputName(testID, 1, "label"))
	if original.Label != "Label" {
		t.Fatalf("localisation must not mutate the source tree")
	}
}

func TestRegistry(t *testing.T) {
	reg, err := render.NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
	if _, err := reg.Resolve("", "html"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
	if diff := cmp.Diff([]string{}, reg.Formats()); diff != "" {
		t.Fatalf("expected no formats (-want +got):\n%s", diff)
	}
}

type namedRenderer struct{ name string }

func (n namedRenderer) Name() string        { return n.name }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, form.Tree, render.RenderOptions) ([]byte, error) {
	return []byte(n.name), nil
}

func TestRegistryResolvesFormats(t *testing.T) {
	reg, err := render.NewRegistry(namedRenderer{name: "html"}, namedRenderer{name: "tui"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if diff := cmp.Diff([]string{"html", "tui"}, reg.Formats()); diff != "" {
		t.Fatalf("formats mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		format string
		want   string
	}{
		{format: "", want: "html"},
		{format: "TUI", want: "tui"},
		{format: " html ", want: "html"},
	}
	for _, tt := range tests {
		got, err := reg.Resolve(tt.format, "html")
		if err != nil {
			t.Fatalf("%q: resolve: %v", tt.format, err)
		}
		if got.Name() != tt.want {
			t.Fatalf("%q: expected %s, got %s", tt.format, tt.want, got.Name())
		}
	}

	if _, err := reg.Resolve("pdf", "html"); err == nil || !strings.Contains(err.Error(), "html, tui") {
		t.Fatalf("expected unknown format error listing formats, got %v", err)
	}
	if _, err := render.NewRegistry(namedRenderer{name: "html"}, namedRenderer{name: "HTML"}); err == nil {
		t.Fatalf("expected duplicate format error")
	}
}
