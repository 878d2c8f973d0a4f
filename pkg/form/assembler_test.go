package form

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/controller"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/storage"
)

const testID = "abc"

type fixture struct {
	settings model.Settings
	field    model.FieldDefinition
	variant  model.Variant
	records  []*model.Record
}

func (f fixture) store(t *testing.T) *state.Store {
	t.Helper()
	field := f.field
	if field.TargetType == "" {
		field.TargetType = "item"
		field.AllowedBundles = []string{"item"}
		field.ParentType = "node"
	}
	store := state.NewStore()
	store.Init(testID, f.settings, field, []string{"field_items", "form"}, f.variant)
	store.LoadInitialRows(testID, f.records)
	return store
}

func saved(ids ...string) []*model.Record {
	out := make([]*model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, &model.Record{ID: id, Type: "item", Bundle: "item", Label: "Item " + id})
	}
	return out
}

func TestAssembleUnknownInstanceIsEmpty(t *testing.T) {
	tree := NewAssembler().Assemble(context.Background(), state.NewStore(), "missing")
	if !tree.Empty() {
		t.Fatalf("expected empty tree, got %+v", tree)
	}
}

func TestAssembleCardinalityControls(t *testing.T) {
	cases := []struct {
		name        string
		cardinality int
		rows        int
		wantAdd     bool
		wantCue     string
	}{
		{name: "limit reached", cardinality: 2, rows: 2, wantAdd: false, wantCue: "You have added 2 out of 2 allowed items."},
		{name: "below limit", cardinality: 3, rows: 1, wantAdd: true, wantCue: "You have added 1 out of 3 allowed items."},
		{name: "unlimited", cardinality: 0, rows: 5, wantAdd: true},
		{name: "single value filled", cardinality: 1, rows: 1, wantAdd: false, wantCue: "You have added 1 out of 1 allowed items."},
		{name: "single value empty", cardinality: 1, rows: 0, wantAdd: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ids := []string{"1", "2", "3", "4", "5"}[:tc.rows]
			store := fixture{
				field: model.FieldDefinition{TargetType: "item", AllowedBundles: []string{"item"}, Cardinality: tc.cardinality},
				records: saved(ids...),
			}.store(t)

			tree := NewAssembler().Assemble(context.Background(), store, testID)
			if got := tree.HasAction(controller.ActionOpenAdd, -1); got != tc.wantAdd {
				t.Fatalf("add control present=%v, want %v", got, tc.wantAdd)
			}
			cue, ok := tree.Find(testID + "[cardinality]")
			if tc.wantCue == "" {
				if ok {
					t.Fatalf("unexpected cardinality cue %q", cue.Label)
				}
				return
			}
			if !ok || cue.Label != tc.wantCue {
				t.Fatalf("expected cue %q, got %q", tc.wantCue, cue.Label)
			}
		})
	}
}

func TestShouldAutoOpenAdd(t *testing.T) {
	base := model.FieldDefinition{
		ParentType:     "node",
		TargetType:     "item",
		AllowedBundles: []string{"item"},
		Required:       true,
	}
	recursive := base
	recursive.ParentType = "item"
	optional := base
	optional.Required = false
	several := base
	several.AllowedBundles = []string{"item", "other"}

	cases := []struct {
		name     string
		field    model.FieldDefinition
		settings model.Settings
		rows     []*model.Record
		want     bool
	}{
		{name: "required single bundle", field: base, want: true},
		{name: "recursion guard", field: recursive, want: false},
		{name: "optional field", field: optional, want: false},
		{name: "several bundles", field: several, want: false},
		{name: "allow existing", field: base, settings: model.Settings{AllowExisting: true}, want: false},
		{name: "has rows", field: base, rows: saved("1"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := fixture{field: tc.field, settings: tc.settings, records: tc.rows}.store(t)
			inst, _ := store.Instance(testID)
			bundle, ok := ShouldAutoOpenAdd(inst)
			if ok != tc.want {
				t.Fatalf("auto open = %v, want %v", ok, tc.want)
			}
			if ok && bundle != "item" {
				t.Fatalf("expected bundle item, got %q", bundle)
			}
		})
	}
}

func TestAssembleDoesNotAutoOpen(t *testing.T) {
	field := model.FieldDefinition{
		ParentType:     "item",
		TargetType:     "item",
		AllowedBundles: []string{"item"},
		Required:       true,
	}
	store := fixture{field: field}.store(t)
	before, _ := store.Instance(testID)

	tree := NewAssembler().Assemble(context.Background(), store, testID)

	after, _ := store.Instance(testID)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("assembly mutated state (-before +after):\n%s", diff)
	}
	if after.WidgetForm != model.FormModeNone {
		t.Fatalf("expected no add form, got %q", after.WidgetForm)
	}
	if !tree.HasAction(controller.ActionOpenAdd, -1) {
		t.Fatalf("expected add control instead of an open form")
	}
}

func TestAssembleRowControlsFollowAccess(t *testing.T) {
	records := saved("1")
	records = append(records, &model.Record{Type: "item", Bundle: "item", Label: "Unsaved"})
	store := fixture{records: records}.store(t)

	assembler := NewAssembler(WithAccess(storage.DenyOperations(model.OperationUpdate, model.OperationDelete)))
	tree := assembler.Assemble(context.Background(), store, testID)

	if tree.HasAction(controller.ActionOpenEdit, 0) || tree.HasAction(controller.ActionOpenRemove, 0) {
		t.Fatalf("saved row without access must not offer edit or remove")
	}
	if !tree.HasAction(controller.ActionOpenEdit, 1) || !tree.HasAction(controller.ActionOpenRemove, 1) {
		t.Fatalf("unsaved rows are always editable and removable")
	}

	store = fixture{settings: model.Settings{AllowExisting: true}, records: saved("1")}.store(t)
	tree = assembler.Assemble(context.Background(), store, testID)
	if !tree.HasAction(controller.ActionOpenRemove, 0) {
		t.Fatalf("allow_existing offers unlink without delete access")
	}
}

func TestAssembleRemoveFormCheckbox(t *testing.T) {
	cases := []struct {
		name     string
		settings model.Settings
		access   storage.AccessChecker
		record   *model.Record
		want     bool
	}{
		{name: "saved with allow existing", settings: model.Settings{AllowExisting: true}, access: storage.AllowAll, record: saved("42")[0], want: true},
		{name: "without allow existing", access: storage.AllowAll, record: saved("42")[0], want: false},
		{name: "no delete access", settings: model.Settings{AllowExisting: true}, access: storage.DenyOperations(model.OperationDelete), record: saved("42")[0], want: false},
		{name: "unsaved", settings: model.Settings{AllowExisting: true}, access: storage.AllowAll, record: &model.Record{Type: "item", Bundle: "item"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := fixture{settings: tc.settings, records: []*model.Record{tc.record}}.store(t)
			store.SetFormMode(testID, 0, model.FormModeRemove)

			tree := NewAssembler(WithAccess(tc.access)).Assemble(context.Background(), store, testID)
			_, ok := tree.Find(DeleteName(testID, 0))
			if ok != tc.want {
				t.Fatalf("checkbox present=%v, want %v", ok, tc.want)
			}
			if !tree.HasAction(controller.ActionConfirmRemove, 0) {
				t.Fatalf("expected confirm button")
			}
			if tree.HasAction(controller.ActionOpenEdit, 0) {
				t.Fatalf("open form must suppress row actions")
			}
			if tree.HasAction(controller.ActionOpenAdd, -1) {
				t.Fatalf("open row form must hide add controls")
			}
		})
	}
}

func TestAssembleMandatoryAddFormHidesCancel(t *testing.T) {
	field := model.FieldDefinition{ParentType: "node", TargetType: "item", AllowedBundles: []string{"item"}, Required: true}
	store := fixture{field: field}.store(t)
	store.SetWidgetForm(testID, model.FormModeAdd, "item")

	tree := NewAssembler().Assemble(context.Background(), store, testID)
	if tree.Root.Kind != KindContainer {
		t.Fatalf("expected container root without rows, got %q", tree.Root.Kind)
	}
	if !tree.HasAction(controller.ActionCloseAdd, -1) {
		t.Fatalf("expected create button")
	}
	if tree.HasAction(controller.ActionCancelAdd, -1) {
		t.Fatalf("mandatory add form must not be cancellable")
	}
	if _, ok := tree.Find(AddInputName(testID, "label")); !ok {
		t.Fatalf("expected add form inputs")
	}
}

func TestAssembleBundleSelectAndExistingControl(t *testing.T) {
	field := model.FieldDefinition{TargetType: "media", AllowedBundles: []string{"video", "image"}}
	store := fixture{field: field, settings: model.Settings{AllowExisting: true}}.store(t)

	tree := NewAssembler().Assemble(context.Background(), store, testID)
	sel, ok := tree.Find(BundleName(testID))
	if !ok {
		t.Fatalf("expected bundle select")
	}
	want := []Choice{{Value: "image", Label: "image"}, {Value: "video", Label: "video"}}
	if diff := cmp.Diff(want, sel.Choices); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}
	if !tree.HasAction(controller.ActionOpenAddExisting, -1) {
		t.Fatalf("expected add existing control")
	}
}

func TestAssembleRowsInWeightOrder(t *testing.T) {
	store := fixture{records: saved("a", "b", "c")}.store(t)
	store.SetWeight(testID, 0, 3)
	store.SetWeight(testID, 1, 1)
	store.SetWeight(testID, 2, 1)

	tree := NewAssembler().Assemble(context.Background(), store, testID)
	var keys []int
	for _, row := range tree.Rows() {
		keys = append(keys, row.RowKey())
	}
	if diff := cmp.Diff([]int{1, 2, 0}, keys); diff != "" {
		t.Fatalf("row order mismatch (-want +got):\n%s", diff)
	}

	weight, ok := tree.Find(WeightName(testID, 0))
	if !ok || weight.Value != "3" || len(weight.Choices) != 2*MinWeightDelta+1 {
		t.Fatalf("unexpected weight select %+v", weight)
	}
}

func TestAssembleEditFormShowsDraft(t *testing.T) {
	store := fixture{records: saved("1")}.store(t)
	store.SetFormMode(testID, 0, model.FormModeEdit)
	store.SetDraft(testID, 0, map[string]any{"label": "Changed"})

	tree := NewAssembler().Assemble(context.Background(), store, testID)
	input, ok := tree.Find(InputName(testID, 0, "label"))
	if !ok || input.Value != "Changed" {
		t.Fatalf("expected draft value in edit form, got %+v", input)
	}
	if !tree.HasAction(controller.ActionSaveRow, 0) || !tree.HasAction(controller.ActionCancelRow, 0) {
		t.Fatalf("expected update and cancel buttons")
	}
}

func TestParseInputName(t *testing.T) {
	cases := []struct {
		name string
		want InputRef
		ok   bool
	}{
		{name: InputName("abc", 2, "title"), want: InputRef{InstanceID: "abc", RowKey: 2, Field: "title"}, ok: true},
		{name: WeightName("abc", 0), want: InputRef{InstanceID: "abc", RowKey: 0, Field: "_weight", Weight: true}, ok: true},
		{name: DeleteName("abc", 1), want: InputRef{InstanceID: "abc", RowKey: 1, Field: "delete", Delete: true}, ok: true},
		{name: AddInputName("abc", "label"), want: InputRef{InstanceID: "abc", RowKey: -1, Field: "label", Add: true}, ok: true},
		{name: BundleName("abc"), want: InputRef{InstanceID: "abc", RowKey: -1, Field: "bundle", Add: true, Bundle: true}, ok: true},
		{name: ExistingName("abc"), want: InputRef{InstanceID: "abc", RowKey: -1, Existing: true}, ok: true},
		{name: "abc", ok: false},
		{name: "abc[x][y]", ok: false},
		{name: "[1][y]", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseInputName(tc.name)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v, want %v", tc.name, ok, tc.ok)
		}
		if diff := cmp.Diff(tc.want, got); tc.ok && diff != "" {
			t.Fatalf("%q mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}
