package state

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/model"
)

const testID = "instance-1"

func newTestStore(t *testing.T, variant model.Variant, records ...*model.Record) *Store {
	t.Helper()
	store := NewStore()
	if !store.Init(testID, model.Settings{}, model.FieldDefinition{Name: "field_items"}, []string{"field_items", "form"}, variant) {
		t.Fatalf("expected init to create instance")
	}
	store.LoadInitialRows(testID, records)
	return store
}

func rowKeys(rows []model.Row) []int {
	keys := make([]int, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key)
	}
	return keys
}

func TestInitIsIdempotent(t *testing.T) {
	store := NewStore()
	first := model.Settings{AllowExisting: true}
	if !store.Init(testID, first, model.FieldDefinition{}, nil, "") {
		t.Fatalf("first init should create")
	}
	if store.Init(testID, model.Settings{}, model.FieldDefinition{}, nil, model.VariantSingle) {
		t.Fatalf("second init should be a no-op")
	}
	inst, ok := store.Instance(testID)
	if !ok {
		t.Fatalf("instance missing")
	}
	if !inst.Settings.AllowExisting || inst.Variant != model.VariantMultiple {
		t.Fatalf("settings snapshot replaced: %+v", inst)
	}
}

func TestLoadInitialRowsIdempotent(t *testing.T) {
	records := []*model.Record{{ID: "1"}, nil, {ID: "3"}}
	store := newTestStore(t, model.VariantMultiple, records...)
	once := store.Rows(testID)
	store.LoadInitialRows(testID, records)
	twice := store.Rows(testID)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("rows changed after second load (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, rowKeys(twice)); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
	for _, row := range twice {
		if row.Weight != row.Key || row.FormMode != model.FormModeNone || row.NeedsSave {
			t.Fatalf("unexpected initial row %+v", row)
		}
	}
}

func TestAddRowKeysNeverReused(t *testing.T) {
	store := newTestStore(t, model.VariantMultiple, &model.Record{ID: "1"}, &model.Record{ID: "2"})

	first := store.AddRow(testID, &model.Record{})
	if first != 2 {
		t.Fatalf("expected key 2, got %d", first)
	}
	row, _ := store.Row(testID, first)
	if row.Weight != 2 {
		t.Fatalf("expected default weight 2, got %d", row.Weight)
	}

	store.RemoveRow(testID, first, false)
	second := store.AddRow(testID, &model.Record{})
	if second != 3 {
		t.Fatalf("expected fresh key 3, got %d", second)
	}
}

func TestSetFormModeTransitions(t *testing.T) {
	store := newTestStore(t, model.VariantMultiple, &model.Record{ID: "1"}, &model.Record{ID: "2"})

	if !store.SetFormMode(testID, 0, model.FormModeEdit) {
		t.Fatalf("open edit should apply")
	}
	if store.SetFormMode(testID, 0, model.FormModeRemove) {
		t.Fatalf("edit -> remove must go through none")
	}
	if !store.SetFormMode(testID, 1, model.FormModeRemove) {
		t.Fatalf("multiple variant allows independent row forms")
	}
	if !store.SetFormMode(testID, 0, model.FormModeEdit) {
		t.Fatalf("re-entering the current mode counts as applied")
	}
	if !store.SetFormMode(testID, 0, model.FormModeNone) {
		t.Fatalf("close should apply")
	}
	if store.SetFormMode(testID, 0, model.FormModeAdd) {
		t.Fatalf("add is not a row-level mode")
	}
	if store.SetFormMode(testID, 99, model.FormModeEdit) {
		t.Fatalf("unknown row should be ignored")
	}
}

func TestSetFormModeSingleVariantAllowsOneRowForm(t *testing.T) {
	store := newTestStore(t, model.VariantSingle, &model.Record{ID: "1"}, &model.Record{ID: "2"})

	if !store.SetFormMode(testID, 0, model.FormModeEdit) {
		t.Fatalf("first row form should open")
	}
	if store.SetFormMode(testID, 1, model.FormModeEdit) {
		t.Fatalf("second row form must be ignored in single variant")
	}
	if store.SetWidgetForm(testID, model.FormModeAdd, "") {
		t.Fatalf("add form must be ignored while a row form is open in single variant")
	}
}

func TestWidgetFormExclusion(t *testing.T) {
	store := newTestStore(t, model.VariantMultiple, &model.Record{ID: "1"})

	if !store.SetWidgetForm(testID, model.FormModeAdd, "article") {
		t.Fatalf("add should open")
	}
	if store.SetWidgetForm(testID, model.FormModeAddExisting, "") {
		t.Fatalf("only one widget form may be open")
	}
	if store.SetFormMode(testID, 0, model.FormModeEdit) {
		t.Fatalf("row forms are ignored while the add form is open")
	}
	store.SetAddDraft(testID, &model.Record{Label: "draft"})

	if !store.SetWidgetForm(testID, model.FormModeNone, "") {
		t.Fatalf("close should apply")
	}
	inst, _ := store.Instance(testID)
	if inst.AddDraft != nil || inst.AddBundle != "" {
		t.Fatalf("closing the widget form must discard draft state: %+v", inst)
	}
}

func TestRemoveRowPendingDeletion(t *testing.T) {
	store := newTestStore(t, model.VariantMultiple, &model.Record{ID: "42"}, &model.Record{ID: "7"})
	unsaved := store.AddRow(testID, &model.Record{})

	store.RemoveRow(testID, 0, false)
	store.RemoveRow(testID, 1, true)
	store.RemoveRow(testID, unsaved, true)

	want := []model.Pending{{RecordID: "7", OriginalDelta: 1}}
	if diff := cmp.Diff(want, store.PendingDeletions(testID)); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
	if len(store.Rows(testID)) != 0 {
		t.Fatalf("expected no rows left")
	}
	if !store.ResolvePending(testID, "7") || len(store.PendingDeletions(testID)) != 0 {
		t.Fatalf("expected pending entry resolved")
	}
}

func TestUnknownInstanceIsNoOp(t *testing.T) {
	store := NewStore()
	store.LoadInitialRows("missing", []*model.Record{{ID: "1"}})
	if store.Has("missing") {
		t.Fatalf("load must not create instances")
	}
	if store.AddRow("missing", &model.Record{}) != -1 {
		t.Fatalf("add on unknown id should return -1")
	}
	if store.SetFormMode("missing", 0, model.FormModeEdit) || store.MarkNeedsSave("missing", 0) || store.RemoveRow("missing", 0, true) {
		t.Fatalf("operations on unknown ids must be no-ops")
	}
	if rows := store.Rows("missing"); rows != nil {
		t.Fatalf("expected nil rows, got %v", rows)
	}
}

func TestNeedsSaveAndDraftTracking(t *testing.T) {
	store := newTestStore(t, model.VariantMultiple, &model.Record{ID: "1"})
	store.SetDraft(testID, 0, map[string]any{"title": "a"})
	store.MarkNeedsSave(testID, 0)

	row, _ := store.Row(testID, 0)
	if !row.NeedsSave || row.Draft["title"] != "a" {
		t.Fatalf("unexpected row %+v", row)
	}
	row.Draft["title"] = "mutated"
	again, _ := store.Row(testID, 0)
	if again.Draft["title"] != "a" {
		t.Fatalf("Row must return a copy of the draft")
	}

	store.ClearDraft(testID, 0)
	store.ClearNeedsSave(testID, 0)
	row, _ = store.Row(testID, 0)
	if row.NeedsSave || row.Draft != nil {
		t.Fatalf("expected cleared row, got %+v", row)
	}
}

func TestCacheLifecycle(t *testing.T) {
	cache := NewCache(WithTTL(time.Minute))
	buildID, store := cache.Begin()
	if !strings.HasPrefix(buildID, "form-") {
		t.Fatalf("unexpected build id %q", buildID)
	}
	store.Init(testID, model.Settings{}, model.FieldDefinition{}, nil, "")

	resumed, ok := cache.Resume(buildID)
	if !ok || resumed != store || !resumed.Has(testID) {
		t.Fatalf("expected to resume the same store")
	}

	cache.Finish(buildID)
	if _, ok := cache.Resume(buildID); ok {
		t.Fatalf("finished cycles must not resume")
	}
	if _, ok := cache.Resume(""); ok {
		t.Fatalf("empty build id must not resume")
	}
}

func TestAcquireSerialisesOwners(t *testing.T) {
	store := NewStore()
	release := store.Acquire()

	acquired := make(chan struct{})
	go func() {
		done := store.Acquire()
		close(acquired)
		done()
	}()

	select {
	case <-acquired:
		t.Fatalf("second owner must wait for release")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second owner never acquired the store")
	}
}
