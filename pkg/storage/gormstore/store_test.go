package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/storage"
)

func openTestStore(t *testing.T, options ...Option) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), options...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	rec := &model.Record{
		Type:   "node",
		Bundle: "article",
		Label:  "Hello",
		Fields: map[string]any{"body": "text"},
	}
	id, err := store.Save(ctx, rec)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" || rec.ID != id {
		t.Fatalf("expected id written back, got %q", rec.ID)
	}
	if !store.Exists(ctx, id) {
		t.Fatalf("expected record to exist")
	}

	loaded, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(rec, loaded); diff != "" {
		t.Fatalf("loaded mismatch (-want +got):\n%s", diff)
	}

	rec.Label = "Updated"
	if _, err := store.Save(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	loaded, _ = store.Load(ctx, id)
	if loaded.Label != "Updated" {
		t.Fatalf("expected updated label, got %q", loaded.Label)
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.Save(ctx, &model.Record{Type: "node", Bundle: "page"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Exists(ctx, id) {
		t.Fatalf("record should be gone")
	}
	if err := store.Delete(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Load(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on load, got %v", err)
	}
}

func TestStoreAccessPolicy(t *testing.T) {
	store := openTestStore(t, WithAccess(storage.DenyOperations(model.OperationDelete)))
	if store.CheckAccess(context.Background(), &model.Record{ID: "1"}, model.OperationDelete) {
		t.Fatalf("delete should be denied")
	}
}
