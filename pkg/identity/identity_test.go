package identity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeIDDeterministic(t *testing.T) {
	path := []string{"field_items", "form"}
	first := ComputeID(path)
	second := ComputeID([]string{"field_items", "form"})
	if first != second {
		t.Fatalf("expected equal ids, got %s and %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestComputeIDDistinguishesPaths(t *testing.T) {
	paths := [][]string{
		{"field_items", "form"},
		{"field_items", "form", "entities", "0", "form", "field_items", "form"},
		{"field_other", "form"},
		{"Field_items", "form"},
		{"field-items", "form"},
		{"field", "items", "form"},
		{""},
		{},
	}
	seen := make(map[string]int, len(paths))
	for idx, path := range paths {
		id := ComputeID(path)
		if prev, ok := seen[id]; ok {
			t.Fatalf("path %d collides with path %d", idx, prev)
		}
		seen[id] = idx
	}
}

func TestParents(t *testing.T) {
	got := Parents([]string{"outer", "entities", "0", "form"}, "field_tags")
	want := []string{"outer", "entities", "0", "form", "field_tags", "form"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parents mismatch (-want +got):\n%s", diff)
	}
	if WrapperID("abc") != "inline-entity-form-abc" {
		t.Fatalf("unexpected wrapper id %q", WrapperID("abc"))
	}
}
