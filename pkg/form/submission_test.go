package form

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/controller"
)

func TestDecodeSubmissionScopesValues(t *testing.T) {
	values := url.Values{
		InputName("abc", 1, "label"):  {"Beta"},
		InputName("abc", 1, "size"):   {"L"},
		InputName("abc", 2, "label"):  {"Other row"},
		WeightName("abc", 1):          {"3"},
		DeleteName("abc", 1):          {"1"},
		InputName("zzz", 1, "label"):  {"Other widget"},
		AddInputName("abc", "label"):  {"New"},
		BundleName("abc"):             {"premium"},
		ExistingName("abc"):           {" 42 "},
		"form_build_id":               {"form-1"},
		"_triggering_element_name":    {"ief:save_row:abc:1"},
	}

	tests := []struct {
		name   string
		action controller.Action
		want   controller.Submission
	}{
		{
			name:   "save row",
			action: controller.RowAction(controller.ActionSaveRow, "abc", 1),
			want:   controller.Submission{Values: map[string]any{"label": "Beta", "size": "L"}},
		},
		{
			name:   "confirm remove",
			action: controller.RowAction(controller.ActionConfirmRemove, "abc", 1),
			want:   controller.Submission{Delete: true},
		},
		{
			name:   "open add",
			action: controller.WidgetAction(controller.ActionOpenAdd, "abc"),
			want:   controller.Submission{Bundle: "premium"},
		},
		{
			name:   "close add",
			action: controller.WidgetAction(controller.ActionCloseAdd, "abc"),
			want:   controller.Submission{Values: map[string]any{"label": "New"}},
		},
		{
			name:   "add existing",
			action: controller.WidgetAction(controller.ActionAddExisting, "abc"),
			want:   controller.Submission{RecordID: "42"},
		},
		{
			name:   "open edit carries nothing",
			action: controller.RowAction(controller.ActionOpenEdit, "abc", 1),
			want:   controller.Submission{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSubmission(tt.action, values)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("submission mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeWeights(t *testing.T) {
	values := url.Values{
		WeightName("abc", 0): {"2"},
		WeightName("abc", 1): {"-1"},
		WeightName("abc", 2): {"nope"},
		WeightName("zzz", 0): {"9"},
	}
	want := map[int]int{0: 2, 1: -1}
	if diff := cmp.Diff(want, DecodeWeights("abc", values)); diff != "" {
		t.Fatalf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOpenForms(t *testing.T) {
	values := url.Values{
		InputName("abc", 0, "label"): {"first", "Edited"},
		InputName("abc", 0, "size"):  {"M"},
		WeightName("abc", 0):         {"4"},
		DeleteName("abc", 1):         {"1"},
		AddInputName("abc", "label"): {"Fresh"},
		BundleName("abc"):            {"item"},
		ExistingName("abc"):          {"42"},
		InputName("zzz", 0, "label"): {"Other widget"},
	}
	rows, add := DecodeOpenForms("abc", values)

	wantRows := map[int]map[string]any{0: {"label": "Edited", "size": "M"}}
	if diff := cmp.Diff(wantRows, rows); diff != "" {
		t.Fatalf("row values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"label": "Fresh"}, add); diff != "" {
		t.Fatalf("add values mismatch (-want +got):\n%s", diff)
	}

	rows, add = DecodeOpenForms("abc", url.Values{WeightName("abc", 0): {"1"}})
	if rows != nil || add != nil {
		t.Fatalf("expected no sub-form values, got %v %v", rows, add)
	}
}
