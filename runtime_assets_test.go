package inlineform

import (
	"io/fs"
	"strings"
	"testing"
)

func TestRuntimeAssetsFSContainsRuntimeScript(t *testing.T) {
	data, err := fs.ReadFile(RuntimeAssetsFS(), "inlineform.js")
	if err != nil {
		t.Fatalf("expected runtime script to be readable: %v", err)
	}
	if !strings.Contains(string(data), "_triggering_element_name") {
		t.Fatalf("expected runtime script to post the triggering element name")
	}
}

func TestEmbeddedTemplatesIncludeWrapper(t *testing.T) {
	if _, err := fs.ReadFile(EmbeddedTemplates(), "wrapper.tpl"); err != nil {
		t.Fatalf("expected wrapper template: %v", err)
	}
}
