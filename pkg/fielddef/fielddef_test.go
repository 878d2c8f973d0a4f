package fielddef

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inlineform/pkg/model"
)

const articleDoc = `
openapi: 3.0.3
info:
  title: Content
  version: "1.0"
paths: {}
components:
  schemas:
    Article:
      type: object
      required: [field_sections]
      x-inline-entity-form-parent:
        type: node
        bundle: article
      properties:
        title:
          type: string
        field_sections:
          type: array
          items:
            type: string
          x-inline-entity-form:
            target_type: paragraph
            bundles: [text, image]
            cardinality: 3
        field_related:
          type: array
          maxItems: 5
          items:
            type: string
          x-inline-entity-form:
            target_type: node
            bundles: [article]
        field_author:
          type: string
          x-inline-entity-form:
            target_type: user
`

func TestLoadCollectsInlineFields(t *testing.T) {
	defs, err := Load(context.Background(), []byte(articleDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Article"}, defs.Schemas()); diff != "" {
		t.Fatalf("schemas mismatch (-want +got):\n%s", diff)
	}

	want := []model.FieldDefinition{
		{Name: "field_author", ParentType: "node", ParentBundle: "article", TargetType: "user", AllowedBundles: []string{"user"}, Cardinality: 1},
		{Name: "field_related", ParentType: "node", ParentBundle: "article", TargetType: "node", AllowedBundles: []string{"article"}, Cardinality: 5},
		{Name: "field_sections", ParentType: "node", ParentBundle: "article", TargetType: "paragraph", AllowedBundles: []string{"text", "image"}, Cardinality: 3, Required: true},
	}
	if diff := cmp.Diff(want, defs.Schema("Article")); diff != "" {
		t.Fatalf("definitions mismatch (-want +got):\n%s", diff)
	}

	if _, ok := defs.Field("Article", "title"); ok {
		t.Fatalf("plain properties must not be collected")
	}
}

func TestLoadRejectsMissingTargetType(t *testing.T) {
	doc := strings.Replace(articleDoc, "target_type: user", "label: user", 1)
	if _, err := Load(context.Background(), []byte(doc)); err == nil || !strings.Contains(err.Error(), "target_type is required") {
		t.Fatalf("expected target_type error, got %v", err)
	}
}

func TestLoadEmptyPayload(t *testing.T) {
	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
