package html

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-inlineform/pkg/controller"
	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/testsupport"
)

const testID = testsupport.InstanceID

func assemble(t *testing.T, options ...form.Option) (form.Tree, *state.Store) {
	t.Helper()
	store := testsupport.Store(t, model.Settings{}, testsupport.Field(), testsupport.Records(`<b>Bold</b> & co`)...)
	return form.NewAssembler(options...).Assemble(context.Background(), store, testID), store
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return renderer
}

func TestRenderWrapperAndControls(t *testing.T) {
	tree, _ := assemble(t)
	renderer := newRenderer(t)

	out, err := renderer.Render(context.Background(), tree, render.RenderOptions{
		HiddenFields: render.MergeHiddenFields(nil, render.BuildIDField("form-1")),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`id="inline-entity-form-` + testID + `"`,
		`name="form_build_id" value="form-1"`,
		`name="` + controller.RowAction(controller.ActionOpenEdit, testID, 0).Name() + `"`,
		`name="` + controller.WidgetAction(controller.ActionOpenAdd, testID).Name() + `"`,
		`name="` + form.WeightName(testID, 0) + `"`,
		`&lt;b&gt;Bold&lt;/b&gt; &amp; co`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<b>Bold</b>") {
		t.Fatalf("record labels must be escaped:\n%s", html)
	}
}

func TestRenderSanitisesMarkup(t *testing.T) {
	tree, _ := assemble(t, form.WithDescription(`<em>Help</em><script>alert(1)</script>`))

	out, err := newRenderer(t).Render(context.Background(), tree, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "<em>Help</em>") {
		t.Fatalf("expected allowed markup to survive:\n%s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script to be stripped:\n%s", html)
	}
}

func TestRenderFieldErrors(t *testing.T) {
	tree, store := assemble(t)
	store.SetFormMode(testID, 0, model.FormModeEdit)
	tree = form.NewAssembler().Assemble(context.Background(), store, testID)

	mapping := render.MapRowErrors(tree, &model.ValidationError{Delta: 0, RowKey: 0, Field: "label", Messages: []string{"Label is required"}})
	out, err := newRenderer(t).Render(context.Background(), tree, render.RenderOptions{}.WithErrors(mapping))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "Label is required") || !strings.Contains(html, `class="ief-field-errors"`) {
		t.Fatalf("expected field error markup:\n%s", html)
	}
}

func TestErrorsTemplateEscapesMessages(t *testing.T) {
	engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	got := testsupport.CaptureTemplateOutput(t, engine, "errors", map[string]any{"messages": []any{"<i>bad</i>"}})
	want := `<ul class="ief-field-errors"><li>&lt;i&gt;bad&lt;/i&gt;</li></ul>`
	if strings.TrimSpace(got) != want {
		t.Fatalf("unexpected errors markup %q", got)
	}
}

func TestRenderEmptyTree(t *testing.T) {
	out, err := newRenderer(t).Render(context.Background(), form.Tree{}, render.RenderOptions{})
	if err != nil || out != nil {
		t.Fatalf("expected no output for empty tree, got %q %v", out, err)
	}
}

func TestRendererRegistersByName(t *testing.T) {
	reg, err := render.NewRegistry(newRenderer(t))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	got, err := reg.Resolve("", Name)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got.ContentType())
	}
}
