package gotemplate

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

func newEngine(t *testing.T, options ...Option) *Engine {
	t.Helper()
	files := fstest.MapFS{
		"summary.tpl": {Data: []byte(`<td>{{ node.label }}</td>`)},
		"markup.tpl":  {Data: []byte(`<b>{{ label }}</b>{{ markup|safe }}`)},
		"row.html":    {Data: []byte(`<tr>{{ children|safe }}</tr>`)},
	}
	engine, err := New(append([]Option{WithFS(files)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRenderTemplateWritesOutput(t *testing.T) {
	engine := newEngine(t)

	var buf bytes.Buffer
	got, err := engine.RenderTemplate("summary", map[string]any{"node": map[string]any{"label": "Ada"}}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<td>Ada</td>" || buf.String() != got {
		t.Fatalf("unexpected output %q (writer %q)", got, buf.String())
	}
}

func TestEngineAutoescapes(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("markup", map[string]any{
		"label":  "<script>",
		"markup": "<i>ok</i>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got, "<script>") || !strings.Contains(got, "<i>ok</i>") {
		t.Fatalf("unexpected escaping %q", got)
	}
}

func TestEngineExtension(t *testing.T) {
	engine := newEngine(t, WithExtension("html"))

	got, err := engine.RenderTemplate("row", map[string]any{"children": "<td></td>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<tr><td></td></tr>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineRejectsBadInput(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error without template fs")
	}
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
	if _, err := engine.RenderTemplate("summary", struct{ Label string }{"x"}); err == nil {
		t.Fatalf("expected error for non map data")
	}
}
