// Package tui renders widget trees as terminal tables and drives a widget
// instance interactively through a prompt driver.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bndr/gotabulate"

	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/render"
)

// Name is the registry name of the renderer.
const Name = "tui"

var tableHeaders = []string{"#", "Label", "Bundle", "Weight", "Status", "Actions"}

// Renderer implements render.Renderer with gotabulate tables.
type Renderer struct {
	format  TableFormat
	maxCell int
	theme   Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with grid tables.
func New(options ...Option) *Renderer {
	r := &Renderer{
		format:  TableFormatGrid,
		maxCell: 40,
		theme:   Theme{InfoPrefix: "", ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the output format of Render.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render writes the rows of the tree as a table followed by the widget-level
// messages, open form and controls.
func (r *Renderer) Render(ctx context.Context, tree form.Tree, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tree.Empty() {
		return nil, nil
	}
	tree = render.LocalizeTree(tree, opts)

	var out strings.Builder
	if tree.Root.Label != "" {
		out.WriteString(tree.Root.Label + "\n")
	}
	for _, message := range opts.FormErrors {
		out.WriteString(r.theme.ErrorPrefix + message + "\n")
	}

	rows := tree.Rows()
	if len(rows) == 0 {
		out.WriteString("(none)\n")
	} else {
		data := make([][]string, 0, len(rows))
		for _, row := range rows {
			data = append(data, tableRow(row))
		}
		table := gotabulate.Create(data)
		table.SetHeaders(tableHeaders)
		table.SetAlign("left")
		table.SetEmptyString("-")
		table.SetWrapStrings(true)
		table.SetMaxCellSize(r.maxCell)
		out.WriteString(table.Render(string(r.format)))
	}

	for _, line := range r.widgetLines(tree, opts) {
		out.WriteString(line + "\n")
	}
	return []byte(out.String()), nil
}

func tableRow(row form.Node) []string {
	var (
		label   string
		bundle  = row.Attr(form.AttrBundle)
		weight  string
		status  = row.Attr(form.AttrMode)
		actions []string
	)
	for _, child := range row.Children {
		switch child.Kind {
		case form.KindSummary:
			label = child.Label
			if slices.Contains(child.Classes, "ief-needs-save") {
				status = "unsaved"
			}
		case form.KindEntityForm:
			label = child.Label
		case form.KindWeight:
			weight = child.Value
		}
	}
	walkButtons(row, func(button form.Node) {
		actions = append(actions, button.Label)
	})
	return []string{row.Attr(form.AttrDelta), label, bundle, weight, status, strings.Join(actions, " | ")}
}

// widgetLines lists everything outside the row table: the open sub-form with
// its inputs, messages, field errors and widget controls.
func (r *Renderer) widgetLines(tree form.Tree, opts render.RenderOptions) []string {
	var lines []string
	tree.Walk(func(node form.Node) bool {
		switch node.Kind {
		case form.KindTable:
			for _, row := range node.Children {
				lines = append(lines, r.rowFormLines(row, opts)...)
			}
			return false
		case form.KindMessage:
			lines = append(lines, r.theme.InfoPrefix+node.Label)
		case form.KindEntityForm, form.KindFieldset:
			if node.Name != tree.InstanceID && node.Label != "" {
				lines = append(lines, "["+node.Label+"]")
			}
		case form.KindInput, form.KindSelect, form.KindCheckbox:
			lines = append(lines, r.inputLines(node, opts)...)
		case form.KindButton:
			lines = append(lines, "  > "+node.Label)
		}
		return true
	})
	if errs := opts.Errors[tree.InstanceID]; len(errs) > 0 {
		for _, message := range errs {
			lines = append(lines, r.theme.ErrorPrefix+message)
		}
	}
	return lines
}

// rowFormLines describes an open row form below the table.
func (r *Renderer) rowFormLines(row form.Node, opts render.RenderOptions) []string {
	var lines []string
	for _, message := range opts.Errors[row.Name] {
		lines = append(lines, r.theme.ErrorPrefix+message)
	}
	for _, child := range row.Children {
		if child.Kind != form.KindEntityForm {
			continue
		}
		lines = append(lines, "["+child.Label+"]")
		var walk func(node form.Node)
		walk = func(node form.Node) {
			switch node.Kind {
			case form.KindMessage:
				lines = append(lines, "  "+node.Label)
			case form.KindInput, form.KindSelect, form.KindCheckbox:
				lines = append(lines, r.inputLines(node, opts)...)
			}
			for _, grandchild := range node.Children {
				walk(grandchild)
			}
		}
		walk(child)
	}
	return lines
}

func (r *Renderer) inputLines(node form.Node, opts render.RenderOptions) []string {
	lines := []string{fmt.Sprintf("  %s: %s", node.Label, node.Value)}
	for _, message := range opts.Errors[node.Name] {
		lines = append(lines, "  "+r.theme.ErrorPrefix+message)
	}
	return lines
}

func walkButtons(node form.Node, fn func(form.Node)) {
	if node.Kind == form.KindButton {
		fn(node)
	}
	for _, child := range node.Children {
		walkButtons(child, fn)
	}
}
