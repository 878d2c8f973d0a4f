// Package render defines the presentation seam of the inline form widget:
// renderers turn a form.Tree into bytes, and helpers carry hidden fields,
// validation errors and translations into the render pass.
package render

import (
	"context"

	"github.com/goliatone/go-inlineform/pkg/form"
)

// Renderer converts a render tree into a byte representation (HTML, terminal
// text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, tree form.Tree, options RenderOptions) ([]byte, error)
}
