package template

import (
	"io"
)

// TemplateRenderer executes named widget templates. The HTML renderer passes
// plain maps; the result is returned and also written to every out writer.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
