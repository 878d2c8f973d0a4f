package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldFormat is the posted input that selects the output format of an ajax
// rebuild.
const FieldFormat = "ief_format"

// Registry maps output formats ("html", "tui") to the renderer that produces
// them. Formats are matched case-insensitively.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Renderer
}

// NewRegistry registers renderers under their Name().
func NewRegistry(renderers ...Renderer) (*Registry, error) {
	r := &Registry{formats: make(map[string]Renderer)}
	for _, renderer := range renderers {
		if err := r.Register(renderer); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds renderer under its Name(). A format can only be claimed once.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	format := normaliseFormat(renderer.Name())
	if format == "" {
		return fmt.Errorf("render: renderer format is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formats[format]; exists {
		return fmt.Errorf("render: format %q already registered", format)
	}
	r.formats[format] = renderer
	return nil
}

// Formats lists the registered formats in order.
func (r *Registry) Formats() []string {
	if r == nil {
		return []string{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.formats))
	for format := range r.formats {
		out = append(out, format)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the renderer for format, using fallback when format is
// blank. Unknown formats report the registered ones.
func (r *Registry) Resolve(format, fallback string) (Renderer, error) {
	format = normaliseFormat(format)
	if format == "" {
		format = normaliseFormat(fallback)
	}
	if r != nil {
		r.mu.RLock()
		renderer, ok := r.formats[format]
		r.mu.RUnlock()
		if ok {
			return renderer, nil
		}
	}
	return nil, fmt.Errorf("render: unknown format %q (available: %s)", format, strings.Join(r.Formats(), ", "))
}

func normaliseFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
