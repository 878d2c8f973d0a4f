package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetMultiple = "inline_entity_form_multiple"
	WidgetSingle   = "inline_entity_form_single"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field model.FieldDefinition) bool

type rule struct {
	name     string
	variant  model.Variant
	priority int
	match    Matcher
	order    int
}

// Registry selects the widget for a reference field based on explicit names
// or registered matchers. Higher priority wins; ties fall back to
// registration order.
type Registry struct {
	mu       sync.RWMutex
	rules    []rule
	variants map[string]model.Variant
}

// NewRegistry constructs a registry with the built-in widgets registered.
func NewRegistry() *Registry {
	reg := &Registry{variants: make(map[string]model.Variant)}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher. The latest registration of a name wins when
// looking up its variant.
func (r *Registry) Register(name string, variant model.Variant, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	if variant == "" {
		variant = model.VariantMultiple
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		variant:  variant,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
	r.variants[trimmed] = variant
}

// Resolve returns the widget name for a field. An explicit name that is
// registered wins over matcher evaluation.
func (r *Registry) Resolve(field model.FieldDefinition, explicit string) (string, bool) {
	if r == nil {
		return "", false
	}
	if name := strings.TrimSpace(explicit); name != "" {
		if _, ok := r.VariantFor(name); ok {
			return name, true
		}
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// VariantFor returns the UI variant of a registered widget.
func (r *Registry) VariantFor(name string) (model.Variant, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	variant, ok := r.variants[strings.TrimSpace(name)]
	return variant, ok
}

// ResolveVariant combines Resolve and VariantFor, defaulting to the multiple
// variant.
func (r *Registry) ResolveVariant(field model.FieldDefinition, explicit string) model.Variant {
	name, ok := r.Resolve(field, explicit)
	if !ok {
		return model.VariantMultiple
	}
	variant, ok := r.VariantFor(name)
	if !ok {
		return model.VariantMultiple
	}
	return variant
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetSingle, model.VariantSingle, 90, func(field model.FieldDefinition) bool {
		return field.Cardinality == 1
	})

	r.Register(WidgetMultiple, model.VariantMultiple, 10, func(model.FieldDefinition) bool {
		return true
	})
}
