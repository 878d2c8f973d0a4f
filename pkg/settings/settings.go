// Package settings supplies widget policy: defaults, functional overrides,
// label resolution, and per-field settings loaded from JSON/YAML files.
package settings

import (
	"strings"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// DefaultSettings mirrors the widget defaults: no "add existing", CONTAINS
// matching, no cascading deletes, entity type labels.
func DefaultSettings() model.Settings {
	return model.Settings{
		AllowExisting:    false,
		MatchOperator:    model.MatchContains,
		DeleteReferences: false,
		OverrideLabels:   false,
	}
}

// OptionFn mutates settings before they are captured by an instance.
type OptionFn func(*model.Settings)

// New applies fns over DefaultSettings and normalises the result.
func New(fns ...OptionFn) model.Settings {
	out := DefaultSettings()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&out)
	}
	return Normalize(out)
}

// Normalize trims labels and falls back to CONTAINS for unknown operators.
func Normalize(s model.Settings) model.Settings {
	op := model.MatchOperator(strings.ToUpper(strings.TrimSpace(string(s.MatchOperator))))
	if !op.Valid() {
		op = model.MatchContains
	}
	s.MatchOperator = op
	s.LabelSingular = strings.TrimSpace(s.LabelSingular)
	s.LabelPlural = strings.TrimSpace(s.LabelPlural)
	return s
}

func WithAllowExisting(allow bool) OptionFn {
	return func(s *model.Settings) {
		if s == nil {
			return
		}
		s.AllowExisting = allow
	}
}

func WithMatchOperator(op model.MatchOperator) OptionFn {
	return func(s *model.Settings) {
		if s == nil {
			return
		}
		s.MatchOperator = op
	}
}

func WithDeleteReferences(enabled bool) OptionFn {
	return func(s *model.Settings) {
		if s == nil {
			return
		}
		s.DeleteReferences = enabled
	}
}

// WithLabels overrides the entity type labels used in UI strings.
func WithLabels(singular, plural string) OptionFn {
	return func(s *model.Settings) {
		if s == nil {
			return
		}
		s.OverrideLabels = true
		s.LabelSingular = singular
		s.LabelPlural = plural
	}
}

// Labeler supplies entity type labels when settings do not override them.
type Labeler interface {
	Labels(targetType string) model.Labels
}

// LabelerFunc adapts a function to Labeler.
type LabelerFunc func(targetType string) model.Labels

// Labels implements Labeler.
func (fn LabelerFunc) Labels(targetType string) model.Labels {
	return fn(targetType)
}

// DefaultLabeler derives labels from the target type name.
var DefaultLabeler = LabelerFunc(func(targetType string) model.Labels {
	name := strings.TrimSpace(strings.ReplaceAll(targetType, "_", " "))
	if name == "" {
		name = "entity"
	}
	return model.Labels{Singular: name, Plural: pluralize(name)}
})

// ResolveLabels returns the overridden labels when enabled, otherwise the
// labeler's labels for targetType.
func ResolveLabels(s model.Settings, targetType string, labeler Labeler) model.Labels {
	if s.OverrideLabels {
		return model.Labels{Singular: s.LabelSingular, Plural: s.LabelPlural}
	}
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return labeler.Labels(targetType)
}

func pluralize(word string) string {
	switch {
	case strings.HasSuffix(word, "y") && !strings.HasSuffix(word, "ay") && !strings.HasSuffix(word, "ey"):
		return strings.TrimSuffix(word, "y") + "ies"
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "ch"):
		return word + "es"
	default:
		return word + "s"
	}
}
