package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-inlineform/pkg/form"
)

// ErrMissingTranslator is passed to the missing handler when no translator is
// configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale. Labels assembled by the form
// package are used verbatim as keys.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the string used when a key cannot be
// translated.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if data, ok := arg.(map[string]any); ok {
			if fallback, ok := data["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// LocalizeTree returns a copy of tree with labels and choice labels passed
// through the translator. Values and names are left untouched.
func LocalizeTree(tree form.Tree, opts RenderOptions) form.Tree {
	if opts.Translator == nil || tree.Empty() {
		return tree
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tree.Root = localizeNode(tree.Root, opts.Locale, opts.Translator, onMissing)
	return tree
}

func localizeNode(node form.Node, locale string, t Translator, onMissing MissingTranslationHandler) form.Node {
	node.Label = translate(locale, node.Label, node.Label, t, onMissing)
	if len(node.Choices) > 0 {
		choices := make([]form.Choice, len(node.Choices))
		for idx, choice := range node.Choices {
			choice.Label = translate(locale, choice.Label, choice.Label, t, onMissing)
			choices[idx] = choice
		}
		node.Choices = choices
	}
	if len(node.Children) > 0 {
		children := make([]form.Node, len(node.Children))
		for idx, child := range node.Children {
			children[idx] = localizeNode(child, locale, t, onMissing)
		}
		node.Children = children
	}
	return node
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
		}
		return fallback
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}
