// Package html renders widget trees as HTML fragments using pongo2 templates.
// The output is the wrapper region replaced on partial re-render.
package html

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/render"
	rendertemplate "github.com/goliatone/go-inlineform/pkg/render/template"
	"github.com/goliatone/go-inlineform/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Name is the registry name of the renderer.
const Name = "html"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	policy           *bluemonday.Policy
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithPolicy overrides the sanitiser applied to markup nodes.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	policy    *bluemonday.Policy
	logger    *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

func defaultPolicy() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.UGCPolicy()
	})
	return markupPolicy
}

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.policy == nil {
		cfg.policy = defaultPolicy()
	}

	engine := cfg.templateRenderer
	if engine == nil {
		built, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		engine = built
	}
	return &Renderer{templates: engine, policy: cfg.policy, logger: cfg.logger}, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string {
	return Name
}

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer. An empty tree renders nothing.
func (r *Renderer) Render(_ context.Context, tree form.Tree, options render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, fmt.Errorf("html renderer: not initialised")
	}
	if tree.Empty() {
		return nil, nil
	}
	tree = render.LocalizeTree(tree, options)

	body, err := r.node(tree.Root, options)
	if err != nil {
		return nil, err
	}

	hidden := make([]any, 0, len(options.HiddenFields))
	for _, field := range render.SortedHiddenFields(options.HiddenFields) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}
	formErrors := make([]any, 0, len(options.FormErrors))
	for _, message := range options.FormErrors {
		formErrors = append(formErrors, message)
	}

	out, err := r.templates.RenderTemplate("wrapper", map[string]any{
		"wrapper":     tree.Wrapper,
		"instance":    tree.InstanceID,
		"hidden":      hidden,
		"form_errors": formErrors,
		"body":        body,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render wrapper: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) node(node form.Node, options render.RenderOptions) (string, error) {
	var children strings.Builder
	for _, child := range node.Children {
		rendered, err := r.node(child, options)
		if err != nil {
			return "", err
		}
		children.WriteString(rendered)
	}

	errs, err := r.fieldErrors(node, options)
	if err != nil {
		return "", err
	}

	data := map[string]any{
		"node":     nodeData(node),
		"attrs":    attrList(node),
		"children": children.String(),
		"errors":   errs,
	}
	if node.Kind == form.KindMarkup {
		data["markup"] = strings.TrimSpace(r.policy.Sanitize(node.Value))
	}

	out, err := r.templates.RenderTemplate(string(node.Kind), data)
	if err != nil {
		return "", fmt.Errorf("html renderer: render %s %q: %w", node.Kind, node.Name, err)
	}
	return out + "\n", nil
}

func (r *Renderer) fieldErrors(node form.Node, options render.RenderOptions) (string, error) {
	if node.Name == "" || len(options.Errors[node.Name]) == 0 {
		return "", nil
	}
	messages := make([]any, 0, len(options.Errors[node.Name]))
	for _, message := range options.Errors[node.Name] {
		messages = append(messages, message)
	}
	return r.templates.RenderTemplate("errors", map[string]any{"messages": messages})
}

func nodeData(node form.Node) map[string]any {
	choices := make([]any, 0, len(node.Choices))
	for _, choice := range node.Choices {
		choices = append(choices, map[string]any{"value": choice.Value, "label": choice.Label})
	}
	return map[string]any{
		"kind":    string(node.Kind),
		"name":    node.Name,
		"label":   node.Label,
		"value":   node.Value,
		"choices": choices,
	}
}

// attrList flattens classes and attributes into a sorted list so output is
// deterministic.
func attrList(node form.Node) []any {
	keys := make([]string, 0, len(node.Attrs))
	for key := range node.Attrs {
		if strings.TrimSpace(key) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys)+1)
	if len(node.Classes) > 0 {
		out = append(out, map[string]any{"name": "class", "value": strings.Join(node.Classes, " ")})
	}
	for _, key := range keys {
		out = append(out, map[string]any{"name": key, "value": node.Attrs[key]})
	}
	return out
}
