package ajax

import (
	"net/http"

	"go.uber.org/zap"

	inlineform "github.com/goliatone/go-inlineform"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/state"
)

const (
	defaultRoutePath    = "/inlineform/ajax"
	defaultBuildIDParam = render.FieldBuildID
	defaultTriggerParam = render.FieldTrigger
	defaultFormatParam  = render.FieldFormat
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath    string
	BuildIDParam string
	TriggerParam string
	FormatParam  string
	Guard        GuardFunc

	Cache   *state.Cache
	Widgets *inlineform.Widgets
	// Renderers selects the output by the posted FormatParam. Without it the
	// handler serves Renderer alone, or the embedded HTML renderer.
	Renderers     *render.Registry
	DefaultFormat string
	Renderer      render.Renderer
	Logger        *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    defaultRoutePath,
		BuildIDParam: defaultBuildIDParam,
		TriggerParam: defaultTriggerParam,
		FormatParam:  defaultFormatParam,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.BuildIDParam == "" {
		opts.BuildIDParam = defaultBuildIDParam
	}
	if opts.TriggerParam == "" {
		opts.TriggerParam = defaultTriggerParam
	}
	if opts.FormatParam == "" {
		opts.FormatParam = defaultFormatParam
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithBuildIDParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BuildIDParam = name
	}
}

func WithTriggerParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.TriggerParam = name
	}
}

func WithFormatParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FormatParam = name
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithCache(cache *state.Cache) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Cache = cache
	}
}

func WithWidgets(widgets *inlineform.Widgets) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Widgets = widgets
	}
}

func WithRenderer(renderer render.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = renderer
	}
}

// WithRenderers serves every format in reg. fallback names the format used
// when the request does not post one.
func WithRenderers(reg *render.Registry, fallback string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderers = reg
		o.DefaultFormat = fallback
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
