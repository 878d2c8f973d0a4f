package ajax

import "net/http"

// Component is the action endpoint shared by every inline widget on a page.
// Its handler is built once, so the renderer and registry it resolves are
// reused across requests and mounts.
type Component struct {
	opts    Options
	handler http.Handler
}

// New configures the endpoint. Cache and Widgets must be set before the
// handler serves actions.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts, handler: HandlerWithOptions(opts)}
}

// Options reports the endpoint configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return c.opts
}

// Handler serves rebuild requests for the registered widgets.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return NewHandler()
	}
	return c.handler
}

// RegisterRoutes mounts the endpoint below basePath and returns the pattern
// the page should post actions to.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return mount(mux, mountPath(basePath, c.opts.RoutePath), c.handler)
}
