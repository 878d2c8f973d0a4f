package ajax

import (
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Mux is anything that can mount the action endpoint, *http.ServeMux included.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath is the URL the widget runtime posts actions to when the endpoint
// is mounted below basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	return mountPath(basePath, NewOptions(fns...).RoutePath)
}

// RegisterRoutes mounts a new action endpoint below basePath.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions is RegisterRoutes for a prepared Options value.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	opts = NewOptions(func(o *Options) { *o = opts })
	return mount(mux, mountPath(basePath, opts.RoutePath), HandlerWithOptions(opts))
}

func mount(mux Mux, pattern string, handler http.Handler) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("ajax: missing mux")
	}
	mux.Handle(pattern, handler)
	return pattern, nil
}

// mountPath joins basePath and the endpoint route into a rooted path without
// a trailing slash.
func mountPath(basePath, routePath string) string {
	routePath = strings.Trim(strings.TrimSpace(routePath), "/")
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	return path.Join("/", basePath, routePath)
}
