package ajax

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/controller"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/renderers/html"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Response is the JSON reply to an action.
type Response struct {
	Wrapper string `json:"wrapper"`
	Format  string `json:"format,omitempty"`
	HTML    string `json:"html"`
	Applied bool   `json:"applied"`
	Denied  bool   `json:"denied"`
	Stale   bool   `json:"stale"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options
// value. Without a registry the handler serves a single renderer: opts.Renderer
// or the embedded HTML renderer, built on first use.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	logger := opts.Logger

	var (
		registryOnce sync.Once
		registry     = opts.Renderers
		fallback     = opts.DefaultFormat
		registryErr  error
	)
	formats := func() (*render.Registry, error) {
		registryOnce.Do(func() {
			if registry != nil {
				return
			}
			renderer := opts.Renderer
			if renderer == nil {
				renderer, registryErr = html.New(html.WithLogger(logger))
				if registryErr != nil {
					return
				}
			}
			if fallback == "" {
				fallback = renderer.Name()
			}
			registry, registryErr = render.NewRegistry(renderer)
		})
		return registry, registryErr
	}
	if fallback == "" && registry != nil {
		fallback = html.Name
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		if opts.Cache == nil || opts.Widgets == nil {
			logger.Error("ajax: handler is missing its cache or widgets")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		buildID := r.PostForm.Get(opts.BuildIDParam)
		trigger := r.PostForm.Get(opts.TriggerParam)
		action, err := controller.ParseAction(trigger)
		if err != nil {
			logger.Debug("ajax: bad trigger", zap.String("trigger", trigger), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		reg, err := formats()
		if err != nil {
			logger.Error("ajax: renderer unavailable", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		rr, err := reg.Resolve(r.PostForm.Get(opts.FormatParam), fallback)
		if err != nil {
			logger.Debug("ajax: bad format", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		store, ok := opts.Cache.Resume(buildID)
		if !ok {
			writeJSON(w, http.StatusGone, Response{Stale: true})
			return
		}
		release := store.Acquire()
		defer release()

		widget, ok := opts.Widgets.ForInstance(store, action.InstanceID)
		if !ok {
			logger.Debug("ajax: unknown instance", zap.String("build_id", buildID), zap.String("instance", action.InstanceID))
			writeJSON(w, http.StatusGone, Response{Stale: true})
			return
		}

		result, cause := widget.HandleValues(r.Context(), store, trigger, r.PostForm)
		if result.Stale {
			writeJSON(w, http.StatusGone, Response{Wrapper: result.Wrapper, Stale: true})
			return
		}
		if cause != nil {
			logger.Debug("ajax: action reported errors", zap.String("action", action.Name()), zap.Error(cause))
		}

		renderOpts := render.RenderOptions{
			HiddenFields: render.MergeHiddenFields(nil, render.BuildIDField(buildID)),
		}
		if result.Denied {
			renderOpts.FormErrors = []string{"You are not allowed to do that."}
		}
		out, err := widget.Render(r.Context(), store, action.InstanceID, rr, renderOpts, cause)
		if err != nil {
			logger.Error("ajax: render failed", zap.String("instance", action.InstanceID), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, Response{
			Wrapper: result.Wrapper,
			Format:  rr.Name(),
			HTML:    string(out),
			Applied: result.Applied,
			Denied:  result.Denied,
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, payload Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
