// Package inlineform ties the row state store, form assembly, row controller
// and reconciler together for one reference field. A Widget is stateless; all
// per-form state lives in the state.Store of the submission cycle.
package inlineform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/controller"
	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/identity"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/reconcile"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/settings"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/storage"
	"github.com/goliatone/go-inlineform/pkg/widgets"
)

// Widget is the inline entity form of one reference field.
type Widget struct {
	field    model.FieldDefinition
	settings model.Settings
	variant  model.Variant
	name     string

	storage     storage.Storage
	access      storage.AccessChecker
	entityForms form.EntityFormBuilder
	labeler     settings.Labeler
	description string
	validator   model.RecordValidator
	transform   reconcile.Transform
	registry    *widgets.Registry
	logger      *zap.Logger

	assembler  *form.Assembler
	controller *controller.Controller
	reconciler *reconcile.Reconciler
}

// Option configures a Widget.
type Option func(*Widget)

// WithStorage sets the child record storage.
func WithStorage(s storage.Storage) Option {
	return func(w *Widget) {
		w.storage = s
	}
}

// WithAccess overrides the access checker. Defaults to the storage.
func WithAccess(checker storage.AccessChecker) Option {
	return func(w *Widget) {
		if checker != nil {
			w.access = checker
		}
	}
}

// WithEntityForms sets the builder of child record sub-forms.
func WithEntityForms(builder form.EntityFormBuilder) Option {
	return func(w *Widget) {
		if builder != nil {
			w.entityForms = builder
		}
	}
}

// WithLabeler sets the default label source for target types.
func WithLabeler(labeler settings.Labeler) Option {
	return func(w *Widget) {
		if labeler != nil {
			w.labeler = labeler
		}
	}
}

// WithDescription sets help markup shown above the rows.
func WithDescription(markup string) Option {
	return func(w *Widget) {
		w.description = markup
	}
}

// WithValidator sets the child record validator.
func WithValidator(fn model.RecordValidator) Option {
	return func(w *Widget) {
		w.validator = fn
	}
}

// WithTransform sets the per-row value transform applied on extraction.
func WithTransform(fn reconcile.Transform) Option {
	return func(w *Widget) {
		w.transform = fn
	}
}

// WithWidgetName selects a registered widget explicitly.
func WithWidgetName(name string) Option {
	return func(w *Widget) {
		w.name = strings.TrimSpace(name)
	}
}

// WithRegistry supplies the widget registry used to pick the variant.
func WithRegistry(reg *widgets.Registry) Option {
	return func(w *Widget) {
		if reg != nil {
			w.registry = reg
		}
	}
}

// WithLogger sets the logger shared by all collaborators.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New builds the widget of a reference field.
func New(field model.FieldDefinition, cfg model.Settings, options ...Option) *Widget {
	w := &Widget{
		field:    field,
		settings: settings.Normalize(cfg),
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(w)
	}
	if w.registry == nil {
		w.registry = widgets.NewRegistry()
	}
	if w.access == nil {
		if w.storage != nil {
			w.access = w.storage
		} else {
			w.access = storage.AllowAll
		}
	}
	w.variant = w.registry.ResolveVariant(field, w.name)

	assemblerOpts := []form.Option{
		form.WithAccess(w.access),
		form.WithLogger(w.logger),
	}
	if w.entityForms != nil {
		assemblerOpts = append(assemblerOpts, form.WithEntityForms(w.entityForms))
	}
	if w.labeler != nil {
		assemblerOpts = append(assemblerOpts, form.WithLabeler(w.labeler))
	}
	if w.description != "" {
		assemblerOpts = append(assemblerOpts, form.WithDescription(w.description))
	}
	w.assembler = form.NewAssembler(assemblerOpts...)

	w.controller = controller.New(
		controller.WithStorage(w.storage),
		controller.WithAccess(w.access),
		controller.WithValidator(w.validator),
		controller.WithLogger(w.logger),
	)
	w.reconciler = reconcile.New(
		reconcile.WithStorage(w.storage),
		reconcile.WithTransform(w.transform),
		reconcile.WithValidator(w.validator),
		reconcile.WithLogger(w.logger),
	)
	return w
}

// Field returns the field definition.
func (w *Widget) Field() model.FieldDefinition {
	return w.field
}

// Settings returns the normalised settings.
func (w *Widget) Settings() model.Settings {
	return w.settings
}

// Variant returns the UI variant picked by the registry.
func (w *Widget) Variant() model.Variant {
	return w.variant
}

// InstanceID returns the id of the widget placed under fieldParents.
func (w *Widget) InstanceID(fieldParents []string) string {
	return identity.ComputeID(identity.Parents(fieldParents, w.field.Name))
}

// Prepare registers the instance in store on first render of the cycle,
// loads the existing references once and opens the add form when it is the
// only way to fill the field.
func (w *Widget) Prepare(ctx context.Context, store *state.Store, fieldParents []string, existing []*model.Record) string {
	path := identity.Parents(fieldParents, w.field.Name)
	id := identity.ComputeID(path)
	if !store.Init(id, w.settings, w.field, path, w.variant) {
		return id
	}
	store.LoadInitialRows(id, existing)

	inst, _ := store.Instance(id)
	bundle, ok := form.ShouldAutoOpenAdd(inst)
	if !ok {
		return id
	}
	draft := &model.Record{Type: w.field.TargetType, Bundle: bundle}
	if !w.access.CheckAccess(ctx, draft, model.OperationCreate) {
		return id
	}
	if store.SetWidgetForm(id, model.FormModeAdd, bundle) {
		store.SetAddDraft(id, draft)
		w.logger.Debug("add form opened automatically", zap.String("instance", id), zap.String("bundle", bundle))
	}
	return id
}

// Build assembles the render tree of instance id.
func (w *Widget) Build(ctx context.Context, store *state.Store, id string) form.Tree {
	return w.assembler.Assemble(ctx, store, id)
}

// Render assembles and renders instance id. Errors from a failed action or
// submission are routed to their rows.
func (w *Widget) Render(ctx context.Context, store *state.Store, id string, renderer render.Renderer, opts render.RenderOptions, cause error) ([]byte, error) {
	if renderer == nil {
		return nil, fmt.Errorf("inlineform: renderer is required")
	}
	tree := w.Build(ctx, store, id)
	if cause != nil {
		opts = opts.WithErrors(render.MapRowErrors(tree, cause))
	}
	opts.HiddenFields = render.MergeHiddenFields(opts.HiddenFields, render.InstanceField(id))
	return renderer.Render(ctx, tree, opts)
}

// Handle dispatches an action.
func (w *Widget) Handle(ctx context.Context, store *state.Store, action controller.Action, sub controller.Submission) (controller.Result, error) {
	return w.controller.Dispatch(ctx, store, action, sub)
}

// HandleValues decodes the triggering element name and the posted values,
// applies posted weights and dispatches the action.
func (w *Widget) HandleValues(ctx context.Context, store *state.Store, trigger string, values url.Values) (controller.Result, error) {
	action, err := controller.ParseAction(trigger)
	if err != nil {
		return controller.Result{}, err
	}
	for key, weight := range form.DecodeWeights(action.InstanceID, values) {
		store.SetWeight(action.InstanceID, key, weight)
	}
	return w.Handle(ctx, store, action, form.DecodeSubmission(action, values))
}

// Extract reconciles instance id into the final field value list.
func (w *Widget) Extract(ctx context.Context, store *state.Store, id string, posted reconcile.Posted) (reconcile.Result, error) {
	return w.reconciler.Reconcile(ctx, store, id, posted)
}

// ExtractValues is Extract with the weights and the values of sub-forms left
// open decoded from posted values.
func (w *Widget) ExtractValues(ctx context.Context, store *state.Store, id string, values url.Values) (reconcile.Result, error) {
	rows, add := form.DecodeOpenForms(id, values)
	return w.Extract(ctx, store, id, reconcile.Posted{
		Weights: form.DecodeWeights(id, values),
		Rows:    rows,
		Add:     add,
	})
}

// DeleteParent removes the referenced records when the parent is deleted and
// the field is configured to cascade.
func (w *Widget) DeleteParent(ctx context.Context, values []model.FieldValue) error {
	return reconcile.DeleteReferences(ctx, w.storage, w.settings, values)
}

// Widgets indexes widgets by field name so a request carrying only an
// instance id can find its widget.
type Widgets struct {
	mu      sync.RWMutex
	byField map[string]*Widget
}

// NewWidgets constructs an index.
func NewWidgets(ws ...*Widget) *Widgets {
	set := &Widgets{byField: make(map[string]*Widget)}
	for _, w := range ws {
		set.Add(w)
	}
	return set
}

// Add registers w under its field name.
func (s *Widgets) Add(w *Widget) {
	if s == nil || w == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byField[w.field.Name] = w
}

// Get returns the widget of a field.
func (s *Widgets) Get(field string) (*Widget, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byField[field]
	return w, ok
}

// ForInstance returns the widget owning instance id in store.
func (s *Widgets) ForInstance(store *state.Store, id string) (*Widget, bool) {
	inst, ok := store.Instance(id)
	if !ok {
		return nil, false
	}
	return s.Get(inst.Field.Name)
}
