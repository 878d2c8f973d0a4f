// Package controller applies discrete UI actions to the row state store. Every
// handler mutates the store and asks for a partial rebuild of the widget's
// wrapper region so other in-progress edits on the page survive.
package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/identity"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/storage"
)

// Submission carries the values posted alongside an action.
type Submission struct {
	// Values are the sub-form field values.
	Values map[string]any
	// Delete is the "delete from the system" checkbox of the remove form.
	Delete bool
	// Bundle is the bundle chosen for a new record.
	Bundle string
	// RecordID references an existing record for ActionAddExisting.
	RecordID string
}

// Result describes the outcome of a dispatched action.
type Result struct {
	Action  Action
	Applied bool
	// Rebuild requests a partial re-render of Wrapper.
	Rebuild bool
	Wrapper string
	// Denied is set when the action was refused for lack of access.
	Denied bool
	// Stale is set when the instance is unknown to the store; the caller
	// re-initialises the widget.
	Stale bool
}

type handler func(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, action Action, sub Submission) (bool, error)

var handlers = map[ActionKind]handler{
	ActionOpenEdit:        openEdit,
	ActionOpenRemove:      openRemove,
	ActionConfirmRemove:   confirmRemove,
	ActionCancelRow:       cancelRow,
	ActionSaveRow:         saveRow,
	ActionOpenAdd:         openAdd,
	ActionOpenAddExisting: openAddExisting,
	ActionCloseAdd:        closeAdd,
	ActionCancelAdd:       cancelAdd,
	ActionAddExisting:     addExisting,
}

// Controller dispatches actions.
type Controller struct {
	storage   storage.Storage
	access    storage.AccessChecker
	validator model.RecordValidator
	logger    *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithStorage sets the storage used for "add existing" lookups. It also
// becomes the access checker unless WithAccess is given.
func WithStorage(s storage.Storage) Option {
	return func(c *Controller) {
		c.storage = s
	}
}

// WithAccess overrides the access checker.
func WithAccess(checker storage.AccessChecker) Option {
	return func(c *Controller) {
		c.access = checker
	}
}

// WithValidator validates records submitted through add and edit forms.
func WithValidator(fn model.RecordValidator) Option {
	return func(c *Controller) {
		c.validator = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Controller.
func New(options ...Option) *Controller {
	c := &Controller{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.access == nil && c.storage != nil {
		c.access = c.storage
	}
	if c.access == nil {
		c.access = storage.AllowAll
	}
	return c
}

// Dispatch applies action to store. Access refusals are reported through
// Result.Denied and never returned as errors. Validation failures of a
// submitted sub-form are returned so the form can show them; the form stays
// open with the posted values kept.
func (c *Controller) Dispatch(ctx context.Context, store *state.Store, action Action, sub Submission) (Result, error) {
	result := Result{
		Action:  action,
		Rebuild: true,
		Wrapper: identity.WrapperID(action.InstanceID),
	}
	inst, ok := store.Instance(action.InstanceID)
	if !ok {
		c.logger.Debug("action on stale instance",
			zap.String("instance", action.InstanceID),
			zap.Stringer("action", action.Kind))
		result.Stale = true
		return result, nil
	}
	fn, ok := handlers[action.Kind]
	if !ok {
		return result, fmt.Errorf("controller: unsupported action %s", action.Kind)
	}

	applied, err := fn(ctx, c, store, inst, action, sub)
	if errors.Is(err, model.ErrAccessDenied) {
		c.logger.Debug("action refused",
			zap.String("instance", action.InstanceID),
			zap.Stringer("action", action.Kind),
			zap.Int("row", action.RowKey))
		result.Denied = true
		return result, nil
	}
	result.Applied = applied
	if err != nil {
		return result, err
	}
	c.logger.Debug("action dispatched",
		zap.String("instance", action.InstanceID),
		zap.Stringer("action", action.Kind),
		zap.Int("row", action.RowKey),
		zap.Bool("applied", applied))
	return result, nil
}

func (c *Controller) allowed(ctx context.Context, rec *model.Record, op model.Operation) bool {
	return c.access.CheckAccess(ctx, rec, op)
}

func findRow(inst model.Instance, key int) (model.Row, bool) {
	idx := inst.RowIndex(key)
	if idx < 0 {
		return model.Row{}, false
	}
	return inst.Rows[idx], true
}

func openEdit(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, action Action, _ Submission) (bool, error) {
	row, ok := findRow(inst, action.RowKey)
	if !ok {
		return false, nil
	}
	if row.Record.Saved() && !c.allowed(ctx, row.Record, model.OperationUpdate) {
		return false, model.ErrAccessDenied
	}
	return store.SetFormMode(inst.ID, row.Key, model.FormModeEdit), nil
}

func openRemove(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, action Action, _ Submission) (bool, error) {
	row, ok := findRow(inst, action.RowKey)
	if !ok {
		return false, nil
	}
	// With "add existing" enabled the default removal is an unlink, which
	// needs no delete access.
	if row.Record.Saved() && !inst.Settings.AllowExisting && !c.allowed(ctx, row.Record, model.OperationDelete) {
		return false, model.ErrAccessDenied
	}
	return store.SetFormMode(inst.ID, row.Key, model.FormModeRemove), nil
}

func confirmRemove(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, action Action, sub Submission) (bool, error) {
	row, ok := findRow(inst, action.RowKey)
	if !ok || row.FormMode != model.FormModeRemove {
		return false, nil
	}
	if !row.Record.Saved() || (inst.Settings.AllowExisting && !sub.Delete) {
		return store.RemoveRow(inst.ID, row.Key, false), nil
	}
	if !c.allowed(ctx, row.Record, model.OperationDelete) {
		return false, model.ErrAccessDenied
	}
	return store.RemoveRow(inst.ID, row.Key, true), nil
}

func cancelRow(_ context.Context, _ *Controller, store *state.Store, inst model.Instance, action Action, _ Submission) (bool, error) {
	if _, ok := findRow(inst, action.RowKey); !ok {
		return false, nil
	}
	store.ClearDraft(inst.ID, action.RowKey)
	return store.SetFormMode(inst.ID, action.RowKey, model.FormModeNone), nil
}

func saveRow(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, action Action, sub Submission) (bool, error) {
	row, ok := findRow(inst, action.RowKey)
	if !ok || row.FormMode != model.FormModeEdit {
		return false, nil
	}
	if row.Record.Saved() && !c.allowed(ctx, row.Record, model.OperationUpdate) {
		return false, model.ErrAccessDenied
	}
	store.SetDraft(inst.ID, row.Key, sub.Values)
	row, _ = store.Row(inst.ID, row.Key)

	candidate := row.Record.Clone()
	if candidate == nil {
		candidate = &model.Record{Type: inst.Field.TargetType}
	}
	candidate.Apply(row.Draft)
	if err := c.validator.Validate(ctx, candidate, row.OriginalDelta, row.Key); err != nil {
		return false, err
	}

	if row.Record == nil {
		return false, nil
	}
	row.Record.Apply(row.Draft)
	store.ClearDraft(inst.ID, row.Key)
	store.MarkNeedsSave(inst.ID, row.Key)
	return store.SetFormMode(inst.ID, row.Key, model.FormModeNone), nil
}

func cardinalityReached(inst model.Instance) bool {
	return !inst.Field.Unlimited() && len(inst.Rows) >= inst.Field.Cardinality
}

func openAdd(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, _ Action, sub Submission) (bool, error) {
	if cardinalityReached(inst) {
		return false, nil
	}
	bundles := inst.Field.Bundles()
	bundle := strings.TrimSpace(sub.Bundle)
	switch {
	case bundle == "" && len(bundles) == 1:
		bundle = bundles[0]
	case bundle == "" && len(bundles) == 0:
		bundle = inst.Field.TargetType
	case len(bundles) > 0 && !slices.Contains(bundles, bundle):
		return false, nil
	}
	draft := &model.Record{Type: inst.Field.TargetType, Bundle: bundle}
	if !c.allowed(ctx, draft, model.OperationCreate) {
		return false, model.ErrAccessDenied
	}
	if !store.SetWidgetForm(inst.ID, model.FormModeAdd, bundle) {
		return false, nil
	}
	store.SetAddDraft(inst.ID, draft)
	return true, nil
}

func openAddExisting(_ context.Context, _ *Controller, store *state.Store, inst model.Instance, _ Action, _ Submission) (bool, error) {
	if !inst.Settings.AllowExisting {
		return false, model.ErrAccessDenied
	}
	if cardinalityReached(inst) {
		return false, nil
	}
	return store.SetWidgetForm(inst.ID, model.FormModeAddExisting, ""), nil
}

func closeAdd(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, _ Action, sub Submission) (bool, error) {
	if inst.WidgetForm != model.FormModeAdd {
		return false, nil
	}
	draft := inst.AddDraft
	if draft == nil {
		draft = &model.Record{Type: inst.Field.TargetType, Bundle: inst.AddBundle}
	}
	draft.Apply(sub.Values)
	store.SetAddDraft(inst.ID, draft)

	if err := c.validator.Validate(ctx, draft, -1, -1); err != nil {
		return false, err
	}
	key := store.AddRow(inst.ID, draft)
	store.MarkNeedsSave(inst.ID, key)
	return store.SetWidgetForm(inst.ID, model.FormModeNone, ""), nil
}

func cancelAdd(_ context.Context, _ *Controller, store *state.Store, inst model.Instance, _ Action, _ Submission) (bool, error) {
	return store.SetWidgetForm(inst.ID, model.FormModeNone, ""), nil
}

func addExisting(ctx context.Context, c *Controller, store *state.Store, inst model.Instance, _ Action, sub Submission) (bool, error) {
	if inst.WidgetForm != model.FormModeAddExisting {
		return false, nil
	}
	if !inst.Settings.AllowExisting {
		return false, model.ErrAccessDenied
	}
	id := strings.TrimSpace(sub.RecordID)
	if id == "" || c.storage == nil || !c.storage.Exists(ctx, id) {
		return false, referenceError("no matching record found")
	}
	for _, row := range inst.Rows {
		if row.Record != nil && row.Record.ID == id {
			return false, referenceError("the record is already referenced")
		}
	}
	rec, err := c.storage.Load(ctx, id)
	if err != nil {
		return false, fmt.Errorf("controller: load %s: %w", id, err)
	}
	if bundles := inst.Field.Bundles(); len(bundles) > 0 && !slices.Contains(bundles, rec.Bundle) {
		return false, referenceError("the record type is not allowed")
	}
	if !c.allowed(ctx, rec, model.OperationView) {
		return false, model.ErrAccessDenied
	}
	store.AddRow(inst.ID, rec)
	return store.SetWidgetForm(inst.ID, model.FormModeNone, ""), nil
}

func referenceError(message string) error {
	return &model.ValidationError{Delta: -1, RowKey: -1, Field: "entity_id", Messages: []string{message}}
}
