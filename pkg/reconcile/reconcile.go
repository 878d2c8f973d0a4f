// Package reconcile turns the row state of a widget instance into the final
// ordered field value list, persisting and destroying child records on the
// way.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/storage"
)

// Transform adjusts the value emitted for a row. It runs after persistence
// and before transient keys are stripped.
type Transform func(ctx context.Context, inst model.Instance, row model.Row, value model.FieldValue) model.FieldValue

// Posted carries transport values relevant to reconciliation.
type Posted struct {
	// Weights maps row keys to posted weights. Weight is the only ordering
	// input; any positional order in the transport is ignored.
	Weights map[int]int
	// Rows holds values posted by edit forms still open, keyed by row key.
	Rows map[int]map[string]any
	// Add holds values posted by the add form if it is still open.
	Add map[string]any
}

// Result is the reconciled field value list.
type Result struct {
	Values []model.FieldValue
	// OriginalDeltas holds the insertion position of the row behind each
	// value, aligned with Values.
	OriginalDeltas []int
}

// Maps returns the wire representation of the values.
func (r Result) Maps() []map[string]any {
	out := make([]map[string]any, 0, len(r.Values))
	for _, value := range r.Values {
		out = append(out, value.Map())
	}
	return out
}

// Reconciler runs final submissions.
type Reconciler struct {
	storage   storage.Storage
	transform Transform
	validator model.RecordValidator
	logger    *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithStorage sets the storage collaborator.
func WithStorage(s storage.Storage) Option {
	return func(r *Reconciler) {
		r.storage = s
	}
}

// WithTransform sets the per-row value transform.
func WithTransform(fn Transform) Option {
	return func(r *Reconciler) {
		r.transform = fn
	}
}

// WithValidator validates records with pending saves.
func WithValidator(fn model.RecordValidator) Option {
	return func(r *Reconciler) {
		r.validator = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Reconciler.
func New(options ...Option) *Reconciler {
	r := &Reconciler{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Reconcile produces the final values for id. Validation runs before any
// record is written. The first storage failure aborts with a
// *model.PersistenceError naming the row; rows saved before it keep their
// new ids and are not saved again on retry.
func (r *Reconciler) Reconcile(ctx context.Context, store *state.Store, id string, posted Posted) (Result, error) {
	if !store.Has(id) {
		return Result{}, model.ErrStaleInstance
	}
	for key, weight := range posted.Weights {
		store.SetWeight(id, key, weight)
	}
	mergePosted(store, id, posted)
	if err := r.flushOpenForms(ctx, store, id); err != nil {
		return Result{}, err
	}
	store.Reindex(id)

	inst, _ := store.Instance(id)
	rows := orderRows(inst)

	if inst.Field.Required && len(rows) == 0 {
		return Result{}, &model.ValidationError{
			Delta:    -1,
			RowKey:   -1,
			Field:    inst.Field.Name,
			Messages: []string{"field is required"},
		}
	}
	if err := r.validate(ctx, rows); err != nil {
		return Result{}, err
	}
	if err := r.save(ctx, store, id, rows); err != nil {
		return Result{}, err
	}
	if err := r.destroyPending(ctx, store, id); err != nil {
		return Result{}, err
	}

	result := Result{}
	for _, row := range rows {
		if row.Record == nil {
			continue
		}
		value := model.FieldValue{
			TargetID: row.Record.ID,
			Extra: map[string]any{
				"_weight":         row.Weight,
				"_original_delta": row.OriginalDelta,
			},
		}
		if r.transform != nil {
			value = r.transform(ctx, inst, row, value)
		}
		value = value.Strip()
		if value.Empty() {
			continue
		}
		result.Values = append(result.Values, value)
		result.OriginalDeltas = append(result.OriginalDeltas, row.OriginalDelta)
	}

	r.logger.Debug("reconciled",
		zap.String("instance", id),
		zap.Int("rows", len(rows)),
		zap.Int("values", len(result.Values)))
	return result, nil
}

// flushOpenForms applies drafts of forms left open at final submission:
// closing an edit form without cancelling still schedules persistence, and a
// filled add form becomes a new row.
func (r *Reconciler) flushOpenForms(ctx context.Context, store *state.Store, id string) error {
	inst, _ := store.Instance(id)
	for _, row := range inst.Rows {
		if row.FormMode != model.FormModeEdit || len(row.Draft) == 0 || row.Record == nil {
			continue
		}
		candidate := row.Record.Clone()
		candidate.Apply(row.Draft)
		if err := r.validator.Validate(ctx, candidate, inst.RowIndex(row.Key), row.Key); err != nil {
			return err
		}
		row.Record.Apply(row.Draft)
		store.ClearDraft(id, row.Key)
		store.MarkNeedsSave(id, row.Key)
		store.SetFormMode(id, row.Key, model.FormModeNone)
	}

	if inst.WidgetForm != model.FormModeAdd || !filled(inst.AddDraft) {
		return nil
	}
	if err := r.validator.Validate(ctx, inst.AddDraft, -1, -1); err != nil {
		return err
	}
	draft := inst.AddDraft
	store.SetWidgetForm(id, model.FormModeNone, "")
	key := store.AddRow(id, draft)
	store.MarkNeedsSave(id, key)
	return nil
}

// mergePosted folds sub-form values posted with the parent form into the
// drafts of the forms that are still open. Values for closed forms are
// ignored.
func mergePosted(store *state.Store, id string, posted Posted) {
	inst, _ := store.Instance(id)
	for _, row := range inst.Rows {
		if row.FormMode != model.FormModeEdit {
			continue
		}
		if values := posted.Rows[row.Key]; len(values) > 0 {
			store.SetDraft(id, row.Key, values)
		}
	}
	if inst.WidgetForm != model.FormModeAdd || len(posted.Add) == 0 {
		return
	}
	draft := inst.AddDraft.Clone()
	if draft == nil {
		draft = &model.Record{Type: inst.Field.TargetType, Bundle: inst.AddBundle}
	}
	draft.Apply(posted.Add)
	store.SetAddDraft(id, draft)
}

func filled(rec *model.Record) bool {
	if rec == nil {
		return false
	}
	if strings.TrimSpace(rec.Label) != "" {
		return true
	}
	for _, value := range rec.Fields {
		if value != nil && value != "" {
			return true
		}
	}
	return false
}

// orderRows sorts by weight in the multiple variant. The sort is stable so
// equal weights keep insertion order.
func orderRows(inst model.Instance) []model.Row {
	rows := append([]model.Row(nil), inst.Rows...)
	if inst.Variant == model.VariantSingle {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Weight < rows[j].Weight
	})
	return rows
}

func (r *Reconciler) validate(ctx context.Context, rows []model.Row) error {
	var errs []error
	for _, row := range rows {
		if !row.NeedsSave {
			continue
		}
		if err := r.validator.Validate(ctx, row.Record, row.OriginalDelta, row.Key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reconciler) save(ctx context.Context, store *state.Store, id string, rows []model.Row) error {
	for _, row := range rows {
		if !row.NeedsSave || row.Record == nil {
			continue
		}
		op := model.OperationUpdate
		if !row.Record.Saved() {
			op = model.OperationCreate
		}
		if r.storage == nil {
			return &model.PersistenceError{
				Op:       op,
				RecordID: row.Record.ID,
				Delta:    row.OriginalDelta,
				RowKey:   row.Key,
				Err:      fmt.Errorf("reconcile: storage is not configured"),
			}
		}
		recordID, err := r.storage.Save(ctx, row.Record)
		if err != nil {
			r.logger.Warn("save failed",
				zap.String("instance", id),
				zap.Int("row", row.Key),
				zap.Int("delta", row.OriginalDelta),
				zap.Error(err))
			return &model.PersistenceError{
				Op:       op,
				RecordID: row.Record.ID,
				Delta:    row.OriginalDelta,
				RowKey:   row.Key,
				Err:      err,
			}
		}
		if recordID != "" {
			row.Record.ID = recordID
		}
		store.ClearNeedsSave(id, row.Key)
	}
	return nil
}

func (r *Reconciler) destroyPending(ctx context.Context, store *state.Store, id string) error {
	for _, entry := range store.PendingDeletions(id) {
		if r.storage == nil {
			return &model.PersistenceError{
				Op:       model.OperationDelete,
				RecordID: entry.RecordID,
				Delta:    entry.OriginalDelta,
				RowKey:   -1,
				Err:      fmt.Errorf("reconcile: storage is not configured"),
			}
		}
		err := r.storage.Delete(ctx, entry.RecordID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("delete failed",
				zap.String("instance", id),
				zap.String("record", entry.RecordID),
				zap.Error(err))
			return &model.PersistenceError{
				Op:       model.OperationDelete,
				RecordID: entry.RecordID,
				Delta:    entry.OriginalDelta,
				RowKey:   -1,
				Err:      err,
			}
		}
		store.ResolvePending(id, entry.RecordID)
	}
	return nil
}

// DeleteReferences destroys every referenced record when the parent record
// is deleted and the settings ask for it. Records already gone are skipped.
func DeleteReferences(ctx context.Context, st storage.Storage, settings model.Settings, values []model.FieldValue) error {
	if !settings.DeleteReferences || st == nil {
		return nil
	}
	var errs []error
	for idx, value := range values {
		id := strings.TrimSpace(value.TargetID)
		if id == "" {
			continue
		}
		if err := st.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, &model.PersistenceError{
				Op:       model.OperationDelete,
				RecordID: id,
				Delta:    idx,
				RowKey:   -1,
				Err:      err,
			})
		}
	}
	return errors.Join(errs...)
}
