package state

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// Store holds widget instance state for one form submission cycle. It is
// created when a form is first built, survives validation-failure rebuilds,
// and is discarded when the submission completes or is abandoned.
//
// A Store is owned by the single request handling its form; its operations
// perform no locking. Handlers that may see concurrent requests of one cycle
// take ownership with Acquire.
type Store struct {
	owner     sync.Mutex
	instances map[string]*model.Instance
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes state transition logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore constructs an empty store.
func NewStore(options ...Option) *Store {
	s := &Store{
		instances: make(map[string]*model.Instance),
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Acquire blocks until the caller owns the store and returns the release
// func.
func (s *Store) Acquire() func() {
	s.owner.Lock()
	return s.owner.Unlock
}

// Init registers an instance. It is a no-op returning false when the id is
// already known in this cycle; settings captured on first call are kept.
func (s *Store) Init(id string, settings model.Settings, field model.FieldDefinition, fieldPath []string, variant model.Variant) bool {
	if s == nil || id == "" {
		return false
	}
	if _, exists := s.instances[id]; exists {
		return false
	}
	if variant == "" {
		variant = model.VariantMultiple
	}
	s.instances[id] = &model.Instance{
		ID:         id,
		Settings:   settings,
		Field:      field,
		FieldPath:  append([]string(nil), fieldPath...),
		Variant:    variant,
		WidgetForm: model.FormModeNone,
	}
	s.logger.Debug("widget instance initialised",
		zap.String("instance", id),
		zap.String("field", field.Name),
		zap.String("variant", string(variant)))
	return true
}

// Has reports whether id is known.
func (s *Store) Has(id string) bool {
	return s.get(id) != nil
}

// IDs returns the known instance ids sorted.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Instance returns a copy of the instance. Rows and the pending set are
// copied; records remain shared.
func (s *Store) Instance(id string) (model.Instance, bool) {
	inst := s.get(id)
	if inst == nil {
		return model.Instance{}, false
	}
	out := *inst
	out.FieldPath = append([]string(nil), inst.FieldPath...)
	out.Rows = copyRows(inst.Rows)
	out.PendingDeletion = append([]model.Pending(nil), inst.PendingDeletion...)
	return out, true
}

// LoadInitialRows creates one row per existing record. Rows are keyed and
// weighted by their delta. It only runs once per instance.
func (s *Store) LoadInitialRows(id string, existing []*model.Record) {
	inst := s.get(id)
	if inst == nil || inst.RowsLoaded {
		return
	}
	inst.RowsLoaded = true
	for delta, rec := range existing {
		if rec == nil {
			continue
		}
		inst.Rows = append(inst.Rows, model.Row{
			Key:           delta,
			Record:        rec,
			Weight:        delta,
			FormMode:      model.FormModeNone,
			OriginalDelta: delta,
		})
	}
	if len(existing) > inst.NextKey {
		inst.NextKey = len(existing)
	}
}

// Rows returns copies of the rows in insertion order.
func (s *Store) Rows(id string) []model.Row {
	inst := s.get(id)
	if inst == nil {
		return nil
	}
	return copyRows(inst.Rows)
}

// Row returns a copy of a single row.
func (s *Store) Row(id string, key int) (model.Row, bool) {
	row := s.row(id, key)
	if row == nil {
		return model.Row{}, false
	}
	return copyRow(*row), true
}

// SetFormMode opens or closes a row sub-form. Conflicting opens are ignored:
// while the widget-level form is open, and in the single variant while
// another row has an open form. It reports whether the row ends in mode.
func (s *Store) SetFormMode(id string, key int, mode model.FormMode) bool {
	inst := s.get(id)
	if inst == nil {
		return false
	}
	mode = mode.Normalize()
	if !mode.RowLevel() {
		return false
	}
	idx := inst.RowIndex(key)
	if idx < 0 {
		return false
	}
	if mode.Open() {
		if inst.WidgetForm.Open() {
			s.logger.Debug("row form ignored: widget form open",
				zap.String("instance", id), zap.Int("row", key))
			return false
		}
		if inst.Variant == model.VariantSingle {
			for _, other := range inst.Rows {
				if other.Key != key && other.FormMode.Open() {
					s.logger.Debug("row form ignored: another row form open",
						zap.String("instance", id), zap.Int("row", key), zap.Int("open", other.Key))
					return false
				}
			}
		}
	}
	if !transition(s.logger, "row", rowTransitions, inst.Rows[idx].FormMode, mode) {
		return false
	}
	inst.Rows[idx].FormMode = mode
	return true
}

// SetWidgetForm opens or closes the widget-level add form. Only one widget
// form may be open at a time. Closing discards the add draft and bundle.
func (s *Store) SetWidgetForm(id string, mode model.FormMode, bundle string) bool {
	inst := s.get(id)
	if inst == nil {
		return false
	}
	mode = mode.Normalize()
	if !mode.WidgetLevel() {
		return false
	}
	if mode.Open() && inst.Variant == model.VariantSingle && inst.OpenRowForm() {
		return false
	}
	if !transition(s.logger, "widget", widgetTransitions, inst.WidgetForm, mode) {
		return false
	}
	inst.WidgetForm = mode
	if mode.Open() {
		if bundle != "" {
			inst.AddBundle = bundle
		}
		return true
	}
	inst.AddBundle = ""
	inst.AddDraft = nil
	return true
}

// AddRow appends a row for rec with a fresh key and a weight equal to the
// current row count. It returns the new key, or -1 for an unknown id.
func (s *Store) AddRow(id string, rec *model.Record) int {
	inst := s.get(id)
	if inst == nil {
		return -1
	}
	inst.RowsLoaded = true
	key := inst.NextKey
	inst.NextKey++
	inst.Rows = append(inst.Rows, model.Row{
		Key:           key,
		Record:        rec,
		Weight:        len(inst.Rows),
		FormMode:      model.FormModeNone,
		OriginalDelta: len(inst.Rows),
	})
	return key
}

// RemoveRow drops the row. When destroy is set and the record has a saved
// identity, the record is queued for deletion at final submission.
func (s *Store) RemoveRow(id string, key int, destroy bool) bool {
	inst := s.get(id)
	if inst == nil {
		return false
	}
	idx := inst.RowIndex(key)
	if idx < 0 {
		return false
	}
	row := inst.Rows[idx]
	inst.Rows = append(inst.Rows[:idx], inst.Rows[idx+1:]...)

	if destroy && row.Record.Saved() && !pending(inst, row.Record.ID) {
		inst.PendingDeletion = append(inst.PendingDeletion, model.Pending{
			RecordID:      row.Record.ID,
			OriginalDelta: row.OriginalDelta,
		})
	}
	s.logger.Debug("row removed",
		zap.String("instance", id),
		zap.Int("row", key),
		zap.Bool("destroy", destroy))
	return true
}

// MarkNeedsSave schedules persistence of the row's record.
func (s *Store) MarkNeedsSave(id string, key int) bool {
	return s.update(id, key, func(row *model.Row) { row.NeedsSave = true })
}

// ClearNeedsSave clears the persistence flag, typically after a save.
func (s *Store) ClearNeedsSave(id string, key int) bool {
	return s.update(id, key, func(row *model.Row) { row.NeedsSave = false })
}

// SetWeight assigns the ordering weight of a row.
func (s *Store) SetWeight(id string, key int, weight int) bool {
	return s.update(id, key, func(row *model.Row) { row.Weight = weight })
}

// SetDraft records values posted to the row's open edit form.
func (s *Store) SetDraft(id string, key int, values map[string]any) bool {
	return s.update(id, key, func(row *model.Row) {
		if len(values) == 0 {
			return
		}
		if row.Draft == nil {
			row.Draft = make(map[string]any, len(values))
		}
		for k, v := range values {
			row.Draft[k] = v
		}
	})
}

// ClearDraft discards row-local edits.
func (s *Store) ClearDraft(id string, key int) bool {
	return s.update(id, key, func(row *model.Row) { row.Draft = nil })
}

// SetAddDraft stores the partially built record of the open add form.
func (s *Store) SetAddDraft(id string, rec *model.Record) bool {
	inst := s.get(id)
	if inst == nil || !inst.WidgetForm.Open() {
		return false
	}
	inst.AddDraft = rec
	return true
}

// Reindex sets each row's OriginalDelta to its current insertion position.
func (s *Store) Reindex(id string) {
	inst := s.get(id)
	if inst == nil {
		return
	}
	for idx := range inst.Rows {
		inst.Rows[idx].OriginalDelta = idx
	}
}

// PendingDeletions returns the records queued for deletion.
func (s *Store) PendingDeletions(id string) []model.Pending {
	inst := s.get(id)
	if inst == nil {
		return nil
	}
	return append([]model.Pending(nil), inst.PendingDeletion...)
}

// ResolvePending removes recordID from the pending set once handled.
func (s *Store) ResolvePending(id string, recordID string) bool {
	inst := s.get(id)
	if inst == nil {
		return false
	}
	for idx, entry := range inst.PendingDeletion {
		if entry.RecordID == recordID {
			inst.PendingDeletion = append(inst.PendingDeletion[:idx], inst.PendingDeletion[idx+1:]...)
			return true
		}
	}
	return false
}

// Discard forgets the instance.
func (s *Store) Discard(id string) {
	if s == nil {
		return
	}
	delete(s.instances, id)
}

func (s *Store) get(id string) *model.Instance {
	if s == nil || s.instances == nil {
		return nil
	}
	return s.instances[id]
}

func (s *Store) row(id string, key int) *model.Row {
	inst := s.get(id)
	if inst == nil {
		return nil
	}
	idx := inst.RowIndex(key)
	if idx < 0 {
		return nil
	}
	return &inst.Rows[idx]
}

func (s *Store) update(id string, key int, fn func(*model.Row)) bool {
	row := s.row(id, key)
	if row == nil {
		return false
	}
	fn(row)
	return true
}

func pending(inst *model.Instance, recordID string) bool {
	for _, entry := range inst.PendingDeletion {
		if entry.RecordID == recordID {
			return true
		}
	}
	return false
}

func copyRows(rows []model.Row) []model.Row {
	if len(rows) == 0 {
		return nil
	}
	out := make([]model.Row, len(rows))
	for idx, row := range rows {
		out[idx] = copyRow(row)
	}
	return out
}

func copyRow(row model.Row) model.Row {
	if row.Draft != nil {
		draft := make(map[string]any, len(row.Draft))
		for k, v := range row.Draft {
			draft[k] = v
		}
		row.Draft = draft
	}
	return row
}
