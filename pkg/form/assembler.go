package form

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/controller"
	"github.com/goliatone/go-inlineform/pkg/identity"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/settings"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/storage"
)

// MinWeightDelta is the smallest range offered by row weight selects.
const MinWeightDelta = 10

// Assembler builds render trees.
type Assembler struct {
	access   storage.AccessChecker
	entities EntityFormBuilder
	labeler  settings.Labeler
	logger   *zap.Logger
	help     string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithAccess sets the checker deciding which row controls are offered.
func WithAccess(checker storage.AccessChecker) Option {
	return func(a *Assembler) {
		if checker != nil {
			a.access = checker
		}
	}
}

// WithEntityForms sets the builder of child record sub-forms.
func WithEntityForms(builder EntityFormBuilder) Option {
	return func(a *Assembler) {
		if builder != nil {
			a.entities = builder
		}
	}
}

// WithLabeler sets the source of entity type labels.
func WithLabeler(labeler settings.Labeler) Option {
	return func(a *Assembler) {
		if labeler != nil {
			a.labeler = labeler
		}
	}
}

// WithDescription adds field help markup above the rows. Renderers sanitise
// markup nodes.
func WithDescription(markup string) Option {
	return func(a *Assembler) {
		a.help = markup
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler constructs an Assembler.
func NewAssembler(options ...Option) *Assembler {
	a := &Assembler{
		access:   storage.AllowAll,
		entities: FieldsForm(),
		labeler:  settings.DefaultLabeler,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Labels returns the singular and plural labels of inst.
func (a *Assembler) Labels(inst model.Instance) model.Labels {
	return settings.ResolveLabels(inst.Settings, inst.Field.TargetType, a.labeler)
}

// ShouldAutoOpenAdd reports whether an add form must open on its own: the
// field is required, has no rows, allows exactly one bundle and no existing
// records, and the child type differs from the parent type.
func ShouldAutoOpenAdd(inst model.Instance) (string, bool) {
	if len(inst.Rows) > 0 || inst.WidgetForm.Open() {
		return "", false
	}
	if !inst.Field.Required || inst.Settings.AllowExisting {
		return "", false
	}
	bundles := inst.Field.Bundles()
	if len(bundles) != 1 {
		return "", false
	}
	if inst.Field.ParentType != "" && inst.Field.ParentType == inst.Field.TargetType {
		return "", false
	}
	return bundles[0], true
}

// Assemble projects the instance into a render tree. An unknown id yields an
// empty tree.
func (a *Assembler) Assemble(ctx context.Context, store *state.Store, id string) Tree {
	inst, ok := store.Instance(id)
	if !ok {
		a.logger.Debug("assemble: unknown instance", zap.String("instance", id))
		return Tree{}
	}
	labels := a.Labels(inst)
	rows := displayRows(inst)
	rowFormOpen := inst.OpenRowForm()

	root := Node{
		Kind:    KindFieldset,
		Name:    id,
		Label:   labels.Plural,
		Classes: []string{"ief-widget", "ief-" + string(inst.Variant)},
	}
	if len(rows) == 0 && inst.WidgetForm.Open() {
		root.Kind = KindContainer
	}
	if a.help != "" {
		root.Children = append(root.Children, Node{Kind: KindMarkup, Value: a.help, Classes: []string{"ief-description"}})
	}

	if len(rows) > 0 {
		table := Node{Kind: KindTable, Name: id + "[entities]", Classes: []string{"ief-entity-table"}}
		delta := max(MinWeightDelta, len(rows))
		for position, row := range rows {
			table.Children = append(table.Children, a.row(ctx, inst, row, position, delta, labels))
		}
		root.Children = append(root.Children, table)
	}

	if inst.Field.Cardinality > 1 || cardinalityReached(inst) {
		root.Children = append(root.Children, Node{
			Kind:    KindMessage,
			Name:    id + "[cardinality]",
			Label:   fmt.Sprintf("You have added %d out of %d allowed %s.", len(rows), inst.Field.Cardinality, labels.Plural),
			Classes: []string{"ief-cardinality"},
		})
	}

	switch inst.WidgetForm {
	case model.FormModeAdd:
		root.Children = append(root.Children, a.addForm(ctx, inst, labels))
	case model.FormModeAddExisting:
		root.Children = append(root.Children, a.existingForm(inst, labels))
	default:
		if !rowFormOpen && !cardinalityReached(inst) {
			root.Children = append(root.Children, a.addControls(inst, labels))
		}
	}

	return Tree{InstanceID: id, Wrapper: identity.WrapperID(id), Root: root}
}

// displayRows orders rows by weight in the multiple variant and keeps
// insertion order in the single variant.
func displayRows(inst model.Instance) []model.Row {
	rows := append([]model.Row(nil), inst.Rows...)
	if inst.Variant == model.VariantSingle {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Weight < rows[j].Weight
	})
	return rows
}

func cardinalityReached(inst model.Instance) bool {
	return !inst.Field.Unlimited() && len(inst.Rows) >= inst.Field.Cardinality
}

func (a *Assembler) row(ctx context.Context, inst model.Instance, row model.Row, position, delta int, labels model.Labels) Node {
	node := Node{
		Kind:    KindRow,
		Name:    fmt.Sprintf("%s[%d]", inst.ID, row.Key),
		Classes: []string{"ief-row", "ief-row-" + string(row.FormMode.Normalize())},
		Attrs: map[string]string{
			AttrRowKey: strconv.Itoa(row.Key),
			AttrDelta:  strconv.Itoa(position),
			AttrMode:   string(row.FormMode.Normalize()),
		},
	}
	if row.Record != nil {
		node.Attrs[AttrBundle] = row.Record.Bundle
	}

	switch row.FormMode.Normalize() {
	case model.FormModeEdit:
		node.Children = append(node.Children, a.editForm(ctx, inst, row, labels))
	case model.FormModeRemove:
		node.Children = append(node.Children, a.removeForm(ctx, inst, row, labels))
	default:
		node.Children = append(node.Children, summary(row, labels))
		if actions := a.rowActions(ctx, inst, row); len(actions.Children) > 0 {
			node.Children = append(node.Children, actions)
		}
	}

	if inst.Variant != model.VariantSingle {
		node.Children = append(node.Children, weightSelect(inst.ID, row, delta))
	}
	return node
}

func summary(row model.Row, labels model.Labels) Node {
	label := ""
	if row.Record != nil {
		label = row.Record.Label
		if label == "" && row.Record.Saved() {
			label = row.Record.ID
		}
	}
	if label == "" {
		label = "New " + labels.Singular
	}
	node := Node{Kind: KindSummary, Label: label, Classes: []string{"ief-summary"}}
	if row.Record != nil {
		node.Value = row.Record.Bundle
	}
	if row.NeedsSave {
		node.Classes = append(node.Classes, "ief-needs-save")
	}
	return node
}

func weightSelect(id string, row model.Row, delta int) Node {
	choices := make([]Choice, 0, 2*delta+1)
	for w := -delta; w <= delta; w++ {
		value := strconv.Itoa(w)
		choices = append(choices, Choice{Value: value, Label: value})
	}
	return Node{
		Kind:    KindWeight,
		Name:    WeightName(id, row.Key),
		Label:   "Weight",
		Value:   strconv.Itoa(row.Weight),
		Choices: choices,
		Classes: []string{"ief-weight"},
	}
}

func (a *Assembler) rowActions(ctx context.Context, inst model.Instance, row model.Row) Node {
	actions := Node{Kind: KindActions, Classes: []string{"ief-row-actions"}}
	// Row controls are inert while a conflicting form is open.
	if inst.WidgetForm.Open() {
		return actions
	}
	if inst.Variant == model.VariantSingle && inst.OpenRowForm() {
		return actions
	}
	saved := row.Record.Saved()
	if !saved || a.access.CheckAccess(ctx, row.Record, model.OperationUpdate) {
		actions.Children = append(actions.Children,
			button(controller.RowAction(controller.ActionOpenEdit, inst.ID, row.Key), "Edit", "ief-edit"))
	}
	if !saved || inst.Settings.AllowExisting || a.access.CheckAccess(ctx, row.Record, model.OperationDelete) {
		actions.Children = append(actions.Children,
			button(controller.RowAction(controller.ActionOpenRemove, inst.ID, row.Key), "Remove", "ief-remove"))
	}
	return actions
}

func (a *Assembler) editForm(ctx context.Context, inst model.Instance, row model.Row, labels model.Labels) Node {
	req := EntityFormRequest{
		InstanceID: inst.ID,
		RowKey:     row.Key,
		Mode:       model.FormModeEdit,
		Record:     row.Record,
		Values:     formValues(row.Record, row.Draft),
	}
	node := Node{
		Kind:     KindEntityForm,
		Name:     fmt.Sprintf("%s[%d][form]", inst.ID, row.Key),
		Label:    "Edit " + labels.Singular,
		Classes:  []string{"ief-form", "ief-form-edit"},
		Attrs:    map[string]string{AttrMode: string(model.FormModeEdit)},
		Children: a.entities.BuildEntityForm(ctx, req),
	}
	node.Children = append(node.Children, Node{
		Kind: KindActions,
		Children: []Node{
			button(controller.RowAction(controller.ActionSaveRow, inst.ID, row.Key), "Update "+labels.Singular, "ief-save"),
			button(controller.RowAction(controller.ActionCancelRow, inst.ID, row.Key), "Cancel", "ief-cancel"),
		},
	})
	return node
}

func (a *Assembler) removeForm(ctx context.Context, inst model.Instance, row model.Row, labels model.Labels) Node {
	label := labels.Singular
	if row.Record != nil && row.Record.Label != "" {
		label = row.Record.Label
	}
	node := Node{
		Kind:    KindEntityForm,
		Name:    fmt.Sprintf("%s[%d][form]", inst.ID, row.Key),
		Label:   "Remove " + labels.Singular,
		Classes: []string{"ief-form", "ief-form-remove"},
		Attrs:   map[string]string{AttrMode: string(model.FormModeRemove)},
		Children: []Node{{
			Kind:  KindMessage,
			Label: fmt.Sprintf("Are you sure you want to remove %s?", label),
		}},
	}
	if row.Record.Saved() && inst.Settings.AllowExisting && a.access.CheckAccess(ctx, row.Record, model.OperationDelete) {
		node.Children = append(node.Children, Node{
			Kind:  KindCheckbox,
			Name:  DeleteName(inst.ID, row.Key),
			Label: fmt.Sprintf("Delete this %s from the system.", labels.Singular),
		})
	}
	node.Children = append(node.Children, Node{
		Kind: KindActions,
		Children: []Node{
			button(controller.RowAction(controller.ActionConfirmRemove, inst.ID, row.Key), "Remove", "ief-confirm-remove"),
			button(controller.RowAction(controller.ActionCancelRow, inst.ID, row.Key), "Cancel", "ief-cancel"),
		},
	})
	return node
}

// mandatoryAdd reports whether the open add form is the only way to satisfy
// the field, in which case it cannot be cancelled.
func mandatoryAdd(inst model.Instance) bool {
	return inst.Field.Required &&
		!inst.Settings.AllowExisting &&
		len(inst.Rows) == 0 &&
		len(inst.Field.Bundles()) == 1
}

func (a *Assembler) addForm(ctx context.Context, inst model.Instance, labels model.Labels) Node {
	draft := inst.AddDraft
	if draft == nil {
		draft = &model.Record{Type: inst.Field.TargetType, Bundle: inst.AddBundle}
	}
	req := EntityFormRequest{
		InstanceID: inst.ID,
		RowKey:     -1,
		Mode:       model.FormModeAdd,
		Record:     draft,
		Values:     formValues(draft, nil),
	}
	node := Node{
		Kind:     KindEntityForm,
		Name:     inst.ID + "[add][form]",
		Label:    "Add new " + labels.Singular,
		Classes:  []string{"ief-form", "ief-form-add"},
		Attrs:    map[string]string{AttrMode: string(model.FormModeAdd), AttrBundle: inst.AddBundle},
		Children: a.entities.BuildEntityForm(ctx, req),
	}
	buttons := []Node{
		button(controller.WidgetAction(controller.ActionCloseAdd, inst.ID), "Create "+labels.Singular, "ief-create"),
	}
	if !mandatoryAdd(inst) {
		buttons = append(buttons,
			button(controller.WidgetAction(controller.ActionCancelAdd, inst.ID), "Cancel", "ief-cancel"))
	}
	node.Children = append(node.Children, Node{Kind: KindActions, Children: buttons})
	return node
}

func (a *Assembler) existingForm(inst model.Instance, labels model.Labels) Node {
	return Node{
		Kind:    KindFieldset,
		Name:    inst.ID + "[existing][form]",
		Label:   "Add existing " + labels.Singular,
		Classes: []string{"ief-form", "ief-form-existing"},
		Attrs: map[string]string{
			AttrMode:  string(model.FormModeAddExisting),
			AttrMatch: string(inst.Settings.MatchOperator),
		},
		Children: []Node{
			{Kind: KindInput, Name: ExistingName(inst.ID), Label: labels.Singular},
			{
				Kind: KindActions,
				Children: []Node{
					button(controller.WidgetAction(controller.ActionAddExisting, inst.ID), "Add "+labels.Singular, "ief-add-existing"),
					button(controller.WidgetAction(controller.ActionCancelAdd, inst.ID), "Cancel", "ief-cancel"),
				},
			},
		},
	}
}

func (a *Assembler) addControls(inst model.Instance, labels model.Labels) Node {
	actions := Node{Kind: KindActions, Name: inst.ID + "[actions]", Classes: []string{"ief-widget-actions"}}
	if bundles := inst.Field.Bundles(); len(bundles) > 1 {
		choices := make([]Choice, 0, len(bundles))
		for _, bundle := range bundles {
			choices = append(choices, Choice{Value: bundle, Label: bundle})
		}
		actions.Children = append(actions.Children, Node{
			Kind:    KindSelect,
			Name:    BundleName(inst.ID),
			Label:   "Type",
			Value:   bundles[0],
			Choices: choices,
		})
	}
	actions.Children = append(actions.Children,
		button(controller.WidgetAction(controller.ActionOpenAdd, inst.ID), "Add new "+labels.Singular, "ief-add"))
	if inst.Settings.AllowExisting {
		actions.Children = append(actions.Children,
			button(controller.WidgetAction(controller.ActionOpenAddExisting, inst.ID), "Add existing "+labels.Singular, "ief-add-existing"))
	}
	return actions
}
