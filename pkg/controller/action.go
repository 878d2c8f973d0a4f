package controller

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates the row controller operations.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionOpenEdit
	ActionOpenRemove
	ActionConfirmRemove
	ActionCancelRow
	ActionSaveRow
	ActionOpenAdd
	ActionOpenAddExisting
	ActionCloseAdd
	ActionCancelAdd
	ActionAddExisting
)

var actionNames = map[ActionKind]string{
	ActionOpenEdit:        "open_edit",
	ActionOpenRemove:      "open_remove",
	ActionConfirmRemove:   "confirm_remove",
	ActionCancelRow:       "cancel_row",
	ActionSaveRow:         "save_row",
	ActionOpenAdd:         "open_add",
	ActionOpenAddExisting: "open_add_existing",
	ActionCloseAdd:        "close_add",
	ActionCancelAdd:       "cancel_add",
	ActionAddExisting:     "add_existing",
}

var actionKinds = func() map[string]ActionKind {
	out := make(map[string]ActionKind, len(actionNames))
	for kind, name := range actionNames {
		out[name] = kind
	}
	return out
}()

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// RowScoped reports whether the action addresses a single row.
func (k ActionKind) RowScoped() bool {
	switch k {
	case ActionOpenEdit, ActionOpenRemove, ActionConfirmRemove, ActionCancelRow, ActionSaveRow:
		return true
	default:
		return false
	}
}

const (
	namePrefix    = "ief"
	nameSeparator = ":"
)

// Action is one UI action targeting a widget instance.
type Action struct {
	Kind       ActionKind
	InstanceID string
	RowKey     int
}

// RowAction builds a row-scoped action.
func RowAction(kind ActionKind, instanceID string, key int) Action {
	return Action{Kind: kind, InstanceID: instanceID, RowKey: key}
}

// WidgetAction builds a widget-scoped action.
func WidgetAction(kind ActionKind, instanceID string) Action {
	return Action{Kind: kind, InstanceID: instanceID, RowKey: -1}
}

// Name encodes the action as the button name posted back by the browser.
func (a Action) Name() string {
	parts := []string{namePrefix, a.Kind.String(), a.InstanceID}
	if a.Kind.RowScoped() {
		parts = append(parts, strconv.Itoa(a.RowKey))
	}
	return strings.Join(parts, nameSeparator)
}

// ParseAction decodes a button name produced by Action.Name.
func ParseAction(name string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(name), nameSeparator)
	if len(parts) < 3 || parts[0] != namePrefix {
		return Action{}, fmt.Errorf("controller: malformed action name %q", name)
	}
	kind, ok := actionKinds[parts[1]]
	if !ok {
		return Action{}, fmt.Errorf("controller: unknown action %q", parts[1])
	}
	if parts[2] == "" {
		return Action{}, fmt.Errorf("controller: action %q has no instance id", name)
	}
	if !kind.RowScoped() {
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("controller: malformed action name %q", name)
		}
		return WidgetAction(kind, parts[2]), nil
	}
	if len(parts) != 4 {
		return Action{}, fmt.Errorf("controller: action %q requires a row key", name)
	}
	key, err := strconv.Atoi(parts[3])
	if err != nil || key < 0 {
		return Action{}, fmt.Errorf("controller: invalid row key in %q", name)
	}
	return RowAction(kind, parts[2], key), nil
}
