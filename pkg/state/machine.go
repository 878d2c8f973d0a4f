package state

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/model"
)

const (
	eventOpenEdit        = "open_edit"
	eventOpenRemove      = "open_remove"
	eventOpenAdd         = "open_add"
	eventOpenAddExisting = "open_add_existing"
	eventClose           = "close"
)

var (
	rowTransitions = fsm.Events{
		{Name: eventOpenEdit, Src: []string{string(model.FormModeNone)}, Dst: string(model.FormModeEdit)},
		{Name: eventOpenRemove, Src: []string{string(model.FormModeNone)}, Dst: string(model.FormModeRemove)},
		{Name: eventClose, Src: []string{
			string(model.FormModeNone),
			string(model.FormModeEdit),
			string(model.FormModeRemove),
		}, Dst: string(model.FormModeNone)},
	}

	widgetTransitions = fsm.Events{
		{Name: eventOpenAdd, Src: []string{string(model.FormModeNone)}, Dst: string(model.FormModeAdd)},
		{Name: eventOpenAddExisting, Src: []string{string(model.FormModeNone)}, Dst: string(model.FormModeAddExisting)},
		{Name: eventClose, Src: []string{
			string(model.FormModeNone),
			string(model.FormModeAdd),
			string(model.FormModeAddExisting),
		}, Dst: string(model.FormModeNone)},
	}
)

func eventFor(target model.FormMode) string {
	switch target.Normalize() {
	case model.FormModeEdit:
		return eventOpenEdit
	case model.FormModeRemove:
		return eventOpenRemove
	case model.FormModeAdd:
		return eventOpenAdd
	case model.FormModeAddExisting:
		return eventOpenAddExisting
	default:
		return eventClose
	}
}

// transition runs current -> target through a machine built from events and
// reports whether target is the resulting mode. Re-entering the current mode
// counts as applied.
func transition(logger *zap.Logger, scope string, events fsm.Events, current, target model.FormMode) bool {
	current = current.Normalize()
	target = target.Normalize()
	if current == target {
		return true
	}

	machine := fsm.NewFSM(
		string(current),
		events,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("form mode transition",
					zap.String("scope", scope),
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst))
			},
		},
	)

	err := machine.Event(context.Background(), eventFor(target))
	if err == nil {
		return model.FormMode(machine.Current()) == target
	}

	logger.Debug("form mode transition refused",
		zap.String("scope", scope),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
		zap.Error(err))
	return false
}
