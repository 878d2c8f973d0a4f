package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/goliatone/go-inlineform/pkg/controller"
	"github.com/goliatone/go-inlineform/pkg/form"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/state"
)

// doneLabel is the extra menu entry that ends a session.
const doneLabel = "Done"

// Dispatcher applies an action to the store.
type Dispatcher interface {
	Dispatch(ctx context.Context, store *state.Store, action controller.Action, sub controller.Submission) (controller.Result, error)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, store *state.Store, action controller.Action, sub controller.Submission) (controller.Result, error)

// Dispatch implements Dispatcher.
func (fn DispatchFunc) Dispatch(ctx context.Context, store *state.Store, action controller.Action, sub controller.Submission) (controller.Result, error) {
	return fn(ctx, store, action, sub)
}

// Assembler projects an instance into a tree.
type Assembler interface {
	Assemble(ctx context.Context, store *state.Store, id string) form.Tree
}

// AssembleFunc adapts a function to Assembler.
type AssembleFunc func(ctx context.Context, store *state.Store, id string) form.Tree

// Assemble implements Assembler.
func (fn AssembleFunc) Assemble(ctx context.Context, store *state.Store, id string) form.Tree {
	return fn(ctx, store, id)
}

// Session edits one widget instance in the terminal: it prints the table,
// offers the available actions, prompts for the inputs an action needs and
// dispatches it until the user picks Done.
type Session struct {
	store      *state.Store
	instanceID string
	dispatcher Dispatcher
	assembler  Assembler
	renderer   *Renderer
	driver     PromptDriver
	logger     *zap.Logger
}

// NewSession builds a session for instance id.
func NewSession(store *state.Store, id string, dispatcher Dispatcher, options ...SessionOption) *Session {
	s := &Session{
		store:      store,
		instanceID: id,
		dispatcher: dispatcher,
		assembler:  form.NewAssembler(),
		renderer:   New(),
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s
}

// Run loops until the user is done, the context ends or input is aborted.
func (s *Session) Run(ctx context.Context) error {
	if s.store == nil || s.dispatcher == nil {
		return errors.New("tui: session requires a store and a dispatcher")
	}
	var opts render.RenderOptions
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tree := s.assembler.Assemble(ctx, s.store, s.instanceID)
		if tree.Empty() {
			return ErrStale
		}

		table, err := s.renderer.Render(ctx, tree, opts)
		if err != nil {
			return err
		}
		if err := s.driver.Info(ctx, string(table)); err != nil {
			return err
		}

		actions := tree.Actions()
		menu := make([]string, 0, len(actions)+1)
		for _, action := range actions {
			menu = append(menu, actionLabel(tree, action))
		}
		menu = append(menu, doneLabel)

		choice, err := s.driver.Select(ctx, SelectConfig{Message: "Action", Options: menu})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(actions) {
			return nil
		}
		action := actions[choice]

		values, err := s.collect(ctx, tree, action)
		if err != nil {
			return err
		}
		result, err := s.dispatcher.Dispatch(ctx, s.store, action, form.DecodeSubmission(action, values))
		opts = render.RenderOptions{}
		switch {
		case err != nil:
			s.logger.Debug("tui: action failed", zap.String("action", action.Name()), zap.Error(err))
			mapping := render.MapRowErrors(tree, err)
			opts = opts.WithErrors(mapping)
		case result.Stale:
			return ErrStale
		case result.Denied:
			opts.FormErrors = []string{"You are not allowed to do that."}
		}
	}
}

// collect prompts for every input in the scope of action.
func (s *Session) collect(ctx context.Context, tree form.Tree, action controller.Action) (url.Values, error) {
	values := url.Values{}
	var inputs []form.Node
	tree.Walk(func(node form.Node) bool {
		switch node.Kind {
		case form.KindInput, form.KindSelect, form.KindCheckbox:
			if ref, ok := form.ParseInputName(node.Name); ok && form.InScope(action, ref) {
				inputs = append(inputs, node)
			}
		}
		return true
	})

	for _, node := range inputs {
		switch node.Kind {
		case form.KindCheckbox:
			ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: node.Label})
			if err != nil {
				return nil, err
			}
			if ok {
				values.Set(node.Name, "1")
			}
		case form.KindSelect:
			options := make([]string, 0, len(node.Choices))
			selected := 0
			for i, choice := range node.Choices {
				options = append(options, choice.Label)
				if choice.Value == node.Value {
					selected = i
				}
			}
			idx, err := s.driver.Select(ctx, SelectConfig{Message: node.Label, Options: options, DefaultIndex: selected})
			if err != nil {
				return nil, err
			}
			if idx >= 0 && idx < len(node.Choices) {
				values.Set(node.Name, node.Choices[idx].Value)
			}
		default:
			value, err := s.driver.Input(ctx, InputConfig{Message: node.Label, Default: node.Value})
			if err != nil {
				return nil, err
			}
			values.Set(node.Name, value)
		}
	}
	return values, nil
}

// actionLabel names a row action after its row so the menu stays readable.
func actionLabel(tree form.Tree, action controller.Action) string {
	label := action.Name()
	tree.Walk(func(node form.Node) bool {
		if node.Kind == form.KindButton && node.Action != nil && *node.Action == action {
			label = node.Label
			return false
		}
		return true
	})
	if action.RowKey < 0 {
		return label
	}
	for _, row := range tree.Rows() {
		if row.RowKey() == action.RowKey {
			return fmt.Sprintf("%s (row %s)", label, row.Attr(form.AttrDelta))
		}
	}
	return label
}
