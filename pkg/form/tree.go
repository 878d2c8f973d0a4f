// Package form projects the row state of a widget instance into a declarative
// render tree. Assembly never mutates the store and never fails: missing data
// yields an empty tree.
package form

import (
	"strconv"

	"github.com/goliatone/go-inlineform/pkg/controller"
)

// Kind identifies the role of a node in the render tree.
type Kind string

const (
	KindContainer  Kind = "container"
	KindFieldset   Kind = "fieldset"
	KindTable      Kind = "table"
	KindRow        Kind = "row"
	KindSummary    Kind = "summary"
	KindWeight     Kind = "weight"
	KindActions    Kind = "actions"
	KindButton     Kind = "button"
	KindCheckbox   Kind = "checkbox"
	KindSelect     Kind = "select"
	KindInput      Kind = "input"
	KindHidden     Kind = "hidden"
	KindMessage    Kind = "message"
	KindMarkup     Kind = "markup"
	KindEntityForm Kind = "entity_form"
)

// Attribute keys set by the assembler.
const (
	AttrRowKey = "data-row-key"
	AttrDelta  = "data-delta"
	AttrMode   = "data-form-mode"
	AttrBundle = "data-bundle"
	AttrMatch  = "data-match-operator"
)

// Choice is one option of a select node.
type Choice struct {
	Value string
	Label string
}

// Node is one element of the render tree.
type Node struct {
	Kind     Kind
	Name     string
	Label    string
	Value    string
	Classes  []string
	Attrs    map[string]string
	Choices  []Choice
	Action   *controller.Action
	Children []Node
}

// Attr returns an attribute value.
func (n Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// RowKey returns the row key of a row node, or -1.
func (n Node) RowKey() int {
	raw := n.Attr(AttrRowKey)
	if raw == "" {
		return -1
	}
	key, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return key
}

// Tree is the projection of one widget instance.
type Tree struct {
	InstanceID string
	Wrapper    string
	Root       Node
}

// Empty reports whether the tree carries no content.
func (t Tree) Empty() bool {
	return t.InstanceID == "" && t.Root.Kind == "" && len(t.Root.Children) == 0
}

// Walk visits every node depth first. Returning false from fn skips the
// node's children.
func (t Tree) Walk(fn func(node Node) bool) {
	if fn == nil || t.Empty() {
		return
	}
	walk(t.Root, fn)
}

func walk(node Node, fn func(Node) bool) {
	if !fn(node) {
		return
	}
	for _, child := range node.Children {
		walk(child, fn)
	}
}

// Find returns the first node with the given name.
func (t Tree) Find(name string) (Node, bool) {
	var (
		found Node
		ok    bool
	)
	t.Walk(func(node Node) bool {
		if ok {
			return false
		}
		if node.Name == name {
			found, ok = node, true
			return false
		}
		return true
	})
	return found, ok
}

// Actions lists the actions of every button in document order.
func (t Tree) Actions() []controller.Action {
	var out []controller.Action
	t.Walk(func(node Node) bool {
		if node.Kind == KindButton && node.Action != nil {
			out = append(out, *node.Action)
		}
		return true
	})
	return out
}

// HasAction reports whether a button for kind is present, optionally scoped
// to a row key (-1 matches widget-level buttons).
func (t Tree) HasAction(kind controller.ActionKind, key int) bool {
	for _, action := range t.Actions() {
		if action.Kind == kind && action.RowKey == key {
			return true
		}
	}
	return false
}

// Rows returns the row nodes in display order.
func (t Tree) Rows() []Node {
	var out []Node
	t.Walk(func(node Node) bool {
		if node.Kind == KindRow {
			out = append(out, node)
			return false
		}
		return true
	})
	return out
}

func button(action controller.Action, label string, classes ...string) Node {
	act := action
	return Node{
		Kind:    KindButton,
		Name:    action.Name(),
		Label:   label,
		Classes: classes,
		Action:  &act,
	}
}
