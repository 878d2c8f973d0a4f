package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaleInstance signals that no state exists for a widget instance id,
	// usually because the submission cycle expired. Callers re-initialise.
	ErrStaleInstance = errors.New("inlineform: stale widget instance")
	// ErrAccessDenied signals a refused edit/remove. Action handlers swallow
	// it and leave state untouched.
	ErrAccessDenied = errors.New("inlineform: access denied")
	// ErrUnknownRow signals an action referencing a row key that is gone.
	ErrUnknownRow = errors.New("inlineform: unknown row")
)

// ValidationError reports a missing or invalid sub-form value. Delta is the
// row's display position before reordering; -1 addresses the widget.
type ValidationError struct {
	Delta    int
	RowKey   int
	Field    string
	Messages []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = "invalid value"
	}
	if e.Delta < 0 {
		return fmt.Sprintf("inlineform: validation: %s", msg)
	}
	if e.Field != "" {
		return fmt.Sprintf("inlineform: validation: row %d field %s: %s", e.Delta, e.Field, msg)
	}
	return fmt.Sprintf("inlineform: validation: row %d: %s", e.Delta, msg)
}

// PersistenceError wraps a storage failure with the offending row.
type PersistenceError struct {
	Op       Operation
	RecordID string
	Delta    int
	RowKey   int
	Err      error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	target := e.RecordID
	if target == "" {
		target = "<new>"
	}
	return fmt.Sprintf("inlineform: %s record %s (row %d): %v", e.Op, target, e.Delta, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
