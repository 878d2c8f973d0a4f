package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrStale is returned when the session's widget instance disappeared
	// from the store.
	ErrStale = errors.New("tui: widget instance is gone")
)
