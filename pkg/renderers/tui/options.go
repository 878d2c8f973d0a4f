package tui

import "go.uber.org/zap"

// TableFormat selects the gotabulate layout.
type TableFormat string

const (
	TableFormatGrid   TableFormat = "grid"
	TableFormatSimple TableFormat = "simple"
	TableFormatPlain  TableFormat = "plain"
)

// Theme captures optional message prefixes.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithTableFormat selects the table layout.
func WithTableFormat(format TableFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.format = format
		}
	}
}

// WithMaxCellSize caps the width of wrapped cells.
func WithMaxCellSize(size int) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.maxCell = size
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) SessionOption {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithRenderer overrides the table renderer used by the session.
func WithRenderer(renderer *Renderer) SessionOption {
	return func(s *Session) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithAssembler overrides the tree assembler used by the session.
func WithAssembler(assembler Assembler) SessionOption {
	return func(s *Session) {
		if assembler != nil {
			s.assembler = assembler
		}
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
