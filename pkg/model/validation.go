package model

import (
	"context"
	"errors"
	"sort"
)

// RecordValidator checks a record built from a sub-form and returns messages
// keyed by field name. An empty result means the record is valid.
type RecordValidator func(ctx context.Context, rec *Record) map[string][]string

// RequireFields returns a validator that rejects records missing any of the
// named fields. "label" checks Record.Label.
func RequireFields(names ...string) RecordValidator {
	return func(_ context.Context, rec *Record) map[string][]string {
		out := make(map[string][]string)
		for _, name := range names {
			if name == "label" {
				if rec == nil || rec.Label == "" {
					out[name] = append(out[name], "field is required")
				}
				continue
			}
			if rec == nil || rec.Fields == nil {
				out[name] = append(out[name], "field is required")
				continue
			}
			value, ok := rec.Fields[name]
			if !ok || value == nil || value == "" {
				out[name] = append(out[name], "field is required")
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
}

// Validate runs fn over rec and converts the messages into joined
// ValidationErrors addressed at delta and key. A nil fn always passes.
func (fn RecordValidator) Validate(ctx context.Context, rec *Record, delta, key int) error {
	if fn == nil {
		return nil
	}
	messages := fn(ctx, rec)
	if len(messages) == 0 {
		return nil
	}
	fields := make([]string, 0, len(messages))
	for field := range messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	errs := make([]error, 0, len(fields))
	for _, field := range fields {
		if len(messages[field]) == 0 {
			continue
		}
		errs = append(errs, &ValidationError{
			Delta:    delta,
			RowKey:   key,
			Field:    field,
			Messages: append([]string(nil), messages[field]...),
		})
	}
	return errors.Join(errs...)
}
