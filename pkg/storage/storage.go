// Package storage defines the persistence collaborator consumed by the inline
// form core, plus an in-memory implementation suitable for tests and demos.
package storage

import (
	"context"
	"errors"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// ErrNotFound is returned when a record id is unknown to the backend.
var ErrNotFound = errors.New("storage: record not found")

// AccessChecker answers whether an operation on a record is permitted.
type AccessChecker interface {
	CheckAccess(ctx context.Context, rec *model.Record, op model.Operation) bool
}

// Storage persists child records.
type Storage interface {
	AccessChecker
	// Save persists rec and returns its id. New records receive an id that is
	// also written back to rec.ID.
	Save(ctx context.Context, rec *model.Record) (string, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) bool
	Load(ctx context.Context, id string) (*model.Record, error)
}

// AccessFunc adapts a function to AccessChecker.
type AccessFunc func(ctx context.Context, rec *model.Record, op model.Operation) bool

// CheckAccess implements AccessChecker.
func (fn AccessFunc) CheckAccess(ctx context.Context, rec *model.Record, op model.Operation) bool {
	if fn == nil {
		return true
	}
	return fn(ctx, rec, op)
}

// AllowAll grants every operation.
var AllowAll = AccessFunc(func(context.Context, *model.Record, model.Operation) bool { return true })

// DenyOperations returns a checker refusing the listed operations.
func DenyOperations(ops ...model.Operation) AccessFunc {
	denied := make(map[model.Operation]struct{}, len(ops))
	for _, op := range ops {
		denied[op] = struct{}{}
	}
	return func(_ context.Context, _ *model.Record, op model.Operation) bool {
		_, blocked := denied[op]
		return !blocked
	}
}
