package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// Memory is a map-backed Storage. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*model.Record
	access  AccessChecker
	saveErr func(rec *model.Record) error
	delErr  func(id string) error
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithAccess sets the access policy. The default allows everything.
func WithAccess(checker AccessChecker) MemoryOption {
	return func(m *Memory) {
		if checker != nil {
			m.access = checker
		}
	}
}

// WithSaveHook lets callers inject save failures.
func WithSaveHook(fn func(rec *model.Record) error) MemoryOption {
	return func(m *Memory) {
		m.saveErr = fn
	}
}

// WithDeleteHook lets callers inject delete failures.
func WithDeleteHook(fn func(id string) error) MemoryOption {
	return func(m *Memory) {
		m.delErr = fn
	}
}

// NewMemory constructs a store seeded with records.
func NewMemory(records []*model.Record, options ...MemoryOption) *Memory {
	m := &Memory{
		records: make(map[string]*model.Record, len(records)),
		access:  AllowAll,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	for _, rec := range records {
		if rec == nil || !rec.Saved() {
			continue
		}
		m.records[rec.ID] = rec.Clone()
	}
	return m
}

// Save implements Storage.
func (m *Memory) Save(_ context.Context, rec *model.Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("storage: record is required")
	}
	if m.saveErr != nil {
		if err := m.saveErr(rec); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !rec.Saved() {
		rec.ID = uuid.NewString()
	}
	m.records[rec.ID] = rec.Clone()
	return rec.ID, nil
}

// Delete implements Storage.
func (m *Memory) Delete(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	if m.delErr != nil {
		if err := m.delErr(id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("storage: delete %s: %w", id, ErrNotFound)
	}
	delete(m.records, id)
	return nil
}

// Exists implements Storage.
func (m *Memory) Exists(_ context.Context, id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[strings.TrimSpace(id)]
	return ok
}

// Load implements Storage.
func (m *Memory) Load(_ context.Context, id string) (*model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("storage: load %s: %w", id, ErrNotFound)
	}
	return rec.Clone(), nil
}

// CheckAccess implements AccessChecker.
func (m *Memory) CheckAccess(ctx context.Context, rec *model.Record, op model.Operation) bool {
	return m.access.CheckAccess(ctx, rec, op)
}

// IDs lists stored ids in sorted order.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
