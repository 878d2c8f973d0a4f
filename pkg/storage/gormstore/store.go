// Package gormstore implements storage.Storage on top of gorm. The sqlite
// driver is used by Open; any gorm dialector works with New.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/storage"
)

// recordModel is the table layout for child records.
type recordModel struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Type      string         `gorm:"index;size:128"`
	Bundle    string         `gorm:"index;size:128"`
	Label     string         `gorm:"size:512"`
	Fields    map[string]any `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (recordModel) TableName() string {
	return "inline_records"
}

// Store persists records with gorm.
type Store struct {
	db     *gorm.DB
	access storage.AccessChecker
	logger *zap.Logger
}

var _ storage.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithAccess sets the access policy. The default allows everything.
func WithAccess(checker storage.AccessChecker) Option {
	return func(s *Store) {
		if checker != nil {
			s.access = checker
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to a sqlite database at dsn and migrates the schema.
func Open(dsn string, options ...Option) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open %s: %w", dsn, err)
	}
	return New(db, options...)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("gormstore: db is required")
	}
	if err := db.AutoMigrate(&recordModel{}); err != nil {
		return nil, fmt.Errorf("gormstore: migrate: %w", err)
	}
	s := &Store{
		db:     db,
		access: storage.AllowAll,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Save implements storage.Storage.
func (s *Store) Save(ctx context.Context, rec *model.Record) (string, error) {
	if rec == nil {
		return "", errors.New("gormstore: record is required")
	}
	row := toModel(rec)
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return "", fmt.Errorf("gormstore: save %s: %w", row.ID, err)
	}
	rec.ID = row.ID
	s.logger.Debug("record saved", zap.String("id", row.ID), zap.String("bundle", row.Bundle))
	return row.ID, nil
}

// Delete implements storage.Storage.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	result := s.db.WithContext(ctx).Delete(&recordModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("gormstore: delete %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("gormstore: delete %s: %w", id, storage.ErrNotFound)
	}
	s.logger.Debug("record deleted", zap.String("id", id))
	return nil
}

// Exists implements storage.Storage.
func (s *Store) Exists(ctx context.Context, id string) bool {
	var count int64
	if err := s.db.WithContext(ctx).Model(&recordModel{}).Where("id = ?", strings.TrimSpace(id)).Count(&count).Error; err != nil {
		s.logger.Warn("record lookup failed", zap.String("id", id), zap.Error(err))
		return false
	}
	return count > 0
}

// Load implements storage.Storage.
func (s *Store) Load(ctx context.Context, id string) (*model.Record, error) {
	var row recordModel
	err := s.db.WithContext(ctx).First(&row, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gormstore: load %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gormstore: load %s: %w", id, err)
	}
	return fromModel(row), nil
}

// CheckAccess implements storage.AccessChecker.
func (s *Store) CheckAccess(ctx context.Context, rec *model.Record, op model.Operation) bool {
	return s.access.CheckAccess(ctx, rec, op)
}

func toModel(rec *model.Record) recordModel {
	return recordModel{
		ID:     strings.TrimSpace(rec.ID),
		Type:   rec.Type,
		Bundle: rec.Bundle,
		Label:  rec.Label,
		Fields: rec.Clone().Fields,
	}
}

func fromModel(row recordModel) *model.Record {
	return &model.Record{
		ID:     row.ID,
		Type:   row.Type,
		Bundle: row.Bundle,
		Label:  row.Label,
		Fields: row.Fields,
	}
}
