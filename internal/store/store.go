package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-booking-backend/internal/model"
)

// Store is the key-value persistence contract the inventory relies on.
// Load reports ok=false when the key has never been written; callers treat
// that the same as an empty collection.
type Store interface {
	Load(ctx context.Context, key string) (payload []byte, ok bool, err error)
	Save(ctx context.Context, key string, payload []byte) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store. The state_entries table must
// already be migrated (see db.Init).
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Load reads the payload stored under key.
func (s *gormStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	var entry model.StateEntry
	err := s.db.WithContext(ctx).Where("state_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return entry.Payload, true, nil
}

// Save upserts the payload under key.
func (s *gormStore) Save(ctx context.Context, key string, payload []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	entry := model.StateEntry{Key: key, Payload: payload, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}
