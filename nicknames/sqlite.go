package nicknames

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// overrideRecord is one stored override map, keyed the way localStorage
// keys its blobs.
type overrideRecord struct {
	Key  string `gorm:"primaryKey;size:128"`
	Data string
}

func (overrideRecord) TableName() string { return "nickname_overrides" }

// SQLiteStore is a LocalStore persisted to a SQLite file, for hosts that
// keep overrides across restarts.
type SQLiteStore struct {
	db *gorm.DB
}

// Compile-time check that SQLiteStore implements LocalStore.
var _ LocalStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates the override table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&overrideRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate override table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the map stored under key; a missing key yields an empty map.
func (s *SQLiteStore) Load(ctx context.Context, key string) (map[string]string, error) {
	var rec overrideRecord
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}

	overrides := make(map[string]string)
	if err := json.Unmarshal([]byte(rec.Data), &overrides); err != nil {
		return nil, fmt.Errorf("corrupt override record for %q: %w", key, err)
	}
	return overrides, nil
}

// Save replaces the map stored under key.
func (s *SQLiteStore) Save(ctx context.Context, key string, overrides map[string]string) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}
	rec := overrideRecord{Key: key, Data: string(data)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write overrides: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
