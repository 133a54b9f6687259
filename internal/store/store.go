// Package store persists client state — the auth session, the cached
// conversation, workouts, and received notifications — in a local sqlite
// database.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ajohnson23/runcoach/internal/models"
)

// Store wraps the GORM connection to the local database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the sqlite database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return New(db)
}

// New wraps an existing GORM connection and runs migrations. Used by tests
// with in-memory databases.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&models.Session{},
		&models.ChatMessage{},
		&models.Workout{},
		&models.Notification{},
		&models.Device{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection for packages that operate on it
// directly.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return sqlDB.Close()
}
