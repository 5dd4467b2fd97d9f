// Package storage persists personas, chat sessions and preferences in
// PostgreSQL through gorm.
package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// Store holds the DB pool and repositories.
type Store struct {
	db          *gorm.DB
	Personas    *PersonaRepo
	Sessions    *SessionRepo
	Preferences *PreferenceRepo
}

// NewStore opens the PostgreSQL pool and wires the repositories.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Personas:    NewPersonaRepo(db),
		Sessions:    NewSessionRepo(db),
		Preferences: NewPreferenceRepo(db),
	}
}

// Models lists every table the application owns, in creation order.
func Models() []any {
	return []any{
		&personaModel{},
		&chatSessionModel{},
		&chatMessageModel{},
		&preferenceModel{},
	}
}

// AutoMigrate creates or updates the application tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
