package storage

import (
	"context"

	"gorm.io/gorm"
)

// Store is the gorm-backed persistence for the catalog, feedback and users.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translate("ping", err)
	}
	return translate("ping", sqlDB.PingContext(ctx))
}

func (s *Store) with(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
