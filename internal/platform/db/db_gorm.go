// Package db opens the relational store and applies the schema.
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"microblog/internal/feature/account/domain/entity"
	graphadapters "microblog/internal/feature/graph/adapters"
	postadapters "microblog/internal/feature/posts/adapters"
)

const (
	// connectTimeout bounds how long OpenDB keeps retrying at startup.
	connectTimeout = 60 * time.Second
	// retryInterval is the pause between connection attempts.
	retryInterval = 3 * time.Second
)

// Opener opens a gorm connection for a DSN. It is swapped out in tests.
type Opener func(dsn string) (*gorm.DB, error)

// IsPostgres reports whether dsn addresses a PostgreSQL server.
// Anything else is treated as a SQLite file path or URI.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// Dialector picks the gorm driver for dsn.
func Dialector(dsn string) gorm.Dialector {
	if IsPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// GormConfig returns the gorm settings shared by the server and the tests.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// DefaultOpener opens dsn with the matching driver.
func DefaultOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(Dialector(dsn), GormConfig())
}

// ConnectWithRetry keeps calling open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err)
		time.Sleep(min(retryInterval, time.Until(deadline)+time.Millisecond))
	}
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.User{},
		&graphadapters.FollowModel{},
		&postadapters.PostModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// OpenDB connects to dsn and, when runMigrations is set, migrates the schema.
func OpenDB(dsn string, runMigrations bool) (*gorm.DB, error) {
	db, err := ConnectWithRetry(dsn, connectTimeout, DefaultOpener)
	if err != nil {
		return nil, err
	}
	if runMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}
