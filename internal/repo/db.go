// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// OpenOption adjusts how OpenSQLite configures the handle.
type OpenOption func(*openConfig)

type openConfig struct {
	tracing bool
	logMode logger.LogLevel
}

// WithTracing installs the GORM OpenTelemetry plugin so every query becomes
// a span under the request trace.
func WithTracing() OpenOption {
	return func(c *openConfig) { c.tracing = true }
}

// WithLogLevel sets the GORM logger level (default: Warn).
func WithLogLevel(l logger.LogLevel) OpenOption {
	return func(c *openConfig) { c.logMode = l }
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string, opts ...OpenOption) (*gorm.DB, error) {
	cfg := openConfig{logMode: logger.Warn}
	for _, o := range opts {
		o(&cfg)
	}

	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.logMode),
	})
	if err != nil {
		return nil, err
	}

	if cfg.tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates every table the service owns, including
// the key/value table behind the SQL usage store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Conversation{},
		&domain.Turn{},
		&domain.Feedback{},
		&domain.Idempotency{},
		&domain.KVEntry{},
	)
}
