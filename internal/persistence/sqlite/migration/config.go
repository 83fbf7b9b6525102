package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite connection settings.
type SQLiteConfig struct {
	// DSN is the database file path or ":memory:".
	DSN               string
	BusyTimeout       time.Duration
	EnableForeignKeys bool
	// JournalMode is applied with PRAGMA journal_mode (WAL, DELETE, MEMORY).
	JournalMode       string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
}

// DefaultSQLiteConfig returns settings suited to a file-backed database.
// Pragmas are per connection, so the pool holds one connection that never
// expires.
func DefaultSQLiteConfig(dsn string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               dsn,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		MaxOpenConns:      1,
		MaxIdleConns:      1,
	}
}

// InMemorySQLiteConfig returns settings for an in-memory database.
func InMemorySQLiteConfig() SQLiteConfig {
	cfg := DefaultSQLiteConfig(":memory:")
	cfg.JournalMode = "MEMORY"
	return cfg
}

// Validate reports configuration errors.
func (c SQLiteConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.DSN) == "" {
		problems = append(problems, "dsn is required")
	}
	if c.BusyTimeout < 0 {
		problems = append(problems, "busy timeout must not be negative")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		problems = append(problems, "connection limits must not be negative")
	}
	switch strings.ToUpper(c.JournalMode) {
	case "", "WAL", "DELETE", "TRUNCATE", "MEMORY", "PERSIST", "OFF":
	default:
		problems = append(problems, fmt.Sprintf("unsupported journal mode %q", c.JournalMode))
	}
	if len(problems) > 0 {
		return fmt.Errorf("sqlite config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Open connects to the database described by cfg and applies its pragmas.
func Open(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DSN != ":memory:" && !strings.HasPrefix(cfg.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())}
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA journal_mode = %s", cfg.JournalMode))
	}
	if cfg.EnableForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return db, nil
}
