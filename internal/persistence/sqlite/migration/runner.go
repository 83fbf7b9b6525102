package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Runner applies pending migrations and records them in schema_migrations.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner constructs a Runner. A nil logger discards output.
func NewRunner(db *sql.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{db: db, logger: logger.With("component", "migration"), now: time.Now}
}

// Applied returns the checksum of every applied version.
func (r *Runner) Applied(ctx context.Context) (map[string]string, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = checksum
	}
	return applied, rows.Err()
}

// Run applies, in order, every migration not yet recorded. Each migration runs
// in its own transaction together with its bookkeeping row.
func (r *Runner) Run(ctx context.Context, migrations []Migration) (int, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range migrations {
		if checksum, ok := applied[m.Version]; ok {
			if checksum != m.Checksum {
				return count, newMigrationError(m, "verify checksum", ErrChecksumMismatch)
			}
			continue
		}

		started := r.now()
		if err := r.apply(ctx, m, started); err != nil {
			r.logger.ErrorContext(ctx, "migration failed", "version", m.Version, "file", m.File, "error", err)
			return count, newMigrationError(m, "execute", errors.Join(ErrMigrationFailed, err))
		}
		count++
		r.logger.InfoContext(ctx, "migration applied",
			"version", m.Version,
			"description", m.Description,
			"duration_ms", r.now().Sub(started).Milliseconds(),
		)
	}
	return count, nil
}

func (r *Runner) apply(ctx context.Context, m Migration, started time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, checksum, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Checksum, started.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}
