// Package sqlite implements the persistence repositories on SQLite through
// database/sql and the modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/facility-coordinator/internal/persistence"
	"github.com/example/facility-coordinator/internal/persistence/sqlite/migration"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Storage bundles every SQLite repository behind one handle.
type Storage struct {
	*FacilityRepository
	*CoordinatorRepository
	*AssignmentRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	db, err := migration.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool := NewConnectionPool(db)
	return &Storage{
		FacilityRepository:    NewFacilityRepository(pool),
		CoordinatorRepository: NewCoordinatorRepository(pool),
		AssignmentRepository:  NewAssignmentRepository(pool),
		pool:                  pool,
		logger:                logger,
	}, nil
}

// Migrate applies the embedded schema files.
func (s *Storage) Migrate(ctx context.Context) error {
	migrations, err := migration.Scan(schemaFS, "schema")
	if err != nil {
		return fmt.Errorf("scan schema: %w", err)
	}
	applied, err := migration.NewRunner(s.pool.DB(), s.logger).Run(ctx, migrations)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "sqlite schema ready", "applied", applied, "known", len(migrations))
	return nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

var _ persistence.Store = (*Storage)(nil)
