package testfixtures

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/facility-coordinator/internal/persistence/sqlite"
	"github.com/example/facility-coordinator/internal/persistence/sqlite/migration"
)

// NewSQLiteStorage opens a migrated SQLite database in a temporary directory.
// The storage is closed when the test finishes.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "coordinator.db")
	ctx := context.Background()

	storage, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(path), slog.New(slog.DiscardHandler))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return storage
}
