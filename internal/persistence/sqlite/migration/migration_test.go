package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *Runner {
	t.Helper()
	db, err := Open(context.Background(), InMemorySQLiteConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRunner(db, nil)
}

func TestScan(t *testing.T) {
	t.Run("orders by numeric version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"schema/010_add_index.sql":     {Data: []byte("CREATE INDEX idx ON things(name);")},
			"schema/002_create_things.sql": {Data: []byte("-- things\nCREATE TABLE things (name TEXT);")},
			"schema/README.md":             {Data: []byte("ignored")},
		}
		migrations, err := Scan(fsys, "schema")
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if len(migrations) != 2 || migrations[0].Version != "002" || migrations[1].Version != "010" {
			t.Fatalf("unexpected order: %+v", migrations)
		}
		if migrations[0].Description != "create things" {
			t.Fatalf("description = %q", migrations[0].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatalf("expected checksum")
		}
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		fsys := fstest.MapFS{"schema/create.sql": {Data: []byte("SELECT 1;")}}
		if _, err := Scan(fsys, "schema"); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"schema/001_a.sql":  {Data: []byte("SELECT 1;")},
			"schema/0001_b.sql": {Data: []byte("SELECT 1;")},
		}
		if _, err := Scan(fsys, "schema"); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects empty files", func(t *testing.T) {
		fsys := fstest.MapFS{"schema/001_empty.sql": {Data: []byte("-- nothing\n")}}
		if _, err := Scan(fsys, "schema"); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"schema/001_create_things.sql": {Data: []byte("CREATE TABLE things (name TEXT NOT NULL);\nINSERT INTO things (name) VALUES ('a');")},
		"schema/002_more_things.sql":   {Data: []byte("INSERT INTO things (name) VALUES ('b');")},
	}
	migrations, err := Scan(fsys, "schema")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	runner := openTestDB(t)
	applied, err := runner.Run(ctx, migrations)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		applied, err := runner.Run(ctx, migrations)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if applied != 0 {
			t.Fatalf("applied = %d, want 0", applied)
		}
		var count int
		if err := runner.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM things`).Scan(&count); err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 2 {
			t.Fatalf("rows = %d, want 2", count)
		}
	})

	t.Run("detects edited files", func(t *testing.T) {
		edited := append([]Migration(nil), migrations...)
		edited[1].Checksum = "changed"
		if _, err := runner.Run(ctx, edited); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})

	t.Run("rolls back failing migrations", func(t *testing.T) {
		broken := append([]Migration(nil), migrations...)
		broken = append(broken, Migration{
			Version:  "003",
			File:     "003_broken.sql",
			SQL:      "INSERT INTO things (name) VALUES ('c');\nINSERT INTO missing (x) VALUES (1);",
			Checksum: "x",
		})
		if _, err := runner.Run(ctx, broken); !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		var count int
		if err := runner.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM things`).Scan(&count); err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 2 {
			t.Fatalf("rows = %d after failed migration, want 2", count)
		}
		versions, err := runner.Applied(ctx)
		if err != nil {
			t.Fatalf("Applied: %v", err)
		}
		if _, ok := versions["003"]; ok {
			t.Fatalf("failed migration recorded as applied")
		}
	})
}

func TestSQLiteConfig_Validate(t *testing.T) {
	if err := (SQLiteConfig{}).Validate(); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	cfg := DefaultSQLiteConfig("/tmp/x.db")
	cfg.JournalMode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for journal mode")
	}
	if err := DefaultSQLiteConfig("/tmp/x.db").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
