// Package migration applies versioned SQL schema files to a SQLite database.
//
// Migration files are named {version}_{description}.sql and are read from an
// fs.FS, usually an embedded directory. Applied versions are tracked in the
// schema_migrations table together with the file checksum, so a file that was
// edited after being applied is reported instead of silently skipped.
package migration
