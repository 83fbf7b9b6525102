package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed indicates that a migration execution failed.
	ErrMigrationFailed = errors.New("migration execution failed")
	// ErrInvalidMigrationFile indicates that a migration file name or content is malformed.
	ErrInvalidMigrationFile = errors.New("invalid migration file")
	// ErrDuplicateVersion indicates that two files share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch indicates that an applied file changed afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError wraps a failure with the version and file it concerns.
type MigrationError struct {
	Version   string
	File      string
	Operation string
	Err       error
}

func (e *MigrationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.File, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.File, e.Operation, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

func newMigrationError(m Migration, operation string, err error) *MigrationError {
	return &MigrationError{Version: m.Version, File: m.File, Operation: operation, Err: err}
}
