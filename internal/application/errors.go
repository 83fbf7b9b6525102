package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/facility-coordinator/internal/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when the resource conflicts with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrAlreadySubmitted is returned when modifying or resubmitting a submitted assignment session.
	ErrAlreadySubmitted = errors.New("application: assignment already submitted")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// NewValidationError returns a ValidationError holding a single field issue.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// EntryRejection decorates a scheduler.EntryError with catalog names so the
// caller can explain which facility caused the conflict.
type EntryRejection struct {
	Cause                *scheduler.EntryError
	FacilityName         string
	ConflictFacilityName string
}

func (e *EntryRejection) Error() string {
	if e == nil || e.Cause == nil {
		return ""
	}
	if e.ConflictFacilityName != "" {
		return fmt.Sprintf("%s: %v (conflict with %s)", e.FacilityName, e.Cause, e.ConflictFacilityName)
	}
	return fmt.Sprintf("%s: %v", e.FacilityName, e.Cause)
}

func (e *EntryRejection) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// IncompleteScheduleError names the selected facilities that have no entries.
type IncompleteScheduleError struct {
	Cause         *scheduler.MissingScheduleError
	FacilityNames []string
}

func (e *IncompleteScheduleError) Error() string {
	return "facilities without schedule: " + strings.Join(e.FacilityNames, ", ")
}

func (e *IncompleteScheduleError) Unwrap() error {
	if e.Cause == nil {
		return scheduler.ErrFacilitiesMissingSchedule
	}
	return e.Cause
}
