package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/facility-coordinator/internal/logging"
	"github.com/example/facility-coordinator/internal/scheduler"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContextOr(ctx, base)

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logOutcome reports the result of an operation. User-correctable failures
// are logged at info level; anything else is an error.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, success string, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, success, attrs...)
		return
	}
	args := append([]any{"error", err, "error_kind", ErrorKind(err)}, attrs...)
	if IsUserError(err) {
		logger.InfoContext(ctx, "request rejected", args...)
		return
	}
	logger.ErrorContext(ctx, "operation failed", args...)
}

// IsUserError reports whether err is an expected, user-correctable condition.
func IsUserError(err error) bool {
	switch ErrorKind(err) {
	case "", "unexpected":
		return false
	}
	return true
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, scheduler.ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, scheduler.ErrOverlapSameFacility):
		return "overlap_same_facility"
	case errors.Is(err, scheduler.ErrOverlapOtherFacility):
		return "overlap_other_facility"
	case errors.Is(err, scheduler.ErrFacilityNotSelected):
		return "facility_not_selected"
	case errors.Is(err, scheduler.ErrUnknownDay):
		return "unknown_day"
	case errors.Is(err, scheduler.ErrInvalidTimeSlot):
		return "invalid_time_slot"
	case errors.Is(err, scheduler.ErrMissingCoordinator):
		return "missing_coordinator"
	case errors.Is(err, scheduler.ErrNoFacilitiesSelected):
		return "no_facilities_selected"
	case errors.Is(err, scheduler.ErrFacilitiesMissingSchedule):
		return "facilities_missing_schedule"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
