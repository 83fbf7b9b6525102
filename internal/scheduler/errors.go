package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInterval is returned when an entry does not start strictly before it ends.
	ErrInvalidInterval = errors.New("scheduler: start must be before end")
	// ErrOverlapSameFacility is returned when an entry intersects another entry of the same facility and day.
	ErrOverlapSameFacility = errors.New("scheduler: overlaps an entry of the same facility")
	// ErrOverlapOtherFacility is returned when an entry intersects an entry of another selected facility on the same day.
	ErrOverlapOtherFacility = errors.New("scheduler: overlaps an entry of another facility")
	// ErrFacilityNotSelected is returned when operating on a facility outside the selection.
	ErrFacilityNotSelected = errors.New("scheduler: facility is not selected")
	// ErrUnknownDay is returned for day identifiers outside the weekly cycle.
	ErrUnknownDay = errors.New("scheduler: unknown day")
	// ErrInvalidTimeSlot is returned for clock values that cannot be parsed or fall outside the grid.
	ErrInvalidTimeSlot = errors.New("scheduler: invalid time slot")
	// ErrMissingCoordinator is returned when submitting without a coordinator.
	ErrMissingCoordinator = errors.New("scheduler: coordinator is required")
	// ErrNoFacilitiesSelected is returned when submitting an empty selection.
	ErrNoFacilitiesSelected = errors.New("scheduler: at least one facility is required")
	// ErrFacilitiesMissingSchedule is returned when a selected facility has no entries at submission.
	ErrFacilitiesMissingSchedule = errors.New("scheduler: facilities without schedule")
)

// EntryError describes a rejected AddEntry call with enough context to build
// a corrective message.
type EntryError struct {
	Err                error
	FacilityID         int64
	Day                WeekDay
	Interval           Interval
	ConflictFacilityID int64
	ConflictEntryID    int64
}

// Error implements the error interface.
func (e *EntryError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%v (facility %d, %s %s-%s)", e.Err, e.FacilityID, e.Day, e.Interval.Start, e.Interval.End)
	if e.ConflictEntryID != 0 {
		msg += fmt.Sprintf(" conflicts with entry %d of facility %d", e.ConflictEntryID, e.ConflictFacilityID)
	}
	return msg
}

// Unwrap exposes the sentinel cause.
func (e *EntryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MissingScheduleError lists the selected facilities that have no entries.
type MissingScheduleError struct {
	FacilityIDs []int64
}

// Error implements the error interface.
func (e *MissingScheduleError) Error() string {
	if e == nil {
		return ""
	}
	ids := make([]string, 0, len(e.FacilityIDs))
	for _, id := range e.FacilityIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return fmt.Sprintf("%v: %s", ErrFacilitiesMissingSchedule, strings.Join(ids, ", "))
}

// Unwrap exposes ErrFacilitiesMissingSchedule.
func (e *MissingScheduleError) Unwrap() error {
	return ErrFacilitiesMissingSchedule
}
