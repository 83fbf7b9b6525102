// Package scheduler implements the weekly schedule assignment engine: the
// per-facility time blocks configured for one coordinator, the overlap rules
// enforced on every insertion, and the derived weekly calendar.
package scheduler

import (
	"fmt"
	"slices"
	"sort"
)

// Entry is one booked interval for a facility on a weekday.
type Entry struct {
	ID    int64    `json:"id"`
	Day   WeekDay  `json:"day"`
	Start TimeSlot `json:"start"`
	End   TimeSlot `json:"end"`
}

// Interval returns the clock range covered by the entry.
func (e Entry) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// FacilitySchedule holds the entries configured for one facility.
type FacilitySchedule struct {
	FacilityID int64   `json:"facility_id"`
	Entries    []Entry `json:"entries"`
}

// State describes the progress of an assignment form.
type State string

const (
	StateEmpty               State = "empty"
	StateFacilitiesSelected  State = "facilities_selected"
	StateSchedulesConfigured State = "schedules_configured"
	StateSubmitted           State = "submitted"
)

// Assignment is the in-progress configuration of one coordinator: the
// selected facilities and their weekly schedules. Across all selected
// facilities no two entries of the same day overlap.
//
// An Assignment is not safe for concurrent use; callers own it for the
// duration of one form session.
type Assignment struct {
	grid          Grid
	coordinatorID int64
	selected      []int64
	schedules     map[int64]*FacilitySchedule
	focused       int64
	lastEntryID   int64
	submitted     bool
}

// NewAssignment returns an empty assignment validating clock values against grid.
// A zero grid falls back to DefaultGrid.
func NewAssignment(grid Grid) *Assignment {
	if grid.IsZero() {
		grid = DefaultGrid()
	}
	return &Assignment{
		grid:      grid,
		schedules: make(map[int64]*FacilitySchedule),
	}
}

// Grid returns the clock grid used by the assignment.
func (a *Assignment) Grid() Grid {
	return a.grid
}

// CoordinatorID returns the selected coordinator, or zero when none is set.
func (a *Assignment) CoordinatorID() int64 {
	return a.coordinatorID
}

// SelectCoordinator sets the coordinator being configured.
func (a *Assignment) SelectCoordinator(id int64) {
	a.coordinatorID = id
}

// ClearCoordinator unsets the coordinator.
func (a *Assignment) ClearCoordinator() {
	a.coordinatorID = 0
}

// SelectedFacilities returns the selected facility ids in selection order.
func (a *Assignment) SelectedFacilities() []int64 {
	return slices.Clone(a.selected)
}

// IsSelected reports whether facilityID is part of the selection.
func (a *Assignment) IsSelected(facilityID int64) bool {
	return slices.Contains(a.selected, facilityID)
}

// FocusedFacility returns the facility currently being edited, or zero.
func (a *Assignment) FocusedFacility() int64 {
	return a.focused
}

// SelectFacility adds facilityID to the selection, creating an empty schedule.
// Selecting an already selected facility is a no-op.
func (a *Assignment) SelectFacility(facilityID int64) {
	if a.IsSelected(facilityID) {
		return
	}
	a.selected = append(a.selected, facilityID)
	if _, ok := a.schedules[facilityID]; !ok {
		a.schedules[facilityID] = &FacilitySchedule{FacilityID: facilityID}
	}
	a.refocus()
}

// DeselectFacility removes facilityID from the selection and discards its entries.
func (a *Assignment) DeselectFacility(facilityID int64) {
	idx := slices.Index(a.selected, facilityID)
	if idx < 0 {
		return
	}
	a.selected = slices.Delete(a.selected, idx, idx+1)
	delete(a.schedules, facilityID)
	a.refocus()
}

// ToggleFacility flips the membership of facilityID and reports whether it is
// selected afterwards.
func (a *Assignment) ToggleFacility(facilityID int64) bool {
	if a.IsSelected(facilityID) {
		a.DeselectFacility(facilityID)
		return false
	}
	a.SelectFacility(facilityID)
	return true
}

// Focus moves the edit focus to a selected facility.
func (a *Assignment) Focus(facilityID int64) error {
	if !a.IsSelected(facilityID) {
		return fmt.Errorf("%w: %d", ErrFacilityNotSelected, facilityID)
	}
	a.focused = facilityID
	return nil
}

func (a *Assignment) refocus() {
	switch {
	case len(a.selected) == 0:
		a.focused = 0
	case a.focused == 0 || !a.IsSelected(a.focused):
		a.focused = a.selected[0]
	}
}

// AddEntry validates and records a new interval for facilityID on day.
//
// Rules are checked in order and the first failure is returned as an
// *EntryError: start before end, no overlap within the facility, no overlap
// with any other selected facility. Nothing is recorded on failure.
func (a *Assignment) AddEntry(facilityID int64, day WeekDay, start, end TimeSlot) (Entry, error) {
	candidate := Interval{Start: start, End: end}
	reject := func(cause error) *EntryError {
		return &EntryError{Err: cause, FacilityID: facilityID, Day: day, Interval: candidate}
	}

	schedule, ok := a.schedules[facilityID]
	if !ok || !a.IsSelected(facilityID) {
		return Entry{}, reject(ErrFacilityNotSelected)
	}
	if !day.Valid() {
		return Entry{}, reject(ErrUnknownDay)
	}
	if !a.grid.Contains(start) || !a.grid.Contains(end) {
		return Entry{}, reject(ErrInvalidTimeSlot)
	}

	if !candidate.Valid() {
		return Entry{}, reject(ErrInvalidInterval)
	}

	if conflict, found := findConflict(schedule.Entries, day, candidate); found {
		rejection := reject(ErrOverlapSameFacility)
		rejection.ConflictFacilityID = facilityID
		rejection.ConflictEntryID = conflict.ID
		return Entry{}, rejection
	}

	for _, otherID := range a.selected {
		if otherID == facilityID {
			continue
		}
		other := a.schedules[otherID]
		if other == nil {
			continue
		}
		if conflict, found := findConflict(other.Entries, day, candidate); found {
			rejection := reject(ErrOverlapOtherFacility)
			rejection.ConflictFacilityID = otherID
			rejection.ConflictEntryID = conflict.ID
			return Entry{}, rejection
		}
	}

	a.lastEntryID++
	entry := Entry{ID: a.lastEntryID, Day: day, Start: start, End: end}
	schedule.Entries = append(schedule.Entries, entry)
	return entry, nil
}

// RemoveEntry deletes entryID from the facility schedule. Removing an unknown
// entry is a no-op; the result reports whether anything was deleted.
func (a *Assignment) RemoveEntry(facilityID, entryID int64) bool {
	schedule, ok := a.schedules[facilityID]
	if !ok {
		return false
	}
	idx := slices.IndexFunc(schedule.Entries, func(e Entry) bool { return e.ID == entryID })
	if idx < 0 {
		return false
	}
	schedule.Entries = slices.Delete(schedule.Entries, idx, idx+1)
	return true
}

// Entries returns a copy of the entries of facilityID in insertion order.
func (a *Assignment) Entries(facilityID int64) []Entry {
	schedule, ok := a.schedules[facilityID]
	if !ok {
		return nil
	}
	return slices.Clone(schedule.Entries)
}

// EntriesOn returns the entries of facilityID on day ordered by start time.
func (a *Assignment) EntriesOn(facilityID int64, day WeekDay) []Entry {
	schedule, ok := a.schedules[facilityID]
	if !ok {
		return nil
	}
	out := make([]Entry, 0, len(schedule.Entries))
	for _, entry := range schedule.Entries {
		if entry.Day == day {
			out = append(out, entry)
		}
	}
	SortEntries(out)
	return out
}

// SortEntries orders entries by day, start time and id.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Day.Index(), entries[j].Day.Index()
		if di != dj {
			return di < dj
		}
		if entries[i].Start != entries[j].Start {
			return entries[i].Start < entries[j].Start
		}
		return entries[i].ID < entries[j].ID
	})
}

// Submission is the snapshot handed to the assignment sink.
type Submission struct {
	CoordinatorID int64
	FacilityIDs   []int64
	Schedules     map[int64][]Entry
}

// Submission validates completeness and returns a deep copy of the current
// assignment. The assignment itself is left untouched.
func (a *Assignment) Submission() (Submission, error) {
	if a.coordinatorID == 0 {
		return Submission{}, ErrMissingCoordinator
	}
	if len(a.selected) == 0 {
		return Submission{}, ErrNoFacilitiesSelected
	}

	var missing []int64
	for _, id := range a.selected {
		if schedule, ok := a.schedules[id]; !ok || len(schedule.Entries) == 0 {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return Submission{}, &MissingScheduleError{FacilityIDs: missing}
	}

	schedules := make(map[int64][]Entry, len(a.selected))
	for _, id := range a.selected {
		schedules[id] = slices.Clone(a.schedules[id].Entries)
	}
	return Submission{
		CoordinatorID: a.coordinatorID,
		FacilityIDs:   slices.Clone(a.selected),
		Schedules:     schedules,
	}, nil
}

// MarkSubmitted records that the assignment was accepted by the sink.
func (a *Assignment) MarkSubmitted() {
	a.submitted = true
}

// Submitted reports whether MarkSubmitted was called.
func (a *Assignment) Submitted() bool {
	return a.submitted
}

// State derives the form state from the current selection and schedules.
func (a *Assignment) State() State {
	if a.submitted {
		return StateSubmitted
	}
	if len(a.selected) == 0 {
		return StateEmpty
	}
	for _, id := range a.selected {
		if schedule := a.schedules[id]; schedule == nil || len(schedule.Entries) == 0 {
			return StateFacilitiesSelected
		}
	}
	return StateSchedulesConfigured
}

// Snapshot is the serialisable form of an Assignment.
type Snapshot struct {
	CoordinatorID int64              `json:"coordinator_id,omitempty"`
	Schedules     []FacilitySchedule `json:"schedules"`
	Focused       int64              `json:"focused,omitempty"`
	LastEntryID   int64              `json:"last_entry_id"`
	Submitted     bool               `json:"submitted,omitempty"`
}

// Snapshot returns a deep copy of the assignment with schedules in selection order.
func (a *Assignment) Snapshot() Snapshot {
	schedules := make([]FacilitySchedule, 0, len(a.selected))
	for _, id := range a.selected {
		schedule := FacilitySchedule{FacilityID: id}
		if current := a.schedules[id]; current != nil {
			schedule.Entries = slices.Clone(current.Entries)
		}
		schedules = append(schedules, schedule)
	}
	return Snapshot{
		CoordinatorID: a.coordinatorID,
		Schedules:     schedules,
		Focused:       a.focused,
		LastEntryID:   a.lastEntryID,
		Submitted:     a.submitted,
	}
}

// RestoreAssignment rebuilds an Assignment from a snapshot. Entries are taken
// as-is; the snapshot is expected to come from Snapshot.
func RestoreAssignment(grid Grid, snapshot Snapshot) *Assignment {
	a := NewAssignment(grid)
	a.coordinatorID = snapshot.CoordinatorID
	a.lastEntryID = snapshot.LastEntryID
	a.submitted = snapshot.Submitted
	for _, schedule := range snapshot.Schedules {
		if a.IsSelected(schedule.FacilityID) {
			continue
		}
		a.selected = append(a.selected, schedule.FacilityID)
		a.schedules[schedule.FacilityID] = &FacilitySchedule{
			FacilityID: schedule.FacilityID,
			Entries:    slices.Clone(schedule.Entries),
		}
		for _, entry := range schedule.Entries {
			if entry.ID > a.lastEntryID {
				a.lastEntryID = entry.ID
			}
		}
	}
	a.focused = snapshot.Focused
	a.refocus()
	return a
}
