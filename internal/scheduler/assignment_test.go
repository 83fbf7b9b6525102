package scheduler

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func slot(t *testing.T, value string) TimeSlot {
	t.Helper()
	parsed, err := ParseTimeSlot(value)
	if err != nil {
		t.Fatalf("ParseTimeSlot(%q): %v", value, err)
	}
	return parsed
}

func mustAdd(t *testing.T, a *Assignment, facilityID int64, day WeekDay, start, end string) Entry {
	t.Helper()
	entry, err := a.AddEntry(facilityID, day, slot(t, start), slot(t, end))
	if err != nil {
		t.Fatalf("AddEntry(%d, %s, %s-%s): %v", facilityID, day, start, end, err)
	}
	return entry
}

func TestAssignment_AddEntry(t *testing.T) {
	t.Run("rejects start not before end for every grid point", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		slots := a.Grid().Slots()
		for _, start := range slots {
			for _, end := range slots {
				if start < end {
					continue
				}
				_, err := a.AddEntry(1, Monday, start, end)
				if !errors.Is(err, ErrInvalidInterval) {
					t.Fatalf("AddEntry(%s-%s) error = %v, want ErrInvalidInterval", start, end, err)
				}
			}
		}
		if got := a.Entries(1); len(got) != 0 {
			t.Fatalf("expected schedule unchanged, got %v", got)
		}
	})

	t.Run("overlap scenario across facilities", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectCoordinator(7)
		a.SelectFacility(1)
		a.SelectFacility(2)
		first := mustAdd(t, a, 1, Monday, "09:00", "11:00")

		_, err := a.AddEntry(1, Monday, slot(t, "10:00"), slot(t, "12:00"))
		if !errors.Is(err, ErrOverlapSameFacility) {
			t.Fatalf("expected ErrOverlapSameFacility, got %v", err)
		}
		var entryErr *EntryError
		if !errors.As(err, &entryErr) {
			t.Fatalf("expected *EntryError, got %T", err)
		}
		if entryErr.ConflictEntryID != first.ID || entryErr.ConflictFacilityID != 1 {
			t.Fatalf("unexpected conflict context: %+v", entryErr)
		}

		mustAdd(t, a, 1, Monday, "11:00", "12:00")

		_, err = a.AddEntry(2, Monday, slot(t, "09:30"), slot(t, "10:30"))
		if !errors.Is(err, ErrOverlapOtherFacility) {
			t.Fatalf("expected ErrOverlapOtherFacility, got %v", err)
		}
		if !errors.As(err, &entryErr) || entryErr.ConflictFacilityID != 1 {
			t.Fatalf("expected conflict with facility 1, got %+v", entryErr)
		}
		if entryErr.Day != Monday || entryErr.Interval.Start != slot(t, "09:30") {
			t.Fatalf("expected offending range in error, got %+v", entryErr)
		}

		mustAdd(t, a, 2, Tuesday, "09:00", "11:00")

		if got := len(a.Entries(1)); got != 2 {
			t.Fatalf("facility 1 entries = %d, want 2", got)
		}
		if got := len(a.Entries(2)); got != 1 {
			t.Fatalf("facility 2 entries = %d, want 1", got)
		}
	})

	t.Run("same facility rule is checked before other facilities", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		a.SelectFacility(2)
		mustAdd(t, a, 1, Friday, "08:00", "10:00")
		mustAdd(t, a, 2, Friday, "10:00", "12:00")

		_, err := a.AddEntry(1, Friday, slot(t, "09:00"), slot(t, "11:00"))
		if !errors.Is(err, ErrOverlapSameFacility) {
			t.Fatalf("expected ErrOverlapSameFacility, got %v", err)
		}
	})

	t.Run("requires a selected facility", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		_, err := a.AddEntry(3, Monday, slot(t, "08:00"), slot(t, "09:00"))
		if !errors.Is(err, ErrFacilityNotSelected) {
			t.Fatalf("expected ErrFacilityNotSelected, got %v", err)
		}
	})

	t.Run("rejects unknown day", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		_, err := a.AddEntry(1, WeekDay("funday"), slot(t, "08:00"), slot(t, "09:00"))
		if !errors.Is(err, ErrUnknownDay) {
			t.Fatalf("expected ErrUnknownDay, got %v", err)
		}
	})

	t.Run("rejects times outside the grid window", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		_, err := a.AddEntry(1, Monday, slot(t, "07:00"), slot(t, "09:00"))
		if !errors.Is(err, ErrInvalidTimeSlot) {
			t.Fatalf("expected ErrInvalidTimeSlot, got %v", err)
		}
		_, err = a.AddEntry(1, Monday, slot(t, "20:00"), slot(t, "22:00"))
		if !errors.Is(err, ErrInvalidTimeSlot) {
			t.Fatalf("expected ErrInvalidTimeSlot, got %v", err)
		}
	})

	t.Run("assigns increasing ids", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		a.SelectFacility(2)
		e1 := mustAdd(t, a, 1, Monday, "08:00", "09:00")
		e2 := mustAdd(t, a, 2, Monday, "09:00", "10:00")
		a.RemoveEntry(2, e2.ID)
		e3 := mustAdd(t, a, 2, Monday, "09:00", "10:00")
		if !(e1.ID < e2.ID && e2.ID < e3.ID) {
			t.Fatalf("expected monotonic ids, got %d %d %d", e1.ID, e2.ID, e3.ID)
		}
	})
}

func TestAssignment_RemoveEntry(t *testing.T) {
	a := NewAssignment(DefaultGrid())
	a.SelectFacility(1)
	entry := mustAdd(t, a, 1, Wednesday, "10:00", "11:00")

	if !a.RemoveEntry(1, entry.ID) {
		t.Fatalf("expected first removal to report true")
	}
	if a.RemoveEntry(1, entry.ID) {
		t.Fatalf("expected second removal to be a no-op")
	}
	if a.RemoveEntry(99, entry.ID) {
		t.Fatalf("expected removal from unknown facility to be a no-op")
	}
	if got := a.Entries(1); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
}

func TestAssignment_Selection(t *testing.T) {
	t.Run("deselect then reselect yields an empty schedule", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		mustAdd(t, a, 1, Monday, "08:00", "09:00")

		a.DeselectFacility(1)
		a.SelectFacility(1)

		if got := a.Entries(1); len(got) != 0 {
			t.Fatalf("expected empty schedule after reselect, got %v", got)
		}
	})

	t.Run("select and deselect are idempotent", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		a.SelectFacility(1)
		a.DeselectFacility(5)
		if got := a.SelectedFacilities(); !reflect.DeepEqual(got, []int64{1}) {
			t.Fatalf("selected = %v, want [1]", got)
		}
	})

	t.Run("toggle flips membership", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		if !a.ToggleFacility(4) {
			t.Fatalf("expected toggle to select")
		}
		if a.ToggleFacility(4) {
			t.Fatalf("expected toggle to deselect")
		}
		if a.IsSelected(4) {
			t.Fatalf("expected facility 4 deselected")
		}
	})

	t.Run("focus follows the selection", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		if a.FocusedFacility() != 0 {
			t.Fatalf("expected no focus initially")
		}
		a.SelectFacility(3)
		a.SelectFacility(5)
		if a.FocusedFacility() != 3 {
			t.Fatalf("focus = %d, want 3", a.FocusedFacility())
		}
		if err := a.Focus(5); err != nil {
			t.Fatalf("Focus(5): %v", err)
		}
		a.DeselectFacility(5)
		if a.FocusedFacility() != 3 {
			t.Fatalf("focus = %d after deselecting focused facility, want 3", a.FocusedFacility())
		}
		a.DeselectFacility(3)
		if a.FocusedFacility() != 0 {
			t.Fatalf("focus = %d after emptying selection, want 0", a.FocusedFacility())
		}
		if err := a.Focus(3); !errors.Is(err, ErrFacilityNotSelected) {
			t.Fatalf("expected ErrFacilityNotSelected, got %v", err)
		}
	})
}

func TestAssignment_Submission(t *testing.T) {
	t.Run("requires coordinator", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectFacility(1)
		mustAdd(t, a, 1, Monday, "08:00", "09:00")
		if _, err := a.Submission(); !errors.Is(err, ErrMissingCoordinator) {
			t.Fatalf("expected ErrMissingCoordinator, got %v", err)
		}
	})

	t.Run("requires facilities", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectCoordinator(4)
		if _, err := a.Submission(); !errors.Is(err, ErrNoFacilitiesSelected) {
			t.Fatalf("expected ErrNoFacilitiesSelected, got %v", err)
		}
	})

	t.Run("lists facilities without schedule", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectCoordinator(4)
		a.SelectFacility(1)
		a.SelectFacility(2)
		mustAdd(t, a, 1, Monday, "08:00", "09:00")

		_, err := a.Submission()
		if !errors.Is(err, ErrFacilitiesMissingSchedule) {
			t.Fatalf("expected ErrFacilitiesMissingSchedule, got %v", err)
		}
		var missing *MissingScheduleError
		if !errors.As(err, &missing) {
			t.Fatalf("expected *MissingScheduleError, got %T", err)
		}
		if !reflect.DeepEqual(missing.FacilityIDs, []int64{2}) {
			t.Fatalf("missing = %v, want [2]", missing.FacilityIDs)
		}
		if a.State() != StateFacilitiesSelected {
			t.Fatalf("state = %s, want %s", a.State(), StateFacilitiesSelected)
		}
	})

	t.Run("returns a detached snapshot", func(t *testing.T) {
		a := NewAssignment(DefaultGrid())
		a.SelectCoordinator(4)
		a.SelectFacility(2)
		a.SelectFacility(1)
		e1 := mustAdd(t, a, 2, Monday, "08:00", "09:00")
		mustAdd(t, a, 1, Tuesday, "08:00", "09:00")

		sub, err := a.Submission()
		if err != nil {
			t.Fatalf("Submission: %v", err)
		}
		if sub.CoordinatorID != 4 || !reflect.DeepEqual(sub.FacilityIDs, []int64{2, 1}) {
			t.Fatalf("unexpected submission header: %+v", sub)
		}
		if len(sub.Schedules[2]) != 1 || sub.Schedules[2][0] != e1 {
			t.Fatalf("unexpected schedule for facility 2: %v", sub.Schedules[2])
		}

		sub.Schedules[2][0].Day = Sunday
		if a.Entries(2)[0].Day != Monday {
			t.Fatalf("submission shares memory with assignment")
		}
		if a.State() != StateSchedulesConfigured {
			t.Fatalf("state = %s, want %s", a.State(), StateSchedulesConfigured)
		}
		a.MarkSubmitted()
		if a.State() != StateSubmitted {
			t.Fatalf("state = %s, want %s", a.State(), StateSubmitted)
		}
	})
}

func TestAssignment_State(t *testing.T) {
	a := NewAssignment(DefaultGrid())
	if a.State() != StateEmpty {
		t.Fatalf("state = %s, want empty", a.State())
	}
	a.SelectFacility(1)
	if a.State() != StateFacilitiesSelected {
		t.Fatalf("state = %s, want facilities_selected", a.State())
	}
	mustAdd(t, a, 1, Monday, "08:00", "09:00")
	if a.State() != StateSchedulesConfigured {
		t.Fatalf("state = %s, want schedules_configured", a.State())
	}
}

func TestAssignment_SnapshotRoundTrip(t *testing.T) {
	a := NewAssignment(DefaultGrid())
	a.SelectCoordinator(5)
	a.SelectFacility(3)
	a.SelectFacility(1)
	mustAdd(t, a, 3, Monday, "08:00", "09:00")
	mustAdd(t, a, 1, Monday, "09:00", "10:00")
	if err := a.Focus(1); err != nil {
		t.Fatalf("Focus: %v", err)
	}

	raw, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored := RestoreAssignment(DefaultGrid(), snapshot)

	if !reflect.DeepEqual(restored.Snapshot(), a.Snapshot()) {
		t.Fatalf("restored snapshot differs:\n got %+v\nwant %+v", restored.Snapshot(), a.Snapshot())
	}
	next := mustAdd(t, restored, 3, Tuesday, "08:00", "09:00")
	if next.ID != 3 {
		t.Fatalf("next id after restore = %d, want 3", next.ID)
	}
	if _, err := restored.AddEntry(3, Monday, slot(t, "09:00"), slot(t, "09:30")); !errors.Is(err, ErrOverlapOtherFacility) {
		t.Fatalf("expected overlap rules to survive restore, got %v", err)
	}
}

func TestAssignment_RandomizedAdmittedDataHasNoConflicts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	grid := DefaultGrid()
	slots := grid.Slots()
	days := WeekDays()
	facilities := []int64{1, 2, 3, 4}

	for round := 0; round < 50; round++ {
		a := NewAssignment(grid)
		for _, id := range facilities {
			a.SelectFacility(id)
		}
		for i := 0; i < 60; i++ {
			facilityID := facilities[rng.Intn(len(facilities))]
			day := days[rng.Intn(len(days))]
			start := slots[rng.Intn(len(slots))]
			end := slots[rng.Intn(len(slots))]
			_, _ = a.AddEntry(facilityID, day, start, end)

			if i%10 == 0 {
				entries := a.Entries(facilityID)
				if len(entries) > 0 {
					a.RemoveEntry(facilityID, entries[rng.Intn(len(entries))].ID)
				}
			}
		}

		if conflicts := DeriveWeeklyGrid(a).Conflicts(); len(conflicts) != 0 {
			t.Fatalf("round %d: expected zero conflict cells, got %d", round, len(conflicts))
		}
		assertPairwiseDisjoint(t, a)
	}
}

func assertPairwiseDisjoint(t *testing.T, a *Assignment) {
	t.Helper()
	type placed struct {
		facility int64
		entry    Entry
	}
	var all []placed
	for _, id := range a.SelectedFacilities() {
		for _, entry := range a.Entries(id) {
			if !entry.Interval().Valid() {
				t.Fatalf("admitted invalid interval %+v", entry)
			}
			all = append(all, placed{facility: id, entry: entry})
		}
	}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if all[i].entry.Day != all[j].entry.Day {
				continue
			}
			if Overlaps(all[i].entry.Interval(), all[j].entry.Interval()) {
				t.Fatalf("overlapping entries admitted: %+v and %+v", all[i], all[j])
			}
		}
	}
}
