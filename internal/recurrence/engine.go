// Package recurrence projects weekly time slots onto calendar dates.
package recurrence

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidSlot indicates a slot whose offsets are not a valid same-day range.
var ErrInvalidSlot = errors.New("recurrence: slot must start before it ends within one day")

// Slot is a block that repeats every week on Day, Start and End being offsets
// from midnight.
type Slot struct {
	FacilityID int64
	Day        time.Weekday
	Start      time.Duration
	End        time.Duration
}

// Valid reports whether the slot describes a non-empty range inside one day.
func (s Slot) Valid() bool {
	return s.Day >= time.Sunday && s.Day <= time.Saturday &&
		s.Start >= 0 && s.End <= 24*time.Hour && s.Start < s.End
}

// Occurrence is one concrete instance of a slot.
type Occurrence struct {
	FacilityID int64
	Start      time.Time
	End        time.Time
}

// Engine expands slots in a fixed location.
type Engine struct {
	location *time.Location
}

// NewEngine returns an Engine for loc; nil means UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location returns the engine's location.
func (e *Engine) Location() *time.Location {
	return e.location
}

// StartOfWeek returns Monday 00:00 of the week containing t.
func (e *Engine) StartOfWeek(t time.Time) time.Time {
	local := t.In(e.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.location)
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// ExpandWeek returns the occurrences of slots in the Monday-start week that
// contains reference, ordered by start time.
func (e *Engine) ExpandWeek(slots []Slot, reference time.Time) ([]Occurrence, error) {
	weekStart := e.StartOfWeek(reference)
	occurrences := make([]Occurrence, 0, len(slots))
	for _, slot := range slots {
		if !slot.Valid() {
			return nil, ErrInvalidSlot
		}
		occurrences = append(occurrences, e.occurrenceIn(weekStart, slot))
	}
	sortOccurrences(occurrences)
	return occurrences, nil
}

// NextOccurrence returns the earliest occurrence that has not ended at from.
// An occurrence in progress at from is returned. The boolean is false when
// slots is empty.
func (e *Engine) NextOccurrence(slots []Slot, from time.Time) (Occurrence, bool, error) {
	weekStart := e.StartOfWeek(from)
	var (
		best  Occurrence
		found bool
	)
	for _, slot := range slots {
		if !slot.Valid() {
			return Occurrence{}, false, ErrInvalidSlot
		}
		candidate := e.occurrenceIn(weekStart, slot)
		if !candidate.End.After(from) {
			candidate = e.occurrenceIn(weekStart.AddDate(0, 0, 7), slot)
		}
		if !found || candidate.Start.Before(best.Start) ||
			(candidate.Start.Equal(best.Start) && candidate.FacilityID < best.FacilityID) {
			best = candidate
			found = true
		}
	}
	return best, found, nil
}

func (e *Engine) occurrenceIn(weekStart time.Time, slot Slot) Occurrence {
	offset := (int(slot.Day) + 6) % 7
	day := weekStart.AddDate(0, 0, offset)
	return Occurrence{
		FacilityID: slot.FacilityID,
		Start:      wallClock(day, slot.Start),
		End:        wallClock(day, slot.End),
	}
}

// wallClock adds offset as wall-clock hours and minutes so DST shifts do not
// move the slot.
func wallClock(day time.Time, offset time.Duration) time.Time {
	minutes := int(offset / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}

func sortOccurrences(occurrences []Occurrence) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		if occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].FacilityID < occurrences[j].FacilityID
		}
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
}
