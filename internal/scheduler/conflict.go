package scheduler

// Interval is a half-open clock range [Start, End) within one day.
type Interval struct {
	Start TimeSlot
	End   TimeSlot
}

// Valid reports whether the interval starts strictly before it ends.
func (i Interval) Valid() bool {
	return i.Start < i.End
}

// Covers reports whether the clock position t falls inside the interval.
func (i Interval) Covers(t TimeSlot) bool {
	return i.Start <= t && i.End > t
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// findConflict returns the first entry on day that overlaps candidate.
func findConflict(entries []Entry, day WeekDay, candidate Interval) (Entry, bool) {
	for _, entry := range entries {
		if entry.Day != day {
			continue
		}
		if Overlaps(entry.Interval(), candidate) {
			return entry, true
		}
	}
	return Entry{}, false
}
