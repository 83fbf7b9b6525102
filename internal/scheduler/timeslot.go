package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeSlot is a clock position expressed in minutes since midnight. Ordering
// compares whole minutes, so the zero value is 00:00 and 24:00 is the last
// representable position.
type TimeSlot int

// NewTimeSlot builds a TimeSlot from an hour and minute pair.
func NewTimeSlot(hour, minute int) (TimeSlot, error) {
	if hour < 0 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeSlot, hour, minute)
	}
	value := hour*60 + minute
	if value > minutesPerDay {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeSlot, hour, minute)
	}
	return TimeSlot(value), nil
}

// MustTimeSlot is NewTimeSlot for package-level constants; it panics on invalid input.
func MustTimeSlot(hour, minute int) TimeSlot {
	slot, err := NewTimeSlot(hour, minute)
	if err != nil {
		panic(err)
	}
	return slot
}

// ParseTimeSlot parses "HH:MM" (a single hour digit is accepted).
func ParseTimeSlot(value string) (TimeSlot, error) {
	value = strings.TrimSpace(value)
	hourPart, minutePart, ok := strings.Cut(value, ":")
	if !ok || len(minutePart) != 2 || hourPart == "" || len(hourPart) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, value)
	}
	return NewTimeSlot(hour, minute)
}

// Hour returns the hour component.
func (t TimeSlot) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeSlot) Minute() int { return int(t) % 60 }

// Offset returns the distance from midnight.
func (t TimeSlot) Offset() time.Duration { return time.Duration(t) * time.Minute }

// String renders the slot as "HH:MM".
func (t TimeSlot) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeSlot) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeSlot) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeSlot(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Grid is the ordered set of clock boundaries offered for booking. Consecutive
// boundaries delimit the cells of the weekly calendar.
type Grid struct {
	slots []TimeSlot
}

// Cell is one bookable period between two consecutive grid boundaries.
type Cell struct {
	Start TimeSlot
	End   TimeSlot
}

// DefaultGrid returns hourly boundaries from 08:00 to 21:00 inclusive.
func DefaultGrid() Grid {
	grid, err := NewGrid(MustTimeSlot(8, 0), MustTimeSlot(21, 0), time.Hour)
	if err != nil {
		panic(err)
	}
	return grid
}

// NewGrid builds boundaries from first to last (inclusive) every step.
func NewGrid(first, last TimeSlot, step time.Duration) (Grid, error) {
	if step < time.Minute || step%time.Minute != 0 {
		return Grid{}, fmt.Errorf("scheduler: grid step must be a positive whole number of minutes, got %s", step)
	}
	if first >= last {
		return Grid{}, fmt.Errorf("scheduler: grid start %s must be before end %s", first, last)
	}
	stepMinutes := int(step / time.Minute)
	if (int(last)-int(first))%stepMinutes != 0 {
		return Grid{}, fmt.Errorf("scheduler: grid %s-%s is not a multiple of %s", first, last, step)
	}
	slots := make([]TimeSlot, 0, (int(last)-int(first))/stepMinutes+1)
	for current := first; current <= last; current += TimeSlot(stepMinutes) {
		slots = append(slots, current)
	}
	return Grid{slots: slots}, nil
}

// Slots returns a copy of the boundaries.
func (g Grid) Slots() []TimeSlot {
	out := make([]TimeSlot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Cells returns the bookable cells; the final boundary only closes the last cell.
func (g Grid) Cells() []Cell {
	if len(g.slots) < 2 {
		return nil
	}
	cells := make([]Cell, 0, len(g.slots)-1)
	for i := 0; i+1 < len(g.slots); i++ {
		cells = append(cells, Cell{Start: g.slots[i], End: g.slots[i+1]})
	}
	return cells
}

// First returns the opening boundary.
func (g Grid) First() TimeSlot {
	if len(g.slots) == 0 {
		return 0
	}
	return g.slots[0]
}

// Last returns the closing boundary.
func (g Grid) Last() TimeSlot {
	if len(g.slots) == 0 {
		return 0
	}
	return g.slots[len(g.slots)-1]
}

// Contains reports whether t lies inside the grid window, boundaries included.
func (g Grid) Contains(t TimeSlot) bool {
	if len(g.slots) == 0 {
		return false
	}
	return t >= g.First() && t <= g.Last()
}

// IsZero reports whether the grid has no boundaries.
func (g Grid) IsZero() bool {
	return len(g.slots) == 0
}
