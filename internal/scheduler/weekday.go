package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// WeekDay identifies one day of the fixed Monday-first weekly cycle.
type WeekDay string

const (
	Monday    WeekDay = "monday"
	Tuesday   WeekDay = "tuesday"
	Wednesday WeekDay = "wednesday"
	Thursday  WeekDay = "thursday"
	Friday    WeekDay = "friday"
	Saturday  WeekDay = "saturday"
	Sunday    WeekDay = "sunday"
)

var weekDays = [...]WeekDay{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekDayLabels = map[WeekDay]string{
	Monday:    "Lunes",
	Tuesday:   "Martes",
	Wednesday: "Miércoles",
	Thursday:  "Jueves",
	Friday:    "Viernes",
	Saturday:  "Sábado",
	Sunday:    "Domingo",
}

// Spanish identifiers are accepted as aliases so payloads produced by the
// admin screens keep working.
var weekDayAliases = map[string]WeekDay{
	"lunes":     Monday,
	"martes":    Tuesday,
	"miercoles": Wednesday,
	"miércoles": Wednesday,
	"jueves":    Thursday,
	"viernes":   Friday,
	"sabado":    Saturday,
	"sábado":    Saturday,
	"domingo":   Sunday,
}

// WeekDays returns the seven days in display order.
func WeekDays() []WeekDay {
	out := make([]WeekDay, len(weekDays))
	copy(out, weekDays[:])
	return out
}

// ParseWeekDay resolves an English or Spanish day identifier.
func ParseWeekDay(value string) (WeekDay, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	day := WeekDay(key)
	if day.Valid() {
		return day, nil
	}
	if alias, ok := weekDayAliases[key]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDay, value)
}

// Valid reports whether d is one of the seven known days.
func (d WeekDay) Valid() bool {
	_, ok := weekDayLabels[d]
	return ok
}

// Label returns the display label of the day.
func (d WeekDay) Label() string {
	if label, ok := weekDayLabels[d]; ok {
		return label
	}
	return string(d)
}

// Index returns the zero-based Monday-first position, or -1 for unknown days.
func (d WeekDay) Index() int {
	for i, day := range weekDays {
		if day == d {
			return i
		}
	}
	return -1
}

// Weekday converts d into the standard library representation.
func (d WeekDay) Weekday() time.Weekday {
	idx := d.Index()
	if idx < 0 {
		return time.Sunday
	}
	return time.Weekday((idx + 1) % 7)
}

// FromWeekday converts a standard library weekday.
func FromWeekday(day time.Weekday) WeekDay {
	// time.Sunday == 0, Monday-first index is (day+6)%7.
	return weekDays[(int(day)+6)%7]
}
