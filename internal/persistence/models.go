package persistence

import "time"

// Facility represents a sports venue in the municipal catalog.
type Facility struct {
	ID        int64
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FacilityStatus carries the inspection metadata shown to coordinators.
type FacilityStatus struct {
	FacilityID          int64
	Status              string
	LastVisitAt         *time.Time
	Observations        int
	PendingObservations int
	UpdatedAt           time.Time
}

// Coordinator represents a person who supervises facilities.
type Coordinator struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Assignment is a submitted coordinator assignment with its weekly schedule.
type Assignment struct {
	ID            string
	CoordinatorID int64
	FacilityIDs   []int64
	Entries       []ScheduleEntry
	CreatedAt     time.Time
}

// ScheduleEntry is one weekly time block of an assignment. Minutes are
// counted from midnight.
type ScheduleEntry struct {
	FacilityID  int64
	EntryID     int64
	Day         string
	StartMinute int
	EndMinute   int
}
