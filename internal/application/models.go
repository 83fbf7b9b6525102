package application

import (
	"time"

	"github.com/example/facility-coordinator/internal/scheduler"
)

// Facility is a catalog venue.
type Facility struct {
	ID       int64
	Name     string
	Location string
}

// Coordinator is a person who can be assigned facilities.
type Coordinator struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// FacilityStatus is the inspection state of a facility.
type FacilityStatus string

const (
	StatusGood                FacilityStatus = "buen-estado"
	StatusNeedsAttention      FacilityStatus = "requiere-atencion"
	StatusMaintenanceRequired FacilityStatus = "mantenimiento-requerido"
	StatusUnderMaintenance    FacilityStatus = "en-mantenimiento"
)

var facilityStatusLabels = map[FacilityStatus]string{
	StatusGood:                "Buen estado",
	StatusNeedsAttention:      "Requiere atención",
	StatusMaintenanceRequired: "Mantenimiento requerido",
	StatusUnderMaintenance:    "En mantenimiento",
}

// Valid reports whether s is a known status.
func (s FacilityStatus) Valid() bool {
	_, ok := facilityStatusLabels[s]
	return ok
}

// Label returns the display label of the status.
func (s FacilityStatus) Label() string {
	if label, ok := facilityStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// NeedsAttention reports whether the status belongs on the attention tab.
func (s FacilityStatus) NeedsAttention() bool {
	return s == StatusNeedsAttention || s == StatusMaintenanceRequired
}

// FacilityTab selects a subset of a coordinator's facilities.
type FacilityTab string

const (
	TabAll       FacilityTab = "todas"
	TabToday     FacilityTab = "hoy"
	TabAttention FacilityTab = "atencion"
)

// FacilityStatusRecord is the stored inspection metadata of a facility.
type FacilityStatusRecord struct {
	FacilityID          int64
	Status              FacilityStatus
	LastVisitAt         *time.Time
	Observations        int
	PendingObservations int
}

// FacilityOverview is one card of the coordinator facility listing.
type FacilityOverview struct {
	Facility            Facility
	Status              FacilityStatus
	LastVisitAt         *time.Time
	NextVisitStart      *time.Time
	NextVisitEnd        *time.Time
	IsToday             bool
	Observations        int
	PendingObservations int
}

// ListCoordinatorFacilitiesParams filters the coordinator facility listing.
type ListCoordinatorFacilitiesParams struct {
	CoordinatorID int64
	Query         string
	Tab           FacilityTab
	Status        FacilityStatus
}

// AssignmentRecord is a submitted assignment as handed to the sink.
type AssignmentRecord struct {
	ID            string
	CoordinatorID int64
	FacilityIDs   []int64
	Schedules     map[int64][]scheduler.Entry
	CreatedAt     time.Time
}

// AssignmentSession is the persisted state of one in-progress assignment form.
type AssignmentSession struct {
	ID         string             `json:"id"`
	Assignment scheduler.Snapshot `json:"assignment"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// FacilityScheduleView is a selected facility with its entries sorted by day and start.
type FacilityScheduleView struct {
	Facility Facility
	Entries  []scheduler.Entry
}

// AssignmentView is the read model of an assignment session.
type AssignmentView struct {
	SessionID         string
	State             scheduler.State
	Coordinator       *Coordinator
	Facilities        []FacilityScheduleView
	FocusedFacilityID int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         time.Time
}

// WeeklyGridView is the derived weekly calendar of a session plus the names
// of the facilities it references.
type WeeklyGridView struct {
	SessionID  string
	Grid       scheduler.WeeklyGrid
	Facilities map[int64]Facility
}

// AssignmentCreatedEvent is published after a submission is stored.
type AssignmentCreatedEvent struct {
	AssignmentID  string    `json:"assignment_id"`
	CoordinatorID int64     `json:"coordinator_id"`
	FacilityIDs   []int64   `json:"facility_ids"`
	EntryCount    int       `json:"entry_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// AddEntryParams describes a new schedule entry.
type AddEntryParams struct {
	SessionID  string
	FacilityID int64
	Day        scheduler.WeekDay
	Start      scheduler.TimeSlot
	End        scheduler.TimeSlot
}
