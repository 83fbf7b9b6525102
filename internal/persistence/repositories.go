package persistence

import "context"

// FacilityRepository exposes the facility catalog.
type FacilityRepository interface {
	CreateFacility(ctx context.Context, facility Facility) error
	GetFacility(ctx context.Context, id int64) (Facility, error)
	ListFacilities(ctx context.Context) ([]Facility, error)
}

// FacilityStatusRepository stores inspection metadata per facility.
type FacilityStatusRepository interface {
	UpsertFacilityStatus(ctx context.Context, status FacilityStatus) error
	GetFacilityStatus(ctx context.Context, facilityID int64) (FacilityStatus, error)
}

// CoordinatorRepository exposes the coordinator directory.
type CoordinatorRepository interface {
	CreateCoordinator(ctx context.Context, coordinator Coordinator) error
	GetCoordinator(ctx context.Context, id int64) (Coordinator, error)
	ListCoordinators(ctx context.Context) ([]Coordinator, error)
	// ListUnassignedCoordinators returns coordinators without a stored assignment.
	ListUnassignedCoordinators(ctx context.Context) ([]Coordinator, error)
}

// AssignmentRepository stores submitted assignments. A coordinator holds at
// most one assignment; CreateAssignment returns ErrDuplicate otherwise.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	GetAssignmentByCoordinator(ctx context.Context, coordinatorID int64) (Assignment, error)
	ListAssignments(ctx context.Context) ([]Assignment, error)
}

// Store aggregates every repository exposed by a storage backend.
type Store interface {
	FacilityRepository
	FacilityStatusRepository
	CoordinatorRepository
	AssignmentRepository
}
