package application

import "context"

// FacilityCatalog is the read-only facility feed.
type FacilityCatalog interface {
	ListFacilities(ctx context.Context) ([]Facility, error)
	GetFacility(ctx context.Context, id int64) (Facility, error)
}

// CoordinatorDirectory is the read-only coordinator feed.
type CoordinatorDirectory interface {
	GetCoordinator(ctx context.Context, id int64) (Coordinator, error)
	// ListUnassignedCoordinators returns coordinators that hold no assignment.
	ListUnassignedCoordinators(ctx context.Context) ([]Coordinator, error)
}

// FacilityStatusSource provides inspection metadata.
type FacilityStatusSource interface {
	GetFacilityStatus(ctx context.Context, facilityID int64) (FacilityStatusRecord, error)
}

// AssignmentSink accepts submitted assignments atomically.
type AssignmentSink interface {
	SaveAssignment(ctx context.Context, record AssignmentRecord) error
}

// AssignmentReader loads submitted assignments.
type AssignmentReader interface {
	GetAssignmentByCoordinator(ctx context.Context, coordinatorID int64) (AssignmentRecord, error)
}

// SessionStore persists in-progress assignment sessions.
type SessionStore interface {
	Save(ctx context.Context, session AssignmentSession) error
	Load(ctx context.Context, id string) (AssignmentSession, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher announces completed submissions to other systems.
type EventPublisher interface {
	PublishAssignmentCreated(ctx context.Context, event AssignmentCreatedEvent) error
}
