// Package memory provides a map-backed implementation of the persistence
// repositories, used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/example/facility-coordinator/internal/persistence"
)

// Storage keeps every record in process memory.
type Storage struct {
	mu           sync.RWMutex
	facilities   map[int64]persistence.Facility
	statuses     map[int64]persistence.FacilityStatus
	coordinators map[int64]persistence.Coordinator
	assignments  map[string]persistence.Assignment
	byCoord      map[int64]string
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		facilities:   make(map[int64]persistence.Facility),
		statuses:     make(map[int64]persistence.FacilityStatus),
		coordinators: make(map[int64]persistence.Coordinator),
		assignments:  make(map[string]persistence.Assignment),
		byCoord:      make(map[int64]string),
	}
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// --- FacilityRepository ---

// CreateFacility stores a new facility.
func (s *Storage) CreateFacility(ctx context.Context, facility persistence.Facility) error {
	if facility.ID <= 0 {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.facilities[facility.ID]; ok {
		return fmt.Errorf("memory: facility %d: %w", facility.ID, persistence.ErrDuplicate)
	}
	s.facilities[facility.ID] = facility
	return nil
}

// GetFacility returns the facility with id.
func (s *Storage) GetFacility(ctx context.Context, id int64) (persistence.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facility, ok := s.facilities[id]
	if !ok {
		return persistence.Facility{}, persistence.ErrNotFound
	}
	return facility, nil
}

// ListFacilities returns every facility ordered by id.
func (s *Storage) ListFacilities(ctx context.Context) ([]persistence.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facilities := make([]persistence.Facility, 0, len(s.facilities))
	for _, facility := range s.facilities {
		facilities = append(facilities, facility)
	}
	sort.Slice(facilities, func(i, j int) bool { return facilities[i].ID < facilities[j].ID })
	return facilities, nil
}

// --- FacilityStatusRepository ---

// UpsertFacilityStatus stores the status of an existing facility.
func (s *Storage) UpsertFacilityStatus(ctx context.Context, status persistence.FacilityStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.facilities[status.FacilityID]; !ok {
		return fmt.Errorf("memory: status for facility %d: %w", status.FacilityID, persistence.ErrConstraintViolation)
	}
	s.statuses[status.FacilityID] = cloneStatus(status)
	return nil
}

// GetFacilityStatus returns the status of facilityID.
func (s *Storage) GetFacilityStatus(ctx context.Context, facilityID int64) (persistence.FacilityStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[facilityID]
	if !ok {
		return persistence.FacilityStatus{}, persistence.ErrNotFound
	}
	return cloneStatus(status), nil
}

// --- CoordinatorRepository ---

// CreateCoordinator stores a new coordinator.
func (s *Storage) CreateCoordinator(ctx context.Context, coordinator persistence.Coordinator) error {
	if coordinator.ID <= 0 {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.coordinators[coordinator.ID]; ok {
		return fmt.Errorf("memory: coordinator %d: %w", coordinator.ID, persistence.ErrDuplicate)
	}
	s.coordinators[coordinator.ID] = coordinator
	return nil
}

// GetCoordinator returns the coordinator with id.
func (s *Storage) GetCoordinator(ctx context.Context, id int64) (persistence.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coordinator, ok := s.coordinators[id]
	if !ok {
		return persistence.Coordinator{}, persistence.ErrNotFound
	}
	return coordinator, nil
}

// ListCoordinators returns every coordinator ordered by id.
func (s *Storage) ListCoordinators(ctx context.Context) ([]persistence.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinatorsLocked(func(persistence.Coordinator) bool { return true }), nil
}

// ListUnassignedCoordinators returns coordinators without an assignment.
func (s *Storage) ListUnassignedCoordinators(ctx context.Context) ([]persistence.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinatorsLocked(func(c persistence.Coordinator) bool {
		_, assigned := s.byCoord[c.ID]
		return !assigned
	}), nil
}

func (s *Storage) coordinatorsLocked(keep func(persistence.Coordinator) bool) []persistence.Coordinator {
	coordinators := make([]persistence.Coordinator, 0, len(s.coordinators))
	for _, coordinator := range s.coordinators {
		if keep(coordinator) {
			coordinators = append(coordinators, coordinator)
		}
	}
	sort.Slice(coordinators, func(i, j int) bool { return coordinators[i].ID < coordinators[j].ID })
	return coordinators
}

// --- AssignmentRepository ---

// CreateAssignment stores a submitted assignment. The write is all-or-nothing.
func (s *Storage) CreateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	if assignment.ID == "" || len(assignment.FacilityIDs) == 0 {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.coordinators[assignment.CoordinatorID]; !ok {
		return fmt.Errorf("memory: coordinator %d: %w", assignment.CoordinatorID, persistence.ErrConstraintViolation)
	}
	for _, facilityID := range assignment.FacilityIDs {
		if _, ok := s.facilities[facilityID]; !ok {
			return fmt.Errorf("memory: facility %d: %w", facilityID, persistence.ErrConstraintViolation)
		}
	}
	for _, entry := range assignment.Entries {
		if entry.StartMinute >= entry.EndMinute || !slices.Contains(assignment.FacilityIDs, entry.FacilityID) {
			return fmt.Errorf("memory: entry %d: %w", entry.EntryID, persistence.ErrConstraintViolation)
		}
	}
	if _, ok := s.assignments[assignment.ID]; ok {
		return fmt.Errorf("memory: assignment %s: %w", assignment.ID, persistence.ErrDuplicate)
	}
	if _, ok := s.byCoord[assignment.CoordinatorID]; ok {
		return fmt.Errorf("memory: coordinator %d already assigned: %w", assignment.CoordinatorID, persistence.ErrDuplicate)
	}

	s.assignments[assignment.ID] = cloneAssignment(assignment)
	s.byCoord[assignment.CoordinatorID] = assignment.ID
	return nil
}

// GetAssignment returns the assignment with id.
func (s *Storage) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assignment, ok := s.assignments[id]
	if !ok {
		return persistence.Assignment{}, persistence.ErrNotFound
	}
	return cloneAssignment(assignment), nil
}

// GetAssignmentByCoordinator returns the assignment held by coordinatorID.
func (s *Storage) GetAssignmentByCoordinator(ctx context.Context, coordinatorID int64) (persistence.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCoord[coordinatorID]
	if !ok {
		return persistence.Assignment{}, persistence.ErrNotFound
	}
	return cloneAssignment(s.assignments[id]), nil
}

// ListAssignments returns every assignment ordered by creation time.
func (s *Storage) ListAssignments(ctx context.Context) ([]persistence.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assignments := make([]persistence.Assignment, 0, len(s.assignments))
	for _, assignment := range s.assignments {
		assignments = append(assignments, cloneAssignment(assignment))
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].CreatedAt.Equal(assignments[j].CreatedAt) {
			return assignments[i].ID < assignments[j].ID
		}
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
	return assignments, nil
}

func cloneStatus(status persistence.FacilityStatus) persistence.FacilityStatus {
	if status.LastVisitAt != nil {
		copy := *status.LastVisitAt
		status.LastVisitAt = &copy
	}
	return status
}

func cloneAssignment(assignment persistence.Assignment) persistence.Assignment {
	assignment.FacilityIDs = slices.Clone(assignment.FacilityIDs)
	assignment.Entries = slices.Clone(assignment.Entries)
	return assignment
}

var _ persistence.Store = (*Storage)(nil)
