package application

import (
	"context"
	"log/slog"
)

// CoordinatorService exposes the coordinator directory to the admin flow.
type CoordinatorService struct {
	coordinators CoordinatorDirectory
	logger       *slog.Logger
}

// NewCoordinatorService constructs a CoordinatorService.
func NewCoordinatorService(coordinators CoordinatorDirectory, logger *slog.Logger) *CoordinatorService {
	return &CoordinatorService{coordinators: coordinators, logger: defaultLogger(logger)}
}

// ListUnassigned returns the coordinators that can receive a new assignment.
func (s *CoordinatorService) ListUnassigned(ctx context.Context) ([]Coordinator, error) {
	coordinators, err := s.coordinators.ListUnassignedCoordinators(ctx)
	if err != nil {
		serviceLogger(ctx, s.logger, "CoordinatorService", "ListUnassigned").
			ErrorContext(ctx, "failed to list unassigned coordinators", "error", err)
		return nil, mapRepoError(err)
	}
	if coordinators == nil {
		coordinators = []Coordinator{}
	}
	return coordinators, nil
}

// GetCoordinator returns a coordinator by id.
func (s *CoordinatorService) GetCoordinator(ctx context.Context, id int64) (Coordinator, error) {
	coordinator, err := s.coordinators.GetCoordinator(ctx, id)
	if err != nil {
		return Coordinator{}, mapRepoError(err)
	}
	return coordinator, nil
}
