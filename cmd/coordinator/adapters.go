package main

import (
	"context"
	"fmt"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/persistence"
	"github.com/example/facility-coordinator/internal/scheduler"
)

type facilityCatalogAdapter struct {
	repo persistence.FacilityRepository
}

func newFacilityCatalogAdapter(repo persistence.FacilityRepository) *facilityCatalogAdapter {
	return &facilityCatalogAdapter{repo: repo}
}

func (a *facilityCatalogAdapter) ListFacilities(ctx context.Context) ([]application.Facility, error) {
	models, err := a.repo.ListFacilities(ctx)
	if err != nil {
		return nil, err
	}
	facilities := make([]application.Facility, 0, len(models))
	for _, model := range models {
		facilities = append(facilities, toApplicationFacility(model))
	}
	return facilities, nil
}

func (a *facilityCatalogAdapter) GetFacility(ctx context.Context, id int64) (application.Facility, error) {
	model, err := a.repo.GetFacility(ctx, id)
	if err != nil {
		return application.Facility{}, err
	}
	return toApplicationFacility(model), nil
}

type facilityStatusAdapter struct {
	repo persistence.FacilityStatusRepository
}

func newFacilityStatusAdapter(repo persistence.FacilityStatusRepository) *facilityStatusAdapter {
	return &facilityStatusAdapter{repo: repo}
}

func (a *facilityStatusAdapter) GetFacilityStatus(ctx context.Context, facilityID int64) (application.FacilityStatusRecord, error) {
	model, err := a.repo.GetFacilityStatus(ctx, facilityID)
	if err != nil {
		return application.FacilityStatusRecord{}, err
	}
	return application.FacilityStatusRecord{
		FacilityID:          model.FacilityID,
		Status:              application.FacilityStatus(model.Status),
		LastVisitAt:         model.LastVisitAt,
		Observations:        model.Observations,
		PendingObservations: model.PendingObservations,
	}, nil
}

type coordinatorDirectoryAdapter struct {
	repo persistence.CoordinatorRepository
}

func newCoordinatorDirectoryAdapter(repo persistence.CoordinatorRepository) *coordinatorDirectoryAdapter {
	return &coordinatorDirectoryAdapter{repo: repo}
}

func (a *coordinatorDirectoryAdapter) GetCoordinator(ctx context.Context, id int64) (application.Coordinator, error) {
	model, err := a.repo.GetCoordinator(ctx, id)
	if err != nil {
		return application.Coordinator{}, err
	}
	return toApplicationCoordinator(model), nil
}

func (a *coordinatorDirectoryAdapter) ListUnassignedCoordinators(ctx context.Context) ([]application.Coordinator, error) {
	models, err := a.repo.ListUnassignedCoordinators(ctx)
	if err != nil {
		return nil, err
	}
	coordinators := make([]application.Coordinator, 0, len(models))
	for _, model := range models {
		coordinators = append(coordinators, toApplicationCoordinator(model))
	}
	return coordinators, nil
}

// assignmentStoreAdapter serves both as the submission sink and as the
// reader behind the coordinator facility listing.
type assignmentStoreAdapter struct {
	repo persistence.AssignmentRepository
}

func newAssignmentStoreAdapter(repo persistence.AssignmentRepository) *assignmentStoreAdapter {
	return &assignmentStoreAdapter{repo: repo}
}

func (a *assignmentStoreAdapter) SaveAssignment(ctx context.Context, record application.AssignmentRecord) error {
	return a.repo.CreateAssignment(ctx, toPersistenceAssignment(record))
}

func (a *assignmentStoreAdapter) GetAssignmentByCoordinator(ctx context.Context, coordinatorID int64) (application.AssignmentRecord, error) {
	model, err := a.repo.GetAssignmentByCoordinator(ctx, coordinatorID)
	if err != nil {
		return application.AssignmentRecord{}, err
	}
	return toApplicationRecord(model)
}

func toApplicationFacility(model persistence.Facility) application.Facility {
	return application.Facility{ID: model.ID, Name: model.Name, Location: model.Location}
}

func toApplicationCoordinator(model persistence.Coordinator) application.Coordinator {
	return application.Coordinator{ID: model.ID, Name: model.Name, Email: model.Email, Phone: model.Phone}
}

func toPersistenceAssignment(record application.AssignmentRecord) persistence.Assignment {
	model := persistence.Assignment{
		ID:            record.ID,
		CoordinatorID: record.CoordinatorID,
		FacilityIDs:   append([]int64(nil), record.FacilityIDs...),
		CreatedAt:     record.CreatedAt,
	}
	for _, facilityID := range record.FacilityIDs {
		for _, entry := range record.Schedules[facilityID] {
			model.Entries = append(model.Entries, persistence.ScheduleEntry{
				FacilityID:  facilityID,
				EntryID:     entry.ID,
				Day:         string(entry.Day),
				StartMinute: int(entry.Start),
				EndMinute:   int(entry.End),
			})
		}
	}
	return model
}

func toApplicationRecord(model persistence.Assignment) (application.AssignmentRecord, error) {
	record := application.AssignmentRecord{
		ID:            model.ID,
		CoordinatorID: model.CoordinatorID,
		FacilityIDs:   append([]int64(nil), model.FacilityIDs...),
		Schedules:     make(map[int64][]scheduler.Entry, len(model.FacilityIDs)),
		CreatedAt:     model.CreatedAt,
	}
	for _, stored := range model.Entries {
		day, err := scheduler.ParseWeekDay(stored.Day)
		if err != nil {
			return application.AssignmentRecord{}, fmt.Errorf("assignment %s entry %d: %w", model.ID, stored.EntryID, err)
		}
		record.Schedules[stored.FacilityID] = append(record.Schedules[stored.FacilityID], scheduler.Entry{
			ID:    stored.EntryID,
			Day:   day,
			Start: scheduler.TimeSlot(stored.StartMinute),
			End:   scheduler.TimeSlot(stored.EndMinute),
		})
	}
	for _, entries := range record.Schedules {
		scheduler.SortEntries(entries)
	}
	return record, nil
}

var (
	_ application.FacilityCatalog      = (*facilityCatalogAdapter)(nil)
	_ application.FacilityStatusSource = (*facilityStatusAdapter)(nil)
	_ application.CoordinatorDirectory = (*coordinatorDirectoryAdapter)(nil)
	_ application.AssignmentSink       = (*assignmentStoreAdapter)(nil)
	_ application.AssignmentReader     = (*assignmentStoreAdapter)(nil)
)
