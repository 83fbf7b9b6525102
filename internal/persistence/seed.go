package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Dataset is a bundle of catalog records loaded at startup.
type Dataset struct {
	Facilities   []Facility
	Statuses     []FacilityStatus
	Coordinators []Coordinator
	Assignments  []Assignment
}

// SeedData returns the municipal catalog used for local runs and demos. All
// timestamps are derived from reference.
func SeedData(reference time.Time) Dataset {
	reference = reference.UTC()
	visit := func(year int, month time.Month, day int) *time.Time {
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return &t
	}

	facilities := []Facility{
		{ID: 1, Name: "Cancha de Fútbol (Grass)", Location: "Parque Juan Pablo II"},
		{ID: 2, Name: "Piscina Municipal", Location: "Complejo Deportivo Municipal"},
		{ID: 3, Name: "Gimnasio Municipal", Location: "Complejo Deportivo Municipal"},
		{ID: 4, Name: "Pista de Atletismo", Location: "Complejo Deportivo Municipal"},
		{ID: 5, Name: "Cancha de Tenis", Location: "Parque Juan Pablo II"},
		{ID: 6, Name: "Cancha de Básquetbol", Location: "Parque Juan Pablo II"},
		{ID: 7, Name: "Cancha de Voleibol", Location: "Complejo Deportivo Municipal"},
		{ID: 8, Name: "Sala de Artes Marciales", Location: "Gimnasio Municipal"},
	}
	for i := range facilities {
		facilities[i].CreatedAt = reference
		facilities[i].UpdatedAt = reference
	}

	statuses := []FacilityStatus{
		{FacilityID: 1, Status: "buen-estado", LastVisitAt: visit(2025, time.April, 1), Observations: 2, PendingObservations: 1},
		{FacilityID: 2, Status: "requiere-atencion", LastVisitAt: visit(2025, time.April, 2), Observations: 3, PendingObservations: 1},
		{FacilityID: 3, Status: "buen-estado", LastVisitAt: visit(2025, time.March, 31), Observations: 1},
		{FacilityID: 4, Status: "mantenimiento-requerido", LastVisitAt: visit(2025, time.March, 30), Observations: 4, PendingObservations: 1},
		{FacilityID: 5, Status: "en-mantenimiento", LastVisitAt: visit(2025, time.March, 29), Observations: 2},
		{FacilityID: 6, Status: "buen-estado"},
		{FacilityID: 7, Status: "buen-estado"},
		{FacilityID: 8, Status: "buen-estado"},
	}
	for i := range statuses {
		statuses[i].UpdatedAt = reference
	}

	coordinators := []Coordinator{
		{ID: 1, Name: "Carlos Mendoza", Email: "carlos.mendoza@example.com", Phone: "987-654-321"},
		{ID: 2, Name: "Lucía Fernández", Email: "lucia.fernandez@example.com", Phone: "987-654-322"},
		{ID: 3, Name: "Jorge Ramírez", Email: "jorge.ramirez@example.com", Phone: "987-654-323"},
		{ID: 4, Name: "Ana Martínez", Email: "ana.martinez@example.com", Phone: "987-654-324"},
		{ID: 5, Name: "Pedro Sánchez", Email: "pedro.sanchez@example.com", Phone: "987-654-325"},
	}
	for i := range coordinators {
		coordinators[i].CreatedAt = reference
	}

	entry := func(facilityID, entryID int64, day string, start, end int) ScheduleEntry {
		return ScheduleEntry{FacilityID: facilityID, EntryID: entryID, Day: day, StartMinute: start, EndMinute: end}
	}
	assignments := []Assignment{
		{
			ID:            "seed-coordinator-1",
			CoordinatorID: 1,
			FacilityIDs:   []int64{1, 2, 3, 4, 5},
			Entries: []ScheduleEntry{
				entry(1, 1, "saturday", 14*60, 16*60),
				entry(2, 2, "saturday", 16*60+30, 18*60),
				entry(3, 3, "sunday", 9*60, 11*60),
				entry(4, 4, "sunday", 11*60+30, 13*60),
				entry(5, 5, "wednesday", 10*60, 12*60),
			},
			CreatedAt: reference,
		},
		{
			ID:            "seed-coordinator-2",
			CoordinatorID: 2,
			FacilityIDs:   []int64{6, 7},
			Entries: []ScheduleEntry{
				entry(6, 1, "monday", 8*60, 10*60),
				entry(7, 2, "monday", 10*60, 12*60),
				entry(7, 3, "thursday", 17*60, 19*60),
			},
			CreatedAt: reference,
		},
		{
			ID:            "seed-coordinator-3",
			CoordinatorID: 3,
			FacilityIDs:   []int64{8},
			Entries:       []ScheduleEntry{entry(8, 1, "tuesday", 18*60, 21*60)},
			CreatedAt:     reference,
		},
	}

	return Dataset{Facilities: facilities, Statuses: statuses, Coordinators: coordinators, Assignments: assignments}
}

// Seed writes data into store. Records that already exist are left as they
// are, so seeding an already seeded store is a no-op.
func Seed(ctx context.Context, store Store, data Dataset) error {
	for _, facility := range data.Facilities {
		if err := store.CreateFacility(ctx, facility); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed facility %d: %w", facility.ID, err)
		}
	}
	for _, status := range data.Statuses {
		if _, err := store.GetFacilityStatus(ctx, status.FacilityID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("seed status %d: %w", status.FacilityID, err)
		}
		if err := store.UpsertFacilityStatus(ctx, status); err != nil {
			return fmt.Errorf("seed status %d: %w", status.FacilityID, err)
		}
	}
	for _, coordinator := range data.Coordinators {
		if err := store.CreateCoordinator(ctx, coordinator); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed coordinator %d: %w", coordinator.ID, err)
		}
	}
	for _, assignment := range data.Assignments {
		if err := store.CreateAssignment(ctx, assignment); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed assignment %s: %w", assignment.ID, err)
		}
	}
	return nil
}
