package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/facility-coordinator/internal/persistence"
)

// FacilityRepository implements persistence.FacilityRepository and
// persistence.FacilityStatusRepository.
type FacilityRepository struct {
	pool   *ConnectionPool
	mapper ErrorMapper
}

// NewFacilityRepository creates a facility repository on pool.
func NewFacilityRepository(pool *ConnectionPool) *FacilityRepository {
	return &FacilityRepository{pool: pool}
}

// CreateFacility inserts a facility.
func (r *FacilityRepository) CreateFacility(ctx context.Context, facility persistence.Facility) error {
	if facility.ID <= 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO facilities (id, name, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		facility.ID,
		facility.Name,
		facility.Location,
		formatTime(facility.CreatedAt),
		formatTime(facility.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetFacility returns the facility with id.
func (r *FacilityRepository) GetFacility(ctx context.Context, id int64) (persistence.Facility, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, name, location, created_at, updated_at
		FROM facilities
		WHERE id = ?`, id)
	facility, err := scanFacility(row)
	if err != nil {
		return persistence.Facility{}, r.mapper.MapError(err)
	}
	return facility, nil
}

// ListFacilities returns every facility ordered by id.
func (r *FacilityRepository) ListFacilities(ctx context.Context) ([]persistence.Facility, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, name, location, created_at, updated_at
		FROM facilities
		ORDER BY id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var facilities []persistence.Facility
	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		facilities = append(facilities, facility)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return facilities, nil
}

// UpsertFacilityStatus inserts or replaces the status of a facility.
func (r *FacilityRepository) UpsertFacilityStatus(ctx context.Context, status persistence.FacilityStatus) error {
	var lastVisit sql.NullString
	if status.LastVisitAt != nil {
		lastVisit = sql.NullString{String: formatTime(*status.LastVisitAt), Valid: true}
	}
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO facility_status (facility_id, status, last_visit_at, observations, pending_observations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(facility_id) DO UPDATE SET
			status = excluded.status,
			last_visit_at = excluded.last_visit_at,
			observations = excluded.observations,
			pending_observations = excluded.pending_observations,
			updated_at = excluded.updated_at`,
		status.FacilityID,
		status.Status,
		lastVisit,
		status.Observations,
		status.PendingObservations,
		formatTime(status.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetFacilityStatus returns the status row of facilityID.
func (r *FacilityRepository) GetFacilityStatus(ctx context.Context, facilityID int64) (persistence.FacilityStatus, error) {
	var (
		status    persistence.FacilityStatus
		lastVisit sql.NullString
		updatedAt string
	)
	err := r.pool.DB().QueryRowContext(ctx, `
		SELECT facility_id, status, last_visit_at, observations, pending_observations, updated_at
		FROM facility_status
		WHERE facility_id = ?`, facilityID).Scan(
		&status.FacilityID,
		&status.Status,
		&lastVisit,
		&status.Observations,
		&status.PendingObservations,
		&updatedAt,
	)
	if err != nil {
		return persistence.FacilityStatus{}, r.mapper.MapError(err)
	}
	if lastVisit.Valid {
		t, err := parseTime("last_visit_at", lastVisit.String)
		if err != nil {
			return persistence.FacilityStatus{}, err
		}
		status.LastVisitAt = &t
	}
	if status.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.FacilityStatus{}, err
	}
	return status, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFacility(row rowScanner) (persistence.Facility, error) {
	var (
		facility             persistence.Facility
		createdAt, updatedAt string
	)
	if err := row.Scan(&facility.ID, &facility.Name, &facility.Location, &createdAt, &updatedAt); err != nil {
		return persistence.Facility{}, err
	}
	var err error
	if facility.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Facility{}, err
	}
	if facility.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Facility{}, err
	}
	return facility, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
