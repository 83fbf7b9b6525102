package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/facility-coordinator/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository. An
// assignment spans three tables and is written in one transaction.
type AssignmentRepository struct {
	pool   *ConnectionPool
	mapper ErrorMapper
}

// NewAssignmentRepository creates an assignment repository on pool.
func NewAssignmentRepository(pool *ConnectionPool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// CreateAssignment stores the assignment with its facilities and entries.
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	if assignment.ID == "" || len(assignment.FacilityIDs) == 0 {
		return persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (id, coordinator_id, created_at) VALUES (?, ?, ?)`,
			assignment.ID, assignment.CoordinatorID, formatTime(assignment.CreatedAt),
		); err != nil {
			return err
		}

		for position, facilityID := range assignment.FacilityIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assignment_facilities (assignment_id, facility_id, position) VALUES (?, ?, ?)`,
				assignment.ID, facilityID, position,
			); err != nil {
				return err
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO schedule_entries (assignment_id, facility_id, entry_id, day, start_minute, end_minute)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, entry := range assignment.Entries {
			if _, err := stmt.ExecContext(ctx,
				assignment.ID, entry.FacilityID, entry.EntryID, entry.Day, entry.StartMinute, entry.EndMinute,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return r.mapper.MapError(err)
}

// GetAssignment returns the assignment with id.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	return r.getWhere(ctx, `id = ?`, id)
}

// GetAssignmentByCoordinator returns the assignment held by coordinatorID.
func (r *AssignmentRepository) GetAssignmentByCoordinator(ctx context.Context, coordinatorID int64) (persistence.Assignment, error) {
	return r.getWhere(ctx, `coordinator_id = ?`, coordinatorID)
}

// ListAssignments returns every assignment ordered by creation time.
func (r *AssignmentRepository) ListAssignments(ctx context.Context) ([]persistence.Assignment, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT id FROM assignments ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, r.mapper.MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, r.mapper.MapError(err)
	}
	rows.Close()

	assignments := make([]persistence.Assignment, 0, len(ids))
	for _, id := range ids {
		assignment, err := r.GetAssignment(ctx, id)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

func (r *AssignmentRepository) getWhere(ctx context.Context, where string, arg any) (persistence.Assignment, error) {
	var (
		assignment persistence.Assignment
		createdAt  string
	)
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, coordinator_id, created_at FROM assignments WHERE `+where, arg,
	).Scan(&assignment.ID, &assignment.CoordinatorID, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return persistence.Assignment{}, persistence.ErrNotFound
		}
		return persistence.Assignment{}, r.mapper.MapError(err)
	}
	if assignment.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Assignment{}, err
	}

	if assignment.FacilityIDs, err = r.facilityIDs(ctx, assignment.ID); err != nil {
		return persistence.Assignment{}, err
	}
	if assignment.Entries, err = r.entries(ctx, assignment.ID); err != nil {
		return persistence.Assignment{}, err
	}
	return assignment, nil
}

func (r *AssignmentRepository) facilityIDs(ctx context.Context, assignmentID string) ([]int64, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT facility_id FROM assignment_facilities
		WHERE assignment_id = ?
		ORDER BY position ASC`, assignmentID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assignment facilities: %w", err)
	}
	return ids, nil
}

func (r *AssignmentRepository) entries(ctx context.Context, assignmentID string) ([]persistence.ScheduleEntry, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT facility_id, entry_id, day, start_minute, end_minute
		FROM schedule_entries
		WHERE assignment_id = ?
		ORDER BY entry_id ASC, facility_id ASC`, assignmentID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.ScheduleEntry
	for rows.Next() {
		var entry persistence.ScheduleEntry
		if err := rows.Scan(&entry.FacilityID, &entry.EntryID, &entry.Day, &entry.StartMinute, &entry.EndMinute); err != nil {
			return nil, r.mapper.MapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}
