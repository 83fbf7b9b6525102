package sqlite

import (
	"context"

	"github.com/example/facility-coordinator/internal/persistence"
)

// CoordinatorRepository implements persistence.CoordinatorRepository.
type CoordinatorRepository struct {
	pool   *ConnectionPool
	mapper ErrorMapper
}

// NewCoordinatorRepository creates a coordinator repository on pool.
func NewCoordinatorRepository(pool *ConnectionPool) *CoordinatorRepository {
	return &CoordinatorRepository{pool: pool}
}

// CreateCoordinator inserts a coordinator. Emails are unique.
func (r *CoordinatorRepository) CreateCoordinator(ctx context.Context, coordinator persistence.Coordinator) error {
	if coordinator.ID <= 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO coordinators (id, name, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		coordinator.ID,
		coordinator.Name,
		coordinator.Email,
		coordinator.Phone,
		formatTime(coordinator.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetCoordinator returns the coordinator with id.
func (r *CoordinatorRepository) GetCoordinator(ctx context.Context, id int64) (persistence.Coordinator, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at
		FROM coordinators
		WHERE id = ?`, id)
	coordinator, err := scanCoordinator(row)
	if err != nil {
		return persistence.Coordinator{}, r.mapper.MapError(err)
	}
	return coordinator, nil
}

// ListCoordinators returns every coordinator ordered by id.
func (r *CoordinatorRepository) ListCoordinators(ctx context.Context) ([]persistence.Coordinator, error) {
	return r.list(ctx, `
		SELECT id, name, email, phone, created_at
		FROM coordinators
		ORDER BY id ASC`)
}

// ListUnassignedCoordinators returns coordinators with no stored assignment.
func (r *CoordinatorRepository) ListUnassignedCoordinators(ctx context.Context) ([]persistence.Coordinator, error) {
	return r.list(ctx, `
		SELECT c.id, c.name, c.email, c.phone, c.created_at
		FROM coordinators c
		LEFT JOIN assignments a ON a.coordinator_id = c.id
		WHERE a.id IS NULL
		ORDER BY c.id ASC`)
}

func (r *CoordinatorRepository) list(ctx context.Context, query string) ([]persistence.Coordinator, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var coordinators []persistence.Coordinator
	for rows.Next() {
		coordinator, err := scanCoordinator(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		coordinators = append(coordinators, coordinator)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return coordinators, nil
}

func scanCoordinator(row rowScanner) (persistence.Coordinator, error) {
	var (
		coordinator persistence.Coordinator
		createdAt   string
	)
	if err := row.Scan(&coordinator.ID, &coordinator.Name, &coordinator.Email, &coordinator.Phone, &createdAt); err != nil {
		return persistence.Coordinator{}, err
	}
	var err error
	if coordinator.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Coordinator{}, err
	}
	return coordinator, nil
}
