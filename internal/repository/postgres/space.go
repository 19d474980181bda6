package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"parking/internal/domain"
	"parking/internal/repository"
)

// SpaceRepository is a PostgreSQL implementation of repository.SpaceRepository.
type SpaceRepository struct {
	q Querier
}

// NewSpaceRepository creates a new PostgreSQL space repository.
func NewSpaceRepository(db *sql.DB) *SpaceRepository {
	return &SpaceRepository{q: db}
}

// NewSpaceRepositoryWithTx creates a space repository using a transaction.
func NewSpaceRepositoryWithTx(tx *sql.Tx) *SpaceRepository {
	return &SpaceRepository{q: tx}
}

// Create adds a new space.
func (r *SpaceRepository) Create(ctx context.Context, space *domain.Space) error {
	query := `
		INSERT INTO parking_spaces (id, lot_id, vehicle_class, state, extra_charge)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		space.ID,
		space.LotID,
		space.VehicleClass,
		space.State,
		space.ExtraCharge,
	)

	return err
}

// GetByID retrieves a space by ID.
func (r *SpaceRepository) GetByID(ctx context.Context, id string) (*domain.Space, error) {
	query := `
		SELECT id, lot_id, vehicle_class, state, extra_charge
		FROM parking_spaces WHERE id = $1
	`

	var space domain.Space
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&space.ID,
		&space.LotID,
		&space.VehicleClass,
		&space.State,
		&space.ExtraCharge,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &space, nil
}

// ListAvailable retrieves unoccupied spaces matching the filter.
func (r *SpaceRepository) ListAvailable(ctx context.Context, filter repository.SpaceFilter) ([]*domain.Space, error) {
	query := `
		SELECT id, lot_id, vehicle_class, state, extra_charge
		FROM parking_spaces
		WHERE state = $1
		  AND ($2 = '' OR lot_id = $2)
		  AND ($3 = '' OR vehicle_class = $3)
		ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query,
		domain.SpaceStateUnoccupied,
		filter.LotID,
		string(filter.VehicleClass),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []*domain.Space
	for rows.Next() {
		var space domain.Space
		if err := rows.Scan(
			&space.ID,
			&space.LotID,
			&space.VehicleClass,
			&space.State,
			&space.ExtraCharge,
		); err != nil {
			return nil, err
		}
		spaces = append(spaces, &space)
	}
	return spaces, rows.Err()
}

// CompareAndSetState transitions a space only if its current state matches.
// The conditional UPDATE makes concurrent transitions single-winner.
func (r *SpaceRepository) CompareAndSetState(ctx context.Context, id string, from []domain.SpaceState, to domain.SpaceState) (bool, error) {
	query := `
		UPDATE parking_spaces
		SET state = $1
		WHERE id = $2 AND state = ANY($3)
	`

	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	result, err := r.q.ExecContext(ctx, query, to, id, pq.Array(states))
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// CountAvailableByClass counts unoccupied spaces in a lot per vehicle class.
func (r *SpaceRepository) CountAvailableByClass(ctx context.Context, lotID string) (map[domain.VehicleClass]int, error) {
	query := `
		SELECT vehicle_class, COUNT(*)
		FROM parking_spaces
		WHERE lot_id = $1 AND state = $2
		GROUP BY vehicle_class
	`

	rows, err := r.q.QueryContext(ctx, query, lotID, domain.SpaceStateUnoccupied)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.VehicleClass]int)
	for rows.Next() {
		var class domain.VehicleClass
		var count int
		if err := rows.Scan(&class, &count); err != nil {
			return nil, err
		}
		counts[class] = count
	}
	return counts, rows.Err()
}
