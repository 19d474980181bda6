package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parking/internal/domain"
	"parking/internal/repository"
)

// OccupancyRepository is a PostgreSQL implementation of repository.OccupancyRepository.
type OccupancyRepository struct {
	q Querier
}

// NewOccupancyRepository creates a new PostgreSQL occupancy repository.
func NewOccupancyRepository(db *sql.DB) *OccupancyRepository {
	return &OccupancyRepository{q: db}
}

// NewOccupancyRepositoryWithTx creates an occupancy repository using a transaction.
func NewOccupancyRepositoryWithTx(tx *sql.Tx) *OccupancyRepository {
	return &OccupancyRepository{q: tx}
}

// Create persists a new occupancy.
func (r *OccupancyRepository) Create(ctx context.Context, occ *domain.Occupancy) error {
	query := `
		INSERT INTO occupancies (id, space_id, user_id, vehicle_id, status, entry_time, exit_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		occ.ID,
		occ.SpaceID,
		occ.UserID,
		nullString(occ.VehicleID),
		occ.Status,
		nullTime(occ.EntryTime),
		nullTime(occ.ExitTime),
		occ.CreatedAt,
	)

	return err
}

// GetByID retrieves an occupancy by ID.
func (r *OccupancyRepository) GetByID(ctx context.Context, id string) (*domain.Occupancy, error) {
	query := `
		SELECT id, space_id, user_id, vehicle_id, status, entry_time, exit_time, created_at
		FROM occupancies WHERE id = $1
	`

	occ, err := scanOccupancy(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return occ, nil
}

// UpdateStatusIf updates an occupancy only while its stored status is still
// from. The conditional UPDATE makes the status transition single-winner
// under concurrent callers, the same shape as the space compare-and-swap.
func (r *OccupancyRepository) UpdateStatusIf(ctx context.Context, occ *domain.Occupancy, from domain.OccupancyStatus) (bool, error) {
	query := `
		UPDATE occupancies
		SET space_id = $1, user_id = $2, vehicle_id = $3, status = $4, entry_time = $5, exit_time = $6
		WHERE id = $7 AND status = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		occ.SpaceID,
		occ.UserID,
		nullString(occ.VehicleID),
		occ.Status,
		nullTime(occ.EntryTime),
		nullTime(occ.ExitTime),
		occ.ID,
		from,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// ListActive retrieves occupancies with status ACTIVE, optionally for one lot.
func (r *OccupancyRepository) ListActive(ctx context.Context, lotID string) ([]*domain.Occupancy, error) {
	query := `
		SELECT o.id, o.space_id, o.user_id, o.vehicle_id, o.status, o.entry_time, o.exit_time, o.created_at
		FROM occupancies o
		JOIN parking_spaces s ON s.id = o.space_id
		WHERE o.status = $1 AND ($2 = '' OR s.lot_id = $2)
		ORDER BY o.entry_time
	`

	return r.list(ctx, query, domain.OccupancyStatusActive, lotID)
}

// ListByUser retrieves a user's occupancies ordered by entry time ascending.
func (r *OccupancyRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Occupancy, error) {
	query := `
		SELECT id, space_id, user_id, vehicle_id, status, entry_time, exit_time, created_at
		FROM occupancies WHERE user_id = $1
		ORDER BY entry_time
	`

	return r.list(ctx, query, userID)
}

// ListByVehicle retrieves a vehicle's occupancies ordered by entry time ascending.
func (r *OccupancyRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]*domain.Occupancy, error) {
	query := `
		SELECT id, space_id, user_id, vehicle_id, status, entry_time, exit_time, created_at
		FROM occupancies WHERE vehicle_id = $1
		ORDER BY entry_time
	`

	return r.list(ctx, query, vehicleID)
}

// ListStaleReserved retrieves RESERVED occupancies created before cutoff.
func (r *OccupancyRepository) ListStaleReserved(ctx context.Context, cutoff time.Time) ([]*domain.Occupancy, error) {
	query := `
		SELECT id, space_id, user_id, vehicle_id, status, entry_time, exit_time, created_at
		FROM occupancies WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`

	return r.list(ctx, query, domain.OccupancyStatusReserved, cutoff)
}

func (r *OccupancyRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Occupancy, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occupancies []*domain.Occupancy
	for rows.Next() {
		occ, err := scanOccupancy(rows)
		if err != nil {
			return nil, err
		}
		occupancies = append(occupancies, occ)
	}
	return occupancies, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOccupancy(s scanner) (*domain.Occupancy, error) {
	var occ domain.Occupancy
	var vehicleID sql.NullString
	var entryTime, exitTime sql.NullTime

	if err := s.Scan(
		&occ.ID,
		&occ.SpaceID,
		&occ.UserID,
		&vehicleID,
		&occ.Status,
		&entryTime,
		&exitTime,
		&occ.CreatedAt,
	); err != nil {
		return nil, err
	}

	if vehicleID.Valid {
		occ.VehicleID = vehicleID.String
	}
	if entryTime.Valid {
		occ.EntryTime = entryTime.Time
	}
	if exitTime.Valid {
		occ.ExitTime = exitTime.Time
	}

	return &occ, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
