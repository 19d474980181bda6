package postgres

import (
	"context"
	"database/sql"
	"errors"

	"parking/internal/domain"
	"parking/internal/repository"
)

// LotRepository is a PostgreSQL implementation of repository.LotRepository.
type LotRepository struct {
	q Querier
}

// NewLotRepository creates a new PostgreSQL lot repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{q: db}
}

// Create persists a new lot.
func (r *LotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	query := `
		INSERT INTO parking_lots (id, name, location, capacity, base_rate, geo_location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var geoLocation sql.NullString
	if lot.GeoLocation != "" {
		geoLocation = sql.NullString{String: lot.GeoLocation, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		lot.ID,
		lot.Name,
		lot.Location,
		lot.Capacity,
		lot.BaseRate,
		geoLocation,
		lot.CreatedAt,
	)

	return err
}

// GetByID retrieves a lot by ID.
func (r *LotRepository) GetByID(ctx context.Context, id string) (*domain.Lot, error) {
	query := `
		SELECT id, name, location, capacity, base_rate, geo_location, created_at
		FROM parking_lots WHERE id = $1
	`

	var lot domain.Lot
	var geoLocation sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&lot.ID,
		&lot.Name,
		&lot.Location,
		&lot.Capacity,
		&lot.BaseRate,
		&geoLocation,
		&lot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if geoLocation.Valid {
		lot.GeoLocation = geoLocation.String
	}

	return &lot, nil
}

// GetAll retrieves all lots.
func (r *LotRepository) GetAll(ctx context.Context) ([]*domain.Lot, error) {
	query := `
		SELECT id, name, location, capacity, base_rate, geo_location, created_at
		FROM parking_lots ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		var lot domain.Lot
		var geoLocation sql.NullString
		if err := rows.Scan(
			&lot.ID,
			&lot.Name,
			&lot.Location,
			&lot.Capacity,
			&lot.BaseRate,
			&geoLocation,
			&lot.CreatedAt,
		); err != nil {
			return nil, err
		}
		if geoLocation.Valid {
			lot.GeoLocation = geoLocation.String
		}
		lots = append(lots, &lot)
	}
	return lots, rows.Err()
}

// Update updates an existing lot.
func (r *LotRepository) Update(ctx context.Context, lot *domain.Lot) error {
	query := `
		UPDATE parking_lots
		SET name = $1, location = $2, capacity = $3, base_rate = $4, geo_location = $5
		WHERE id = $6
	`

	var geoLocation sql.NullString
	if lot.GeoLocation != "" {
		geoLocation = sql.NullString{String: lot.GeoLocation, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		lot.Name,
		lot.Location,
		lot.Capacity,
		lot.BaseRate,
		geoLocation,
		lot.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
