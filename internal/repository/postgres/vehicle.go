package postgres

import (
	"context"
	"database/sql"
	"errors"

	"parking/internal/domain"
	"parking/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Create adds a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, registration, owner_id, vehicle_class, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Registration,
		nullString(vehicle.OwnerID),
		vehicle.VehicleClass,
		vehicle.CreatedAt,
	)

	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `
		SELECT id, registration, owner_id, vehicle_class, created_at
		FROM vehicles WHERE id = $1
	`

	return r.get(ctx, query, id)
}

// GetByRegistration retrieves a vehicle by registration number.
func (r *VehicleRepository) GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error) {
	query := `
		SELECT id, registration, owner_id, vehicle_class, created_at
		FROM vehicles WHERE registration = $1
	`

	return r.get(ctx, query, registration)
}

// ListByOwner retrieves all vehicles registered to a user.
func (r *VehicleRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, registration, owner_id, vehicle_class, created_at
		FROM vehicles WHERE owner_id = $1
		ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) get(ctx context.Context, query string, arg any) (*domain.Vehicle, error) {
	vehicle, err := scanVehicle(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return vehicle, nil
}

func scanVehicle(s scanner) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	var ownerID sql.NullString

	if err := s.Scan(
		&vehicle.ID,
		&vehicle.Registration,
		&ownerID,
		&vehicle.VehicleClass,
		&vehicle.CreatedAt,
	); err != nil {
		return nil, err
	}

	if ownerID.Valid {
		vehicle.OwnerID = ownerID.String
	}

	return &vehicle, nil
}
