package repository

import (
	"context"

	"parking/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByRegistration retrieves a vehicle by registration number.
	GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error)

	// ListByOwner retrieves all vehicles registered to a user.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Vehicle, error)
}
