package repository

import (
	"context"

	"parking/internal/domain"
)

// SpaceFilter narrows space queries. Zero values mean "any".
type SpaceFilter struct {
	LotID        string
	VehicleClass domain.VehicleClass
}

// SpaceRepository defines the persistence operations for parking spaces.
type SpaceRepository interface {
	// Create adds a new space.
	Create(ctx context.Context, space *domain.Space) error

	// GetByID retrieves a space by ID.
	GetByID(ctx context.Context, id string) (*domain.Space, error)

	// ListAvailable retrieves unoccupied spaces matching the filter.
	ListAvailable(ctx context.Context, filter SpaceFilter) ([]*domain.Space, error)

	// CompareAndSetState transitions a space to the target state only if its
	// current state is one of from. Returns false (and no error) when the
	// space is in none of the from states; this is the single-winner
	// primitive all state transitions go through.
	CompareAndSetState(ctx context.Context, id string, from []domain.SpaceState, to domain.SpaceState) (bool, error)

	// CountAvailableByClass counts unoccupied spaces in a lot per vehicle class.
	CountAvailableByClass(ctx context.Context, lotID string) (map[domain.VehicleClass]int, error)
}
