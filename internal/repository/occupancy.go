package repository

import (
	"context"
	"time"

	"parking/internal/domain"
)

// OccupancyRepository defines the persistence operations for occupancies.
type OccupancyRepository interface {
	// Create persists a new occupancy.
	Create(ctx context.Context, occ *domain.Occupancy) error

	// GetByID retrieves an occupancy by ID.
	GetByID(ctx context.Context, id string) (*domain.Occupancy, error)

	// UpdateStatusIf writes occ only while the stored row still has status
	// from, reporting whether the write happened. Concurrent writers racing
	// on the same occupancy resolve to a single winner.
	UpdateStatusIf(ctx context.Context, occ *domain.Occupancy, from domain.OccupancyStatus) (bool, error)

	// ListActive retrieves occupancies with status ACTIVE, optionally
	// restricted to one lot.
	ListActive(ctx context.Context, lotID string) ([]*domain.Occupancy, error)

	// ListByUser retrieves a user's occupancies ordered by entry time ascending.
	ListByUser(ctx context.Context, userID string) ([]*domain.Occupancy, error)

	// ListByVehicle retrieves a vehicle's occupancies ordered by entry time ascending.
	ListByVehicle(ctx context.Context, vehicleID string) ([]*domain.Occupancy, error)

	// ListStaleReserved retrieves RESERVED occupancies created before cutoff.
	ListStaleReserved(ctx context.Context, cutoff time.Time) ([]*domain.Occupancy, error)
}
