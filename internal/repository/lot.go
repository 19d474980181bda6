package repository

import (
	"context"

	"parking/internal/domain"
)

// LotRepository defines the persistence operations for parking lots.
type LotRepository interface {
	// Create persists a new lot.
	Create(ctx context.Context, lot *domain.Lot) error

	// GetByID retrieves a lot by ID.
	GetByID(ctx context.Context, id string) (*domain.Lot, error)

	// GetAll retrieves all lots.
	GetAll(ctx context.Context) ([]*domain.Lot, error)

	// Update updates an existing lot.
	Update(ctx context.Context, lot *domain.Lot) error
}
