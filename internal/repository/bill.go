package repository

import (
	"context"
	"time"

	"parking/internal/domain"
)

// BillRepository defines the persistence operations for bills.
type BillRepository interface {
	// Create persists a new bill.
	Create(ctx context.Context, bill *domain.Bill) error

	// GetByID retrieves a bill by ID.
	GetByID(ctx context.Context, id string) (*domain.Bill, error)

	// GetByOccupancyID retrieves the bill for an occupancy.
	// Returns nil if no bill exists yet.
	GetByOccupancyID(ctx context.Context, occupancyID string) (*domain.Bill, error)

	// MarkPaid transitions a bill from PENDING to PAID, recording the payment
	// time. Returns false (and no error) when the bill exists but is not
	// PENDING; bills are immutable once paid.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
}
