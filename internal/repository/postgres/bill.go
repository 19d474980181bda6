package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parking/internal/domain"
	"parking/internal/repository"
)

// BillRepository is a PostgreSQL implementation of repository.BillRepository.
type BillRepository struct {
	q Querier
}

// NewBillRepository creates a new PostgreSQL bill repository.
func NewBillRepository(db *sql.DB) *BillRepository {
	return &BillRepository{q: db}
}

// NewBillRepositoryWithTx creates a bill repository using a transaction.
func NewBillRepositoryWithTx(tx *sql.Tx) *BillRepository {
	return &BillRepository{q: tx}
}

// Create persists a new bill.
func (r *BillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	query := `
		INSERT INTO bills (id, occupancy_id, amount, payment_status, needs_review, created_at, payment_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		bill.ID,
		bill.OccupancyID,
		bill.Amount,
		bill.Status,
		bill.NeedsReview,
		bill.CreatedAt,
		nullTime(bill.PaymentTime),
	)

	return err
}

// GetByID retrieves a bill by ID.
func (r *BillRepository) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	query := `
		SELECT id, occupancy_id, amount, payment_status, needs_review, created_at, payment_time
		FROM bills WHERE id = $1
	`

	return r.get(ctx, query, id)
}

// GetByOccupancyID retrieves the bill for an occupancy, or nil if none exists.
func (r *BillRepository) GetByOccupancyID(ctx context.Context, occupancyID string) (*domain.Bill, error) {
	query := `
		SELECT id, occupancy_id, amount, payment_status, needs_review, created_at, payment_time
		FROM bills WHERE occupancy_id = $1
	`

	bill, err := r.get(ctx, query, occupancyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return bill, err
}

// MarkPaid transitions a bill from PENDING to PAID. The conditional UPDATE
// keeps paid bills immutable under concurrent payment attempts.
func (r *BillRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE bills
		SET payment_status = $1, payment_time = $2
		WHERE id = $3 AND payment_status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.PaymentStatusPaid,
		paidAt,
		id,
		domain.PaymentStatusPending,
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

func (r *BillRepository) get(ctx context.Context, query string, arg any) (*domain.Bill, error) {
	var bill domain.Bill
	var paymentTime sql.NullTime

	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&bill.ID,
		&bill.OccupancyID,
		&bill.Amount,
		&bill.Status,
		&bill.NeedsReview,
		&bill.CreatedAt,
		&paymentTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if paymentTime.Valid {
		bill.PaymentTime = paymentTime.Time
	}

	return &bill, nil
}
