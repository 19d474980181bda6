package domain

import "time"

// PaymentStatus represents the payment status of a bill.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Bill represents the charge generated from a completed occupancy.
// Amount is immutable once the bill is created.
type Bill struct {
	ID          string
	OccupancyID string
	Amount      float64
	Status      PaymentStatus
	NeedsReview bool // Set when entry/exit timestamps were inconsistent.
	CreatedAt   time.Time
	PaymentTime time.Time
}
