package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"parking/internal/domain"
	"parking/internal/repository"
)

// BillingService computes charges for completed occupancies and settles
// bills. It never mutates occupancies or spaces.
type BillingService struct {
	billRepo      repository.BillRepository
	occupancyRepo repository.OccupancyRepository
	notifier      *NotificationService
}

// NewBillingService creates a new BillingService.
func NewBillingService(billRepo repository.BillRepository, occupancyRepo repository.OccupancyRepository, notifier *NotificationService) *BillingService {
	return &BillingService{
		billRepo:      billRepo,
		occupancyRepo: occupancyRepo,
		notifier:      notifier,
	}
}

// BuildBill computes the bill for a stay ending at exitTime. Partial hours
// round up, with a minimum of one billable hour. A negative duration (clock
// skew between entry and exit) is clamped to zero and the bill flagged for
// manual review instead of producing a negative amount.
func (s *BillingService) BuildBill(occ *domain.Occupancy, space *domain.Space, lot *domain.Lot, exitTime time.Time) *domain.Bill {
	duration := exitTime.Sub(occ.EntryTime)

	needsReview := false
	if duration < 0 {
		duration = 0
		needsReview = true
	}

	hours := math.Ceil(duration.Hours())
	if hours < 1 {
		hours = 1
	}

	return &domain.Bill{
		ID:          uuid.New().String(),
		OccupancyID: occ.ID,
		Amount:      hours * (lot.BaseRate + space.ExtraCharge),
		Status:      domain.PaymentStatusPending,
		NeedsReview: needsReview,
		CreatedAt:   time.Now(),
	}
}

// PayBill settles a pending bill. Bills are immutable once paid: a second
// payment attempt fails with ErrAlreadyPaid.
func (s *BillingService) PayBill(ctx context.Context, billID string, paymentTime time.Time) (*domain.Bill, error) {
	if billID == "" {
		return nil, ErrInvalidBillID
	}
	if paymentTime.IsZero() {
		paymentTime = time.Now()
	}

	ok, err := s.billRepo.MarkPaid(ctx, billID, paymentTime)
	if err != nil {
		return nil, err
	}

	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAlreadyPaid
	}

	if s.notifier != nil {
		recipientID := ""
		if occ, err := s.occupancyRepo.GetByID(ctx, bill.OccupancyID); err == nil {
			recipientID = occ.UserID
		}
		_ = s.notifier.NotifyBillPaid(ctx, bill, recipientID)
	}

	return bill, nil
}

// GetBill retrieves a bill by ID.
func (s *BillingService) GetBill(ctx context.Context, billID string) (*domain.Bill, error) {
	if billID == "" {
		return nil, ErrInvalidBillID
	}

	return s.billRepo.GetByID(ctx, billID)
}
