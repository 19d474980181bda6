package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"parking/internal/domain"
	"parking/internal/queue"
	"parking/internal/redis"
	"parking/internal/repository"
	"parking/internal/repository/postgres"
)

// LedgerService owns the occupancy lifecycle:
//
//	[none] --Reserve--> RESERVED --CheckIn--> ACTIVE --CheckOut--> COMPLETED
//	RESERVED --Cancel--> CANCELLED (space released)
//
// Space state and occupancy state are kept consistent by doing every space
// transition through the registry's compare-and-swap, every occupancy status
// transition through a conditional write on the prior status, and
// compensating when a follow-up write fails.
type LedgerService struct {
	db             *sql.DB // Optional; nil runs each step against the injected repositories directly.
	occupancyRepo  repository.OccupancyRepository
	spaceRepo      repository.SpaceRepository
	lotRepo        repository.LotRepository
	vehicleRepo    repository.VehicleRepository
	billRepo       repository.BillRepository
	registry       *RegistryService
	billingService *BillingService
	verification   *VerificationService
	cacheStore     *redis.CacheStore
	publisher      *queue.Publisher
	notifier       *NotificationService
	reservationTTL time.Duration
}

// NewLedgerService creates a new LedgerService. db, cacheStore, publisher and
// notifier may be nil. A reservationTTL of zero disables reservation expiry.
func NewLedgerService(
	db *sql.DB,
	occupancyRepo repository.OccupancyRepository,
	spaceRepo repository.SpaceRepository,
	lotRepo repository.LotRepository,
	vehicleRepo repository.VehicleRepository,
	billRepo repository.BillRepository,
	registry *RegistryService,
	billingService *BillingService,
	verification *VerificationService,
	cacheStore *redis.CacheStore,
	publisher *queue.Publisher,
	notifier *NotificationService,
	reservationTTL time.Duration,
) *LedgerService {
	return &LedgerService{
		db:             db,
		occupancyRepo:  occupancyRepo,
		spaceRepo:      spaceRepo,
		lotRepo:        lotRepo,
		vehicleRepo:    vehicleRepo,
		billRepo:       billRepo,
		registry:       registry,
		billingService: billingService,
		verification:   verification,
		cacheStore:     cacheStore,
		publisher:      publisher,
		notifier:       notifier,
		reservationTTL: reservationTTL,
	}
}

// Reserve holds a space for a user. The registry reserve must win first;
// losing the race surfaces as ErrSpaceUnavailable.
func (s *LedgerService) Reserve(ctx context.Context, spaceID, userID string) (*domain.Occupancy, error) {
	if spaceID == "" {
		return nil, ErrInvalidSpaceID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if err := s.registry.Reserve(ctx, spaceID); err != nil {
		if err == ErrSpaceConflict {
			return nil, ErrSpaceUnavailable
		}
		return nil, err
	}

	occ, err := s.recordReservation(ctx, spaceID, userID)
	if err != nil {
		// Give the space back rather than leaving it held with no occupancy.
		_ = s.registry.Release(ctx, spaceID)
		return nil, err
	}

	return occ, nil
}

// ReserveAllocated records the reservation for a space the allocator has
// already reserved. On failure the space is released.
func (s *LedgerService) ReserveAllocated(ctx context.Context, space *domain.Space, userID string) (*domain.Occupancy, error) {
	if userID == "" {
		_ = s.registry.Release(ctx, space.ID)
		return nil, ErrInvalidUserID
	}

	occ, err := s.recordReservation(ctx, space.ID, userID)
	if err != nil {
		_ = s.registry.Release(ctx, space.ID)
		return nil, err
	}

	return occ, nil
}

func (s *LedgerService) recordReservation(ctx context.Context, spaceID, userID string) (*domain.Occupancy, error) {
	occ := &domain.Occupancy{
		ID:        uuid.New().String(),
		SpaceID:   spaceID,
		UserID:    userID,
		Status:    domain.OccupancyStatusReserved,
		CreatedAt: time.Now(),
	}

	if err := s.occupancyRepo.Create(ctx, occ); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyReservationConfirmed(ctx, occ)
	}

	return occ, nil
}

// CheckInRequest contains the parameters for a check-in.
type CheckInRequest struct {
	OccupancyID  string
	Registration string // Vehicle registration; walk-ins are created on the fly.
}

// CheckIn promotes a reservation to an active stay: attaches the vehicle,
// stamps the entry time and moves the space to OCCUPIED.
func (s *LedgerService) CheckIn(ctx context.Context, req CheckInRequest) (*domain.Occupancy, error) {
	if req.OccupancyID == "" {
		return nil, ErrInvalidOccupancyID
	}
	if req.Registration == "" {
		return nil, ErrInvalidRegistration
	}

	occ, err := s.occupancyRepo.GetByID(ctx, req.OccupancyID)
	if err != nil {
		return nil, err
	}

	if occ.Status != domain.OccupancyStatusReserved {
		return nil, ErrInvalidTransition
	}

	space, err := s.spaceRepo.GetByID(ctx, occ.SpaceID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.resolveVehicle(ctx, req.Registration, occ.UserID, space.VehicleClass)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Occupy(ctx, occ.SpaceID); err != nil {
		return nil, err
	}

	occ.Status = domain.OccupancyStatusActive
	occ.VehicleID = vehicle.ID
	occ.EntryTime = time.Now()

	ok, err := s.occupancyRepo.UpdateStatusIf(ctx, occ, domain.OccupancyStatusReserved)
	if err == nil && !ok {
		// A concurrent cancel or expiry claimed the reservation first.
		err = ErrInvalidTransition
	}
	if err != nil {
		// Put the space back in RESERVED so a surviving reservation stays
		// usable. When a cancel won it has already released the space and
		// this swap is a no-op.
		_, _ = s.spaceRepo.CompareAndSetState(ctx, occ.SpaceID,
			[]domain.SpaceState{domain.SpaceStateOccupied}, domain.SpaceStateReserved)
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyCheckedIn(ctx, occ)
	}

	return occ, nil
}

// resolveVehicle finds a vehicle by registration, creating a walk-in record
// when none exists.
func (s *LedgerService) resolveVehicle(ctx context.Context, registration, userID string, class domain.VehicleClass) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByRegistration(ctx, registration)
	if err == nil {
		return vehicle, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	vehicle = &domain.Vehicle{
		ID:           uuid.New().String(),
		Registration: registration,
		OwnerID:      userID,
		VehicleClass: class,
		CreatedAt:    time.Now(),
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	return vehicle, nil
}

// CheckOutResponse contains the result of a checkout.
type CheckOutResponse struct {
	Occupancy *domain.Occupancy
	Bill      *domain.Bill
}

// CheckOut closes an active stay. The exit verification checklist must be
// complete; otherwise the call fails with ErrVerificationIncomplete and no
// state changes. On success the occupancy is completed, exactly one bill is
// created and the space returns to UNOCCUPIED. Concurrent checkouts of the
// same occupancy resolve to one winner; the rest get ErrInvalidTransition.
func (s *LedgerService) CheckOut(ctx context.Context, occupancyID string) (*CheckOutResponse, error) {
	if occupancyID == "" {
		return nil, ErrInvalidOccupancyID
	}

	occ, err := s.occupancyRepo.GetByID(ctx, occupancyID)
	if err != nil {
		return nil, err
	}

	if occ.Status != domain.OccupancyStatusActive {
		return nil, ErrInvalidTransition
	}

	complete, err := s.verification.IsComplete(ctx, occupancyID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrVerificationIncomplete
	}

	space, err := s.spaceRepo.GetByID(ctx, occ.SpaceID)
	if err != nil {
		return nil, err
	}

	lot, err := s.lotByID(ctx, space.LotID)
	if err != nil {
		return nil, err
	}

	exitTime := time.Now()
	bill := s.billingService.BuildBill(occ, space, lot, exitTime)

	occ.Status = domain.OccupancyStatusCompleted
	occ.ExitTime = exitTime

	if err := s.commitCheckOut(ctx, occ, bill); err != nil {
		return nil, err
	}

	// Terminal state: the checklist is discarded.
	_ = s.verification.Clear(ctx, occupancyID)

	// The bill is committed; a release failure leaves the space stuck for
	// operator attention but must not fail the checkout.
	_ = s.registry.Release(ctx, occ.SpaceID)

	s.publishCheckout(occ, space, bill)

	if s.notifier != nil {
		_ = s.notifier.NotifyCheckedOut(ctx, occ, bill)
	}

	return &CheckOutResponse{Occupancy: occ, Bill: bill}, nil
}

// commitCheckOut writes the completed occupancy and its bill, atomically
// when a database handle is configured.
func (s *LedgerService) commitCheckOut(ctx context.Context, occ *domain.Occupancy, bill *domain.Bill) (err error) {
	occRepo, billRepo := s.occupancyRepo, s.billRepo

	var tx *sql.Tx
	if s.db != nil {
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		occRepo = postgres.NewOccupancyRepositoryWithTx(tx)
		billRepo = postgres.NewBillRepositoryWithTx(tx)
	}

	// Conditional on the row still being ACTIVE: of two concurrent
	// checkouts exactly one commits, so exactly one bill exists.
	ok, casErr := occRepo.UpdateStatusIf(ctx, occ, domain.OccupancyStatusActive)
	if casErr != nil {
		err = casErr
		return err
	}
	if !ok {
		err = ErrInvalidTransition
		return err
	}

	if err = billRepo.Create(ctx, bill); err != nil {
		return err
	}

	if tx != nil {
		err = tx.Commit()
	}
	return err
}

// publishCheckout emits the checkout event after the state change committed.
func (s *LedgerService) publishCheckout(occ *domain.Occupancy, space *domain.Space, bill *domain.Bill) {
	if !s.publisher.Enabled() {
		return
	}

	event := queue.CheckoutCompletedEvent{
		OccupancyID: occ.ID,
		SpaceID:     occ.SpaceID,
		LotID:       space.LotID,
		UserID:      occ.UserID,
		VehicleID:   occ.VehicleID,
		BillID:      bill.ID,
		Amount:      bill.Amount,
		NeedsReview: bill.NeedsReview,
		EntryTime:   occ.EntryTime.UTC().Format(time.RFC3339),
		ExitTime:    occ.ExitTime.UTC().Format(time.RFC3339),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.publisher.PublishCheckoutCompleted(ctx, event)
	}()
}

// Cancel abandons a reservation and releases its space. Only RESERVED
// occupancies can be cancelled.
func (s *LedgerService) Cancel(ctx context.Context, occupancyID string) (*domain.Occupancy, error) {
	occ, err := s.cancelReservation(ctx, occupancyID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyReservationCancelled(ctx, occ)
	}

	return occ, nil
}

func (s *LedgerService) cancelReservation(ctx context.Context, occupancyID string) (*domain.Occupancy, error) {
	if occupancyID == "" {
		return nil, ErrInvalidOccupancyID
	}

	occ, err := s.occupancyRepo.GetByID(ctx, occupancyID)
	if err != nil {
		return nil, err
	}

	if occ.Status != domain.OccupancyStatusReserved {
		return nil, ErrInvalidTransition
	}

	occ.Status = domain.OccupancyStatusCancelled
	ok, err := s.occupancyRepo.UpdateStatusIf(ctx, occ, domain.OccupancyStatusReserved)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent check-in or cancel claimed the reservation; the
		// space is theirs, leave it alone.
		return nil, ErrInvalidTransition
	}

	if err := s.registry.Release(ctx, occ.SpaceID); err != nil {
		return nil, err
	}

	_ = s.verification.Clear(ctx, occupancyID)

	return occ, nil
}

// GetOccupancy retrieves an occupancy by ID.
func (s *LedgerService) GetOccupancy(ctx context.Context, occupancyID string) (*domain.Occupancy, error) {
	if occupancyID == "" {
		return nil, ErrInvalidOccupancyID
	}

	return s.occupancyRepo.GetByID(ctx, occupancyID)
}

// GetActive retrieves active occupancies, optionally for one lot. Used for
// operator dashboards.
func (s *LedgerService) GetActive(ctx context.Context, lotID string) ([]*domain.Occupancy, error) {
	return s.occupancyRepo.ListActive(ctx, lotID)
}

// HistoryRequest filters an occupancy history query. Exactly one of UserID
// or VehicleID must be set.
type HistoryRequest struct {
	UserID    string
	VehicleID string
}

// History retrieves a user's or vehicle's occupancies ordered by entry time
// ascending. Read-only.
func (s *LedgerService) History(ctx context.Context, req HistoryRequest) ([]*domain.Occupancy, error) {
	switch {
	case req.UserID != "":
		return s.occupancyRepo.ListByUser(ctx, req.UserID)
	case req.VehicleID != "":
		return s.occupancyRepo.ListByVehicle(ctx, req.VehicleID)
	default:
		return nil, ErrInvalidHistoryFilter
	}
}

// ExpireStaleReservations cancels reservations that never reached check-in
// within the configured TTL and releases their spaces. Returns the number
// of reservations reclaimed.
func (s *LedgerService) ExpireStaleReservations(ctx context.Context) (int, error) {
	if s.reservationTTL <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.reservationTTL)
	stale, err := s.occupancyRepo.ListStaleReserved(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, occ := range stale {
		// A reservation may check in or cancel between the scan and this
		// cancel; cancelReservation's conditional write loses to those.
		cancelled, err := s.cancelReservation(ctx, occ.ID)
		if err != nil {
			if err == ErrInvalidTransition || err == repository.ErrNotFound {
				continue
			}
			return expired, err
		}

		expired++
		if s.notifier != nil {
			_ = s.notifier.NotifyReservationExpired(ctx, cancelled)
		}
	}

	return expired, nil
}

// lotByID fetches a lot, preferring the cache when one is wired.
func (s *LedgerService) lotByID(ctx context.Context, lotID string) (*domain.Lot, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetLot(ctx, lotID)
		if err == nil && cached != nil {
			return &domain.Lot{
				ID:          cached.ID,
				Name:        cached.Name,
				Location:    cached.Location,
				Capacity:    cached.Capacity,
				BaseRate:    cached.BaseRate,
				GeoLocation: cached.GeoLocation,
			}, nil
		}
	}

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetLot(ctx, &redis.CachedLot{
			ID:          lot.ID,
			Name:        lot.Name,
			Location:    lot.Location,
			Capacity:    lot.Capacity,
			BaseRate:    lot.BaseRate,
			GeoLocation: lot.GeoLocation,
		})
	}

	return lot, nil
}
