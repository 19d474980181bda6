package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/service"
)

// ──────────────────────────────────────────────
// OCCUPANCY LIFECYCLE
// ──────────────────────────────────────────────

// ledgerHarness bundles the mocks and services for lifecycle tests.
type ledgerHarness struct {
	spaceRepo     *MockSpaceRepository
	lotRepo       *MockLotRepository
	occupancyRepo *MockOccupancyRepository
	billRepo      *MockBillRepository
	vehicleRepo   *MockVehicleRepository
	verifyStore   *MockVerificationStore
	registry      *service.RegistryService
	verification  *service.VerificationService
	ledger        *service.LedgerService
}

func newLedgerHarness(reservationTTL time.Duration) *ledgerHarness {
	h := &ledgerHarness{
		spaceRepo:     NewMockSpaceRepository(),
		lotRepo:       NewMockLotRepository(),
		occupancyRepo: NewMockOccupancyRepository(),
		billRepo:      NewMockBillRepository(),
		vehicleRepo:   NewMockVehicleRepository(),
		verifyStore:   NewMockVerificationStore(),
	}

	h.registry = service.NewRegistryService(h.spaceRepo, nil)
	h.verification = service.NewVerificationService(h.verifyStore, h.occupancyRepo)
	billing := service.NewBillingService(h.billRepo, h.occupancyRepo, nil)
	h.ledger = service.NewLedgerService(
		nil, h.occupancyRepo, h.spaceRepo, h.lotRepo, h.vehicleRepo, h.billRepo,
		h.registry, billing, h.verification,
		nil, nil, nil,
		reservationTTL,
	)

	return h
}

// addLotWithSpace seeds one lot and one unoccupied space.
func (h *ledgerHarness) addLotWithSpace(lotID, spaceID string, class domain.VehicleClass, baseRate, extraCharge float64) {
	h.lotRepo.AddLot(&domain.Lot{
		ID:       lotID,
		Name:     "Lot " + lotID,
		BaseRate: baseRate,
	})
	h.spaceRepo.AddSpace(&domain.Space{
		ID:           spaceID,
		LotID:        lotID,
		VehicleClass: class,
		State:        domain.SpaceStateUnoccupied,
		ExtraCharge:  extraCharge,
	})
	h.occupancyRepo.SpaceLots[spaceID] = lotID
}

// completeVerification records all four exit checks as true.
func (h *ledgerHarness) completeVerification(t *testing.T, occupancyID string) {
	t.Helper()
	ctx := context.Background()
	for _, check := range redis.AllChecks {
		if _, err := h.verification.RecordCheck(ctx, occupancyID, check, true); err != nil {
			t.Fatalf("failed to record check %s: %v", check, err)
		}
	}
}

func TestOccupancy_FullLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassFourWheeler, 50, 10)

	// Reserve.
	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if occ.Status != domain.OccupancyStatusReserved {
		t.Errorf("expected status RESERVED, got %s", occ.Status)
	}
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateReserved {
		t.Error("space should be RESERVED after reserve")
	}

	// Check in.
	occ, err = h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-01-AB-1234",
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if occ.Status != domain.OccupancyStatusActive {
		t.Errorf("expected status ACTIVE, got %s", occ.Status)
	}
	if occ.EntryTime.IsZero() {
		t.Error("entry time should be set at check-in")
	}
	if occ.VehicleID == "" {
		t.Error("vehicle should be attached at check-in")
	}
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateOccupied {
		t.Error("space should be OCCUPIED after check-in")
	}

	// Check out with complete verification.
	h.completeVerification(t, occ.ID)
	result, err := h.ledger.CheckOut(ctx, occ.ID)
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if result.Occupancy.Status != domain.OccupancyStatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", result.Occupancy.Status)
	}
	if result.Occupancy.ExitTime.IsZero() {
		t.Error("exit time should be set at check-out")
	}
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateUnoccupied {
		t.Error("space should be UNOCCUPIED after check-out")
	}

	// Sub-hour stay bills the one hour minimum at lot rate plus surcharge.
	if result.Bill.Amount != 60 {
		t.Errorf("expected bill amount 60, got %.2f", result.Bill.Amount)
	}
	if result.Bill.Status != domain.PaymentStatusPending {
		t.Errorf("expected bill status PENDING, got %s", result.Bill.Status)
	}

	// Checklist is discarded at checkout.
	if h.verifyStore.HasChecks(occ.ID) {
		t.Error("verification state should be discarded after check-out")
	}

	// Pay the bill.
	billing := service.NewBillingService(h.billRepo, h.occupancyRepo, nil)
	bill, err := billing.PayBill(ctx, result.Bill.ID, time.Time{})
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if bill.Status != domain.PaymentStatusPaid {
		t.Errorf("expected bill status PAID, got %s", bill.Status)
	}
}

func TestCheckOut_BlockedUntilVerificationComplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassTwoWheeler, 20, 0)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	occ, err = h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-02-CD-5678",
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	// Three of four checks recorded.
	for _, check := range []string{redis.CheckSpotCorrect, redis.CheckVehicleCondition, redis.CheckNoDamage} {
		if _, err := h.verification.RecordCheck(ctx, occ.ID, check, true); err != nil {
			t.Fatalf("failed to record check: %v", err)
		}
	}

	_, err = h.ledger.CheckOut(ctx, occ.ID)
	if !errors.Is(err, service.ErrVerificationIncomplete) {
		t.Fatalf("expected ErrVerificationIncomplete, got %v", err)
	}

	// Nothing changed.
	if h.occupancyRepo.GetOccupancy(occ.ID).Status != domain.OccupancyStatusActive {
		t.Error("occupancy should remain ACTIVE after refused check-out")
	}
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateOccupied {
		t.Error("space should remain OCCUPIED after refused check-out")
	}
	if int(h.billRepo.CreateCallCount) != 0 {
		t.Error("no bill should be created for a refused check-out")
	}

	// Completing the last check unblocks the checkout.
	if _, err := h.verification.RecordCheck(ctx, occ.ID, redis.CheckBillingConfirmed, true); err != nil {
		t.Fatalf("failed to record check: %v", err)
	}
	if _, err := h.ledger.CheckOut(ctx, occ.ID); err != nil {
		t.Fatalf("check-out should succeed once verification is complete: %v", err)
	}
}

func TestCheckOut_ConcurrentCheckoutCreatesOneBill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassFourWheeler, 50, 10)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	occ, err = h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-07-MN-1357",
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	h.completeVerification(t, occ.ID)

	// Hold both checkouts until each has read a complete checklist, so both
	// pass the verification gate before either one writes.
	barrier := make(chan struct{})
	var arrived int32
	h.verifyStore.GetChecksHook = func(string) {
		if atomic.AddInt32(&arrived, 1) == 2 {
			close(barrier)
		}
		<-barrier
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.ledger.CheckOut(ctx, occ.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, service.ErrInvalidTransition):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winning checkout, got %d", wins)
	}
	if int(h.billRepo.CreateCallCount) != 1 {
		t.Errorf("expected exactly 1 bill for the occupancy, got %d", h.billRepo.CreateCallCount)
	}
	if h.occupancyRepo.GetOccupancy(occ.ID).Status != domain.OccupancyStatusCompleted {
		t.Error("occupancy should be COMPLETED")
	}
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateUnoccupied {
		t.Error("space should be UNOCCUPIED after check-out")
	}
}

func TestCancel_RacingCheckInHasOneWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassTwoWheeler, 20, 0)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// Hold both callers until each has read the RESERVED row, so check-in
	// and cancel race from the same snapshot.
	barrier := make(chan struct{})
	var arrived int32
	h.occupancyRepo.GetByIDHook = func(read *domain.Occupancy) {
		if read.Status != domain.OccupancyStatusReserved {
			return
		}
		if atomic.AddInt32(&arrived, 1) == 2 {
			close(barrier)
		}
		<-barrier
	}

	var wg sync.WaitGroup
	var checkInErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, checkInErr = h.ledger.CheckIn(ctx, service.CheckInRequest{
			OccupancyID:  occ.ID,
			Registration: "KA-08-PQ-2468",
		})
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = h.ledger.Cancel(ctx, occ.ID)
	}()
	wg.Wait()

	if (checkInErr == nil) == (cancelErr == nil) {
		t.Fatalf("expected exactly one winner, check-in=%v cancel=%v", checkInErr, cancelErr)
	}

	final := h.occupancyRepo.GetOccupancy(occ.ID)
	space := h.spaceRepo.GetSpace("space-1")
	switch final.Status {
	case domain.OccupancyStatusActive:
		if space.State != domain.SpaceStateOccupied {
			t.Errorf("active occupancy needs an occupied space, space is %s", space.State)
		}
		if !errors.Is(cancelErr, service.ErrInvalidTransition) {
			t.Errorf("losing cancel should get ErrInvalidTransition, got %v", cancelErr)
		}
		if final.VehicleID == "" || final.EntryTime.IsZero() {
			t.Error("winning check-in's vehicle and entry time should survive")
		}
	case domain.OccupancyStatusCancelled:
		if space.State != domain.SpaceStateUnoccupied {
			t.Errorf("cancelled reservation needs an unoccupied space, space is %s", space.State)
		}
		if checkInErr == nil {
			t.Error("check-in should fail when cancel wins")
		}
	default:
		t.Fatalf("unexpected final status %s", final.Status)
	}
}

func TestCheckIn_RejectsNonReservedOccupancy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassTwoWheeler, 20, 0)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-03-EF-9012",
	}); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	// Second check-in on the now ACTIVE occupancy.
	_, err = h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-03-EF-9012",
	})
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCheckOut_RejectsNonActiveOccupancy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassTwoWheeler, 20, 0)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// Check-out straight from RESERVED.
	_, err = h.ledger.CheckOut(ctx, occ.ID)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel_ReleasesSpaceAndKeepsRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassEV, 30, 0)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	cancelled, err := h.ledger.Cancel(ctx, occ.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OccupancyStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateUnoccupied {
		t.Error("space should be UNOCCUPIED after cancel")
	}

	// The record survives for audit.
	if h.occupancyRepo.GetOccupancy(occ.ID) == nil {
		t.Error("cancelled occupancy should be retained")
	}

	// An active occupancy cannot be cancelled.
	occ2, err := h.ledger.Reserve(ctx, "space-1", "user-2")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ2.ID,
		Registration: "KA-04-GH-3456",
	}); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if _, err := h.ledger.Cancel(ctx, occ2.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for cancelling active occupancy, got %v", err)
	}
}

func TestReserve_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassFourWheeler, 50, 0)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.ledger.Reserve(ctx, "space-1", "user-1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, service.ErrSpaceUnavailable):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
}

func TestReserve_ReleasesSpaceWhenRecordFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassTwoWheeler, 20, 0)

	injected := errors.New("db down")
	h.occupancyRepo.CreateError = injected

	_, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}

	// The compensating release puts the space back.
	if h.spaceRepo.GetSpace("space-1").State != domain.SpaceStateUnoccupied {
		t.Error("space should be released when the occupancy record fails")
	}
}

func TestCheckIn_CreatesWalkInVehicle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassTwoWheeler, 20, 0)

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	occ, err = h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-05-WALKIN-1",
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	if int(h.vehicleRepo.CreateCallCount) != 1 {
		t.Errorf("expected 1 vehicle creation, got %d", h.vehicleRepo.CreateCallCount)
	}

	vehicle, err := h.vehicleRepo.GetByID(ctx, occ.VehicleID)
	if err != nil {
		t.Fatalf("walk-in vehicle not found: %v", err)
	}
	if vehicle.Registration != "KA-05-WALKIN-1" {
		t.Errorf("unexpected registration %s", vehicle.Registration)
	}
	// The walk-in inherits the space's vehicle class.
	if vehicle.VehicleClass != domain.VehicleClassTwoWheeler {
		t.Errorf("expected class 2W, got %s", vehicle.VehicleClass)
	}
}

func TestCheckIn_ReusesRegisteredVehicle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)
	h.addLotWithSpace("lot-1", "space-1", domain.VehicleClassFourWheeler, 50, 0)

	h.vehicleRepo.AddVehicle(&domain.Vehicle{
		ID:           "vehicle-1",
		Registration: "KA-06-IJ-7890",
		OwnerID:      "user-1",
		VehicleClass: domain.VehicleClassFourWheeler,
	})

	occ, err := h.ledger.Reserve(ctx, "space-1", "user-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	occ, err = h.ledger.CheckIn(ctx, service.CheckInRequest{
		OccupancyID:  occ.ID,
		Registration: "KA-06-IJ-7890",
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	if occ.VehicleID != "vehicle-1" {
		t.Errorf("expected existing vehicle to be attached, got %s", occ.VehicleID)
	}
	if int(h.vehicleRepo.CreateCallCount) != 0 {
		t.Error("no new vehicle should be created for a registered registration")
	}
}

func TestExpireStaleReservations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(30 * time.Minute)
	h.addLotWithSpace("lot-1", "space-stale", domain.VehicleClassTwoWheeler, 20, 0)
	h.addLotWithSpace("lot-1", "space-fresh", domain.VehicleClassTwoWheeler, 20, 0)

	// A reservation past the TTL and one inside it.
	h.spaceRepo.GetSpace("space-stale").State = domain.SpaceStateReserved
	h.occupancyRepo.AddOccupancy(&domain.Occupancy{
		ID:        "occ-stale",
		SpaceID:   "space-stale",
		UserID:    "user-1",
		Status:    domain.OccupancyStatusReserved,
		CreatedAt: time.Now().Add(-time.Hour),
	})

	h.spaceRepo.GetSpace("space-fresh").State = domain.SpaceStateReserved
	h.occupancyRepo.AddOccupancy(&domain.Occupancy{
		ID:        "occ-fresh",
		SpaceID:   "space-fresh",
		UserID:    "user-2",
		Status:    domain.OccupancyStatusReserved,
		CreatedAt: time.Now().Add(-time.Minute),
	})

	expired, err := h.ledger.ExpireStaleReservations(ctx)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired reservation, got %d", expired)
	}

	if h.occupancyRepo.GetOccupancy("occ-stale").Status != domain.OccupancyStatusCancelled {
		t.Error("stale reservation should be CANCELLED")
	}
	if h.spaceRepo.GetSpace("space-stale").State != domain.SpaceStateUnoccupied {
		t.Error("stale reservation's space should be released")
	}

	if h.occupancyRepo.GetOccupancy("occ-fresh").Status != domain.OccupancyStatusReserved {
		t.Error("fresh reservation should be untouched")
	}
}

func TestHistory_RequiresUserOrVehicleFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)

	_, err := h.ledger.History(ctx, service.HistoryRequest{})
	if !errors.Is(err, service.ErrInvalidHistoryFilter) {
		t.Fatalf("expected ErrInvalidHistoryFilter, got %v", err)
	}
}

func TestHistory_OrderedByEntryTimeAscending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newLedgerHarness(0)

	base := time.Now().Add(-24 * time.Hour)
	for i, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		h.occupancyRepo.AddOccupancy(&domain.Occupancy{
			ID:        "occ-" + string(rune('a'+i)),
			SpaceID:   "space-1",
			UserID:    "user-1",
			Status:    domain.OccupancyStatusCompleted,
			EntryTime: base.Add(offset),
		})
	}

	history, err := h.ledger.History(ctx, service.HistoryRequest{UserID: "user-1"})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].EntryTime.Before(history[i-1].EntryTime) {
			t.Fatal("history should be ordered by entry time ascending")
		}
	}
}
