package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"parking/internal/domain"
	"parking/internal/repository"
	"parking/internal/service"
)

// ──────────────────────────────────────────────
// SPACE STATE MACHINE
// ──────────────────────────────────────────────

func addSpaceInState(repo *MockSpaceRepository, id string, state domain.SpaceState) {
	repo.AddSpace(&domain.Space{
		ID:           id,
		LotID:        "lot-1",
		VehicleClass: domain.VehicleClassFourWheeler,
		State:        state,
	})
}

func TestReserve_OnlyFromUnoccupied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		state   domain.SpaceState
		wantErr error
	}{
		{domain.SpaceStateUnoccupied, nil},
		{domain.SpaceStateReserved, service.ErrSpaceConflict},
		{domain.SpaceStateOccupied, service.ErrSpaceConflict},
		{domain.SpaceStateMaintenance, service.ErrSpaceConflict},
	}

	for _, tc := range cases {
		spaceRepo := NewMockSpaceRepository()
		addSpaceInState(spaceRepo, "space-1", tc.state)
		registry := service.NewRegistryService(spaceRepo, nil)

		err := registry.Reserve(ctx, "space-1")
		if tc.wantErr == nil {
			if err != nil {
				t.Errorf("reserve from %s: unexpected error %v", tc.state, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("reserve from %s: expected %v, got %v", tc.state, tc.wantErr, err)
		}
	}
}

func TestReserve_MissingSpace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	registry := service.NewRegistryService(NewMockSpaceRepository(), nil)

	err := registry.Reserve(ctx, "nope")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOccupy_OnlyFromReserved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, state := range []domain.SpaceState{
		domain.SpaceStateUnoccupied,
		domain.SpaceStateOccupied,
		domain.SpaceStateMaintenance,
	} {
		spaceRepo := NewMockSpaceRepository()
		addSpaceInState(spaceRepo, "space-1", state)
		registry := service.NewRegistryService(spaceRepo, nil)

		if err := registry.Occupy(ctx, "space-1"); !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("occupy from %s: expected ErrInvalidTransition, got %v", state, err)
		}
	}

	spaceRepo := NewMockSpaceRepository()
	addSpaceInState(spaceRepo, "space-1", domain.SpaceStateReserved)
	registry := service.NewRegistryService(spaceRepo, nil)

	if err := registry.Occupy(ctx, "space-1"); err != nil {
		t.Fatalf("occupy from RESERVED failed: %v", err)
	}
	if spaceRepo.GetSpace("space-1").State != domain.SpaceStateOccupied {
		t.Error("space should be OCCUPIED")
	}
}

func TestRelease_Semantics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// OCCUPIED and RESERVED release to UNOCCUPIED.
	for _, state := range []domain.SpaceState{domain.SpaceStateOccupied, domain.SpaceStateReserved} {
		spaceRepo := NewMockSpaceRepository()
		addSpaceInState(spaceRepo, "space-1", state)
		registry := service.NewRegistryService(spaceRepo, nil)

		if err := registry.Release(ctx, "space-1"); err != nil {
			t.Errorf("release from %s failed: %v", state, err)
		}
		if spaceRepo.GetSpace("space-1").State != domain.SpaceStateUnoccupied {
			t.Errorf("release from %s: space should be UNOCCUPIED", state)
		}
	}

	// Releasing an already unoccupied space is a no-op.
	spaceRepo := NewMockSpaceRepository()
	addSpaceInState(spaceRepo, "space-1", domain.SpaceStateUnoccupied)
	registry := service.NewRegistryService(spaceRepo, nil)
	if err := registry.Release(ctx, "space-1"); err != nil {
		t.Errorf("release of unoccupied space should be a no-op, got %v", err)
	}

	// Releasing a space under maintenance is a violation.
	spaceRepo = NewMockSpaceRepository()
	addSpaceInState(spaceRepo, "space-1", domain.SpaceStateMaintenance)
	registry = service.NewRegistryService(spaceRepo, nil)
	if err := registry.Release(ctx, "space-1"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("release from MAINTENANCE: expected ErrInvalidTransition, got %v", err)
	}
}

func TestMaintenance_RequiresStaffRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	spaceRepo := NewMockSpaceRepository()
	addSpaceInState(spaceRepo, "space-1", domain.SpaceStateUnoccupied)
	registry := service.NewRegistryService(spaceRepo, nil)

	if err := registry.MarkMaintenance(ctx, "space-1", domain.UserRoleCustomer); !errors.Is(err, service.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for customer, got %v", err)
	}

	if err := registry.MarkMaintenance(ctx, "space-1", domain.UserRoleStaff); err != nil {
		t.Fatalf("staff mark maintenance failed: %v", err)
	}
	if spaceRepo.GetSpace("space-1").State != domain.SpaceStateMaintenance {
		t.Error("space should be in MAINTENANCE")
	}

	if err := registry.ClearMaintenance(ctx, "space-1", domain.UserRoleAdmin); err != nil {
		t.Fatalf("admin clear maintenance failed: %v", err)
	}
	if spaceRepo.GetSpace("space-1").State != domain.SpaceStateUnoccupied {
		t.Error("space should be UNOCCUPIED after clearing maintenance")
	}
}

func TestMaintenance_OnlyFromUnoccupied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	spaceRepo := NewMockSpaceRepository()
	addSpaceInState(spaceRepo, "space-1", domain.SpaceStateOccupied)
	registry := service.NewRegistryService(spaceRepo, nil)

	// An occupied space cannot be pulled out from under its vehicle.
	if err := registry.MarkMaintenance(ctx, "space-1", domain.UserRoleStaff); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRegistryReserve_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	spaceRepo := NewMockSpaceRepository()
	addSpaceInState(spaceRepo, "space-1", domain.SpaceStateUnoccupied)
	registry := service.NewRegistryService(spaceRepo, nil)

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = registry.Reserve(ctx, "space-1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, service.ErrSpaceConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
}

func TestAvailability_CountsUnoccupiedByClass(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	spaceRepo := NewMockSpaceRepository()
	spaceRepo.AddSpace(&domain.Space{ID: "s1", LotID: "lot-1", VehicleClass: domain.VehicleClassTwoWheeler, State: domain.SpaceStateUnoccupied})
	spaceRepo.AddSpace(&domain.Space{ID: "s2", LotID: "lot-1", VehicleClass: domain.VehicleClassTwoWheeler, State: domain.SpaceStateUnoccupied})
	spaceRepo.AddSpace(&domain.Space{ID: "s3", LotID: "lot-1", VehicleClass: domain.VehicleClassFourWheeler, State: domain.SpaceStateOccupied})
	spaceRepo.AddSpace(&domain.Space{ID: "s4", LotID: "lot-1", VehicleClass: domain.VehicleClassEV, State: domain.SpaceStateUnoccupied})
	spaceRepo.AddSpace(&domain.Space{ID: "s5", LotID: "lot-other", VehicleClass: domain.VehicleClassEV, State: domain.SpaceStateUnoccupied})

	registry := service.NewRegistryService(spaceRepo, nil)

	availability, err := registry.Availability(ctx, "lot-1")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}

	if availability.Available[domain.VehicleClassTwoWheeler] != 2 {
		t.Errorf("expected 2 available 2W, got %d", availability.Available[domain.VehicleClassTwoWheeler])
	}
	if availability.Available[domain.VehicleClassFourWheeler] != 0 {
		t.Errorf("expected 0 available 4W, got %d", availability.Available[domain.VehicleClassFourWheeler])
	}
	if availability.Available[domain.VehicleClassEV] != 1 {
		t.Errorf("expected 1 available EV, got %d", availability.Available[domain.VehicleClassEV])
	}
}

func TestCreateSpace_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	registry := service.NewRegistryService(NewMockSpaceRepository(), nil)

	if _, err := registry.CreateSpace(ctx, "lot-1", "BOAT", 0, domain.UserRoleStaff); !errors.Is(err, service.ErrInvalidVehicleClass) {
		t.Errorf("expected ErrInvalidVehicleClass, got %v", err)
	}
	if _, err := registry.CreateSpace(ctx, "", domain.VehicleClassEV, 0, domain.UserRoleStaff); !errors.Is(err, service.ErrInvalidLotID) {
		t.Errorf("expected ErrInvalidLotID, got %v", err)
	}
	if _, err := registry.CreateSpace(ctx, "lot-1", domain.VehicleClassEV, 0, domain.UserRoleCustomer); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}

	space, err := registry.CreateSpace(ctx, "lot-1", domain.VehicleClassEV, 5, domain.UserRoleStaff)
	if err != nil {
		t.Fatalf("create space failed: %v", err)
	}
	if space.State != domain.SpaceStateUnoccupied {
		t.Errorf("new space should start UNOCCUPIED, got %s", space.State)
	}
}
