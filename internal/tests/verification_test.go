package tests

import (
	"context"
	"errors"
	"testing"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/service"
)

// ──────────────────────────────────────────────
// EXIT VERIFICATION
// ──────────────────────────────────────────────

func newVerificationService(occStatus domain.OccupancyStatus) (*service.VerificationService, *MockVerificationStore) {
	store := NewMockVerificationStore()
	occupancyRepo := NewMockOccupancyRepository()
	occupancyRepo.AddOccupancy(&domain.Occupancy{
		ID:      "occ-1",
		SpaceID: "space-1",
		UserID:  "user-1",
		Status:  occStatus,
	})
	return service.NewVerificationService(store, occupancyRepo), store
}

func TestVerification_CompleteOnlyWhenAllFourTrue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	verification, _ := newVerificationService(domain.OccupancyStatusActive)

	for i, check := range redis.AllChecks {
		complete, err := verification.RecordCheck(ctx, "occ-1", check, true)
		if err != nil {
			t.Fatalf("record check %s failed: %v", check, err)
		}

		wantComplete := i == len(redis.AllChecks)-1
		if complete != wantComplete {
			t.Errorf("after %d checks: complete=%v, want %v", i+1, complete, wantComplete)
		}
	}
}

func TestVerification_FalseCheckMakesIncomplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	verification, _ := newVerificationService(domain.OccupancyStatusActive)

	for _, check := range redis.AllChecks {
		if _, err := verification.RecordCheck(ctx, "occ-1", check, true); err != nil {
			t.Fatalf("record check failed: %v", err)
		}
	}

	// Flipping one back to false breaks completeness.
	complete, err := verification.RecordCheck(ctx, "occ-1", redis.CheckNoDamage, false)
	if err != nil {
		t.Fatalf("record check failed: %v", err)
	}
	if complete {
		t.Error("checklist should be incomplete after a check is recorded false")
	}
}

func TestVerification_UnknownCheckRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	verification, store := newVerificationService(domain.OccupancyStatusActive)

	_, err := verification.RecordCheck(ctx, "occ-1", "tyres_shiny", true)
	if !errors.Is(err, service.ErrInvalidCheckName) {
		t.Fatalf("expected ErrInvalidCheckName, got %v", err)
	}
	if store.HasChecks("occ-1") {
		t.Error("rejected check should not be stored")
	}
}

func TestVerification_RejectedForClosedOccupancy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, status := range []domain.OccupancyStatus{
		domain.OccupancyStatusCompleted,
		domain.OccupancyStatusCancelled,
	} {
		verification, _ := newVerificationService(status)

		_, err := verification.RecordCheck(ctx, "occ-1", redis.CheckSpotCorrect, true)
		if !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("status %s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestVerification_AllowedWhileReserved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Operators may pre-record checks before the vehicle arrives.
	verification, _ := newVerificationService(domain.OccupancyStatusReserved)

	if _, err := verification.RecordCheck(ctx, "occ-1", redis.CheckSpotCorrect, true); err != nil {
		t.Fatalf("record check on reserved occupancy failed: %v", err)
	}
}

func TestVerification_ClearDiscardsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	verification, store := newVerificationService(domain.OccupancyStatusActive)

	for _, check := range redis.AllChecks {
		if _, err := verification.RecordCheck(ctx, "occ-1", check, true); err != nil {
			t.Fatalf("record check failed: %v", err)
		}
	}

	if err := verification.Clear(ctx, "occ-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if store.HasChecks("occ-1") {
		t.Error("checklist should be empty after clear")
	}

	complete, err := verification.IsComplete(ctx, "occ-1")
	if err != nil {
		t.Fatalf("is-complete failed: %v", err)
	}
	if complete {
		t.Error("cleared checklist must not read as complete")
	}
}

func TestVerification_MissingOccupancy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	verification := service.NewVerificationService(NewMockVerificationStore(), NewMockOccupancyRepository())

	if _, err := verification.RecordCheck(ctx, "ghost", redis.CheckSpotCorrect, true); err == nil {
		t.Fatal("expected an error for an unknown occupancy")
	}
}
