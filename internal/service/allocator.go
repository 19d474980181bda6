package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/repository"
)

const (
	// defaultMaxAttempts bounds how many reserve races one allocation absorbs
	// before giving up with ErrNoAvailability.
	defaultMaxAttempts = 3

	// spaceLockTTL covers the window between picking a candidate and the
	// reserve compare-and-swap. Expires on its own; correctness does not
	// depend on it.
	spaceLockTTL = 5 * time.Second
)

// AllocatorService finds a compatible unoccupied space and reserves it.
// The candidate scan is not atomic; atomicity lives in the registry's
// reserve transition, and the retry loop here absorbs lost races. An
// allocation never returns a space it did not actually reserve.
type AllocatorService struct {
	registry    *RegistryService
	lockStore   redis.LockStoreInterface
	maxAttempts int
}

// NewAllocatorService creates a new AllocatorService. lockStore may be nil;
// the reserve compare-and-swap alone guarantees a single winner. A
// non-positive maxAttempts falls back to the default.
func NewAllocatorService(registry *RegistryService, lockStore redis.LockStoreInterface, maxAttempts int) *AllocatorService {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &AllocatorService{
		registry:    registry,
		lockStore:   lockStore,
		maxAttempts: maxAttempts,
	}
}

// AllocateRequest contains the parameters for an allocation.
type AllocateRequest struct {
	VehicleClass domain.VehicleClass
	LotID        string // Optional: empty searches all lots.
}

// Allocate picks a random compatible unoccupied space and reserves it.
// Candidates that lose the reserve race are dropped and another is tried,
// up to the attempt budget.
func (s *AllocatorService) Allocate(ctx context.Context, req AllocateRequest) (*domain.Space, error) {
	if !IsValidVehicleClass(req.VehicleClass) {
		return nil, ErrInvalidVehicleClass
	}

	candidates, err := s.registry.ListAvailable(ctx, req.LotID, req.VehicleClass)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.maxAttempts && len(candidates) > 0; attempt++ {
		// Selection order carries no guarantee; uniform random spreads
		// contention across the lot.
		i := rand.Intn(len(candidates))
		space := candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)

		if s.lockStore != nil {
			locked, err := s.lockStore.AcquireSpaceLock(ctx, space.ID, spaceLockTTL)
			if err != nil {
				return nil, err
			}
			if !locked {
				// Another allocation is deciding on this space.
				continue
			}
		}

		err = s.registry.Reserve(ctx, space.ID)

		if s.lockStore != nil {
			_ = s.lockStore.ReleaseSpaceLock(ctx, space.ID)
		}

		if err != nil {
			if errors.Is(err, ErrSpaceConflict) || errors.Is(err, repository.ErrNotFound) {
				// Lost the race; try the next candidate.
				continue
			}
			return nil, err
		}

		space.State = domain.SpaceStateReserved
		return space, nil
	}

	return nil, ErrNoAvailability
}
