package service

import (
	"context"

	"github.com/google/uuid"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/repository"
)

// RegistryService owns parking space records and their state transitions.
// Every transition goes through a compare-and-swap on the space state, so
// concurrent writers resolve to a single winner without a global lock.
type RegistryService struct {
	spaceRepo  repository.SpaceRepository
	cacheStore *redis.CacheStore
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(spaceRepo repository.SpaceRepository, cacheStore *redis.CacheStore) *RegistryService {
	return &RegistryService{
		spaceRepo:  spaceRepo,
		cacheStore: cacheStore,
	}
}

// ListAvailable returns unoccupied spaces, optionally filtered by lot and
// vehicle class. No side effects.
func (s *RegistryService) ListAvailable(ctx context.Context, lotID string, class domain.VehicleClass) ([]*domain.Space, error) {
	if class != "" && !IsValidVehicleClass(class) {
		return nil, ErrInvalidVehicleClass
	}

	return s.spaceRepo.ListAvailable(ctx, repository.SpaceFilter{
		LotID:        lotID,
		VehicleClass: class,
	})
}

// Reserve transitions a space from UNOCCUPIED to RESERVED. Exactly one of
// any number of concurrent callers wins; the rest get ErrSpaceConflict.
func (s *RegistryService) Reserve(ctx context.Context, spaceID string) error {
	if spaceID == "" {
		return ErrInvalidSpaceID
	}

	ok, err := s.spaceRepo.CompareAndSetState(ctx, spaceID,
		[]domain.SpaceState{domain.SpaceStateUnoccupied}, domain.SpaceStateReserved)
	if err != nil {
		return err
	}
	if !ok {
		// Distinguish a missing space from a lost race.
		if _, err := s.spaceRepo.GetByID(ctx, spaceID); err != nil {
			return err
		}
		return ErrSpaceConflict
	}

	return nil
}

// Occupy transitions a space from RESERVED to OCCUPIED at check-in.
func (s *RegistryService) Occupy(ctx context.Context, spaceID string) error {
	if spaceID == "" {
		return ErrInvalidSpaceID
	}

	ok, err := s.spaceRepo.CompareAndSetState(ctx, spaceID,
		[]domain.SpaceState{domain.SpaceStateReserved}, domain.SpaceStateOccupied)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.spaceRepo.GetByID(ctx, spaceID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// Release returns a space to UNOCCUPIED from OCCUPIED or RESERVED. Releasing
// an already unoccupied space is a no-op; releasing a space in maintenance
// is a state machine violation.
func (s *RegistryService) Release(ctx context.Context, spaceID string) error {
	if spaceID == "" {
		return ErrInvalidSpaceID
	}

	ok, err := s.spaceRepo.CompareAndSetState(ctx, spaceID,
		[]domain.SpaceState{domain.SpaceStateOccupied, domain.SpaceStateReserved},
		domain.SpaceStateUnoccupied)
	if err != nil {
		return err
	}
	if !ok {
		space, err := s.spaceRepo.GetByID(ctx, spaceID)
		if err != nil {
			return err
		}
		if space.State == domain.SpaceStateUnoccupied {
			return nil
		}
		return ErrInvalidTransition
	}

	return nil
}

// MarkMaintenance takes an unoccupied space out of allocation. Staff only.
func (s *RegistryService) MarkMaintenance(ctx context.Context, spaceID string, role domain.UserRole) error {
	if spaceID == "" {
		return ErrInvalidSpaceID
	}
	if role != domain.UserRoleStaff && role != domain.UserRoleAdmin {
		return ErrPermissionDenied
	}

	ok, err := s.spaceRepo.CompareAndSetState(ctx, spaceID,
		[]domain.SpaceState{domain.SpaceStateUnoccupied}, domain.SpaceStateMaintenance)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.spaceRepo.GetByID(ctx, spaceID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// ClearMaintenance returns a space from MAINTENANCE to UNOCCUPIED. Staff only.
func (s *RegistryService) ClearMaintenance(ctx context.Context, spaceID string, role domain.UserRole) error {
	if spaceID == "" {
		return ErrInvalidSpaceID
	}
	if role != domain.UserRoleStaff && role != domain.UserRoleAdmin {
		return ErrPermissionDenied
	}

	ok, err := s.spaceRepo.CompareAndSetState(ctx, spaceID,
		[]domain.SpaceState{domain.SpaceStateMaintenance}, domain.SpaceStateUnoccupied)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.spaceRepo.GetByID(ctx, spaceID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// CreateSpace registers a new stall in a lot. Staff only.
func (s *RegistryService) CreateSpace(ctx context.Context, lotID string, class domain.VehicleClass, extraCharge float64, role domain.UserRole) (*domain.Space, error) {
	if lotID == "" {
		return nil, ErrInvalidLotID
	}
	if !IsValidVehicleClass(class) {
		return nil, ErrInvalidVehicleClass
	}
	if role != domain.UserRoleStaff && role != domain.UserRoleAdmin {
		return nil, ErrPermissionDenied
	}

	space := &domain.Space{
		ID:           uuid.New().String(),
		LotID:        lotID,
		VehicleClass: class,
		State:        domain.SpaceStateUnoccupied,
		ExtraCharge:  extraCharge,
	}

	if err := s.spaceRepo.Create(ctx, space); err != nil {
		return nil, err
	}

	return space, nil
}

// Availability derives per-class unoccupied counts for a lot. Counts are
// served from a short-TTL cache when one is wired; lot capacity is advisory
// and never consulted.
func (s *RegistryService) Availability(ctx context.Context, lotID string) (*domain.LotAvailability, error) {
	if lotID == "" {
		return nil, ErrInvalidLotID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetAvailability(ctx, lotID); err == nil && cached != nil {
			counts := make(map[domain.VehicleClass]int, len(cached))
			for class, n := range cached {
				counts[domain.VehicleClass(class)] = n
			}
			return &domain.LotAvailability{LotID: lotID, Available: counts}, nil
		}
	}

	counts, err := s.spaceRepo.CountAvailableByClass(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		cached := make(map[string]int, len(counts))
		for class, n := range counts {
			cached[string(class)] = n
		}
		_ = s.cacheStore.SetAvailability(ctx, lotID, cached)
	}

	return &domain.LotAvailability{LotID: lotID, Available: counts}, nil
}

// IsValidVehicleClass reports whether class is one of the supported classes.
func IsValidVehicleClass(class domain.VehicleClass) bool {
	switch class {
	case domain.VehicleClassTwoWheeler, domain.VehicleClassFourWheeler, domain.VehicleClassEV:
		return true
	default:
		return false
	}
}
