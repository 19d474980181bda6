package service

import (
	"context"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/repository"
)

// VerificationService holds the exit checklist an operator must complete
// before an occupancy may check out. The checklist is server state recorded
// against the occupancy, never trusted client input.
type VerificationService struct {
	store         redis.VerificationStoreInterface
	occupancyRepo repository.OccupancyRepository
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(store redis.VerificationStoreInterface, occupancyRepo repository.OccupancyRepository) *VerificationService {
	return &VerificationService{
		store:         store,
		occupancyRepo: occupancyRepo,
	}
}

// RecordCheck toggles one checklist condition for an occupancy and reports
// whether the checklist is now complete.
func (s *VerificationService) RecordCheck(ctx context.Context, occupancyID, check string, value bool) (bool, error) {
	if occupancyID == "" {
		return false, ErrInvalidOccupancyID
	}
	if !isKnownCheck(check) {
		return false, ErrInvalidCheckName
	}

	occ, err := s.occupancyRepo.GetByID(ctx, occupancyID)
	if err != nil {
		return false, err
	}

	// The checklist lives only while the stay is open.
	if occ.Status != domain.OccupancyStatusReserved && occ.Status != domain.OccupancyStatusActive {
		return false, ErrInvalidTransition
	}

	if err := s.store.SetCheck(ctx, occupancyID, check, value); err != nil {
		return false, err
	}

	return s.IsComplete(ctx, occupancyID)
}

// IsComplete reports whether all four exit checks are recorded as true.
func (s *VerificationService) IsComplete(ctx context.Context, occupancyID string) (bool, error) {
	checks, err := s.store.GetChecks(ctx, occupancyID)
	if err != nil {
		return false, err
	}

	for _, name := range redis.AllChecks {
		if !checks[name] {
			return false, nil
		}
	}
	return true, nil
}

// Clear discards the checklist, used once an occupancy reaches a terminal state.
func (s *VerificationService) Clear(ctx context.Context, occupancyID string) error {
	return s.store.Clear(ctx, occupancyID)
}

func isKnownCheck(check string) bool {
	for _, name := range redis.AllChecks {
		if check == name {
			return true
		}
	}
	return false
}
