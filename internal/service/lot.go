package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/repository"
)

// LotService manages parking lot records.
type LotService struct {
	lotRepo    repository.LotRepository
	cacheStore *redis.CacheStore
}

// NewLotService creates a new LotService. cacheStore may be nil.
func NewLotService(lotRepo repository.LotRepository, cacheStore *redis.CacheStore) *LotService {
	return &LotService{
		lotRepo:    lotRepo,
		cacheStore: cacheStore,
	}
}

// CreateLotRequest contains the parameters for creating a lot.
type CreateLotRequest struct {
	Name        string
	Location    string
	Capacity    int
	BaseRate    float64
	GeoLocation string
}

// CreateLot registers a new parking lot. Admin only.
func (s *LotService) CreateLot(ctx context.Context, req CreateLotRequest, role domain.UserRole) (*domain.Lot, error) {
	if role != domain.UserRoleAdmin {
		return nil, ErrPermissionDenied
	}
	if req.Name == "" {
		return nil, ErrInvalidName
	}
	if req.BaseRate < 0 {
		return nil, ErrInvalidBaseRate
	}

	lot := &domain.Lot{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Location:    req.Location,
		Capacity:    req.Capacity,
		BaseRate:    req.BaseRate,
		GeoLocation: req.GeoLocation,
		CreatedAt:   time.Now(),
	}

	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}

	return lot, nil
}

// GetLot retrieves a lot by ID, serving from cache when possible.
func (s *LotService) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	if lotID == "" {
		return nil, ErrInvalidLotID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetLot(ctx, lotID); err == nil && cached != nil {
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

// ListLots retrieves all lots.
func (s *LotService) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	return s.lotRepo.GetAll(ctx)
}

// UpdateLotRequest contains the mutable lot fields. Nil fields are unchanged.
type UpdateLotRequest struct {
	Name     *string
	Location *string
	Capacity *int
	BaseRate *float64
}

// UpdateLot updates a lot and invalidates its cache entry so new bills see
// the current base rate. Admin only.
func (s *LotService) UpdateLot(ctx context.Context, lotID string, req UpdateLotRequest, role domain.UserRole) (*domain.Lot, error) {
	if role != domain.UserRoleAdmin {
		return nil, ErrPermissionDenied
	}
	if lotID == "" {
		return nil, ErrInvalidLotID
	}

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, ErrInvalidName
		}
		lot.Name = *req.Name
	}
	if req.Location != nil {
		lot.Location = *req.Location
	}
	if req.Capacity != nil {
		lot.Capacity = *req.Capacity
	}
	if req.BaseRate != nil {
		if *req.BaseRate < 0 {
			return nil, ErrInvalidBaseRate
		}
		lot.BaseRate = *req.BaseRate
	}

	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateLot(ctx, lotID)
	}

	return lot, nil
}
