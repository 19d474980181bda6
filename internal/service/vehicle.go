package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parking/internal/domain"
	"parking/internal/repository"
)

// VehicleService manages vehicle registration and lookup.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicleRepo repository.VehicleRepository) *VehicleService {
	return &VehicleService{vehicleRepo: vehicleRepo}
}

// RegisterVehicleRequest contains the parameters for vehicle registration.
type RegisterVehicleRequest struct {
	Registration string
	OwnerID      string
	VehicleClass domain.VehicleClass
}

// RegisterVehicle creates a vehicle record. Registration numbers are unique.
func (s *VehicleService) RegisterVehicle(ctx context.Context, req RegisterVehicleRequest) (*domain.Vehicle, error) {
	if req.Registration == "" {
		return nil, ErrInvalidRegistration
	}
	if !IsValidVehicleClass(req.VehicleClass) {
		return nil, ErrInvalidVehicleClass
	}

	if _, err := s.vehicleRepo.GetByRegistration(ctx, req.Registration); err == nil {
		return nil, ErrRegistrationExists
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		Registration: req.Registration,
		OwnerID:      req.OwnerID,
		VehicleClass: req.VehicleClass,
		CreatedAt:    time.Now(),
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	return s.vehicleRepo.GetByID(ctx, vehicleID)
}

// ListByOwner retrieves all vehicles registered to a user.
func (s *VehicleService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Vehicle, error) {
	if ownerID == "" {
		return nil, ErrInvalidUserID
	}

	return s.vehicleRepo.ListByOwner(ctx, ownerID)
}
