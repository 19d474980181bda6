package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parking/internal/domain"
	"parking/internal/repository"
)

// UserService manages user registration and lookup.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUserRequest contains the parameters for user registration.
type RegisterUserRequest struct {
	Name  string
	Phone string
	Role  domain.UserRole // Defaults to CUSTOMER when empty.
}

// RegisterUser creates a new user. Phone numbers are unique.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	if req.Name == "" {
		return nil, ErrInvalidName
	}
	if req.Phone == "" {
		return nil, ErrInvalidPhone
	}

	role := req.Role
	if role == "" {
		role = domain.UserRoleCustomer
	}
	switch role {
	case domain.UserRoleAdmin, domain.UserRoleStaff, domain.UserRoleCustomer:
	default:
		return nil, ErrInvalidUserRole
	}

	if _, err := s.userRepo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, ErrPhoneExists
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      role,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers retrieves all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}
