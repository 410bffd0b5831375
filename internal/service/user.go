// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/auth"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
)

// Service errors.
var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
	ErrInvalidRole        = errors.New("invalid role")
	ErrPhoneExists        = errors.New("phone number already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid phone or password")
)

// Phone validation: Vietnamese mobile format, 10 digits starting with 0.
var phoneRegex = regexp.MustCompile(`^0\d{9}$`)

const minPasswordLength = 6

// UserService handles account business logic.
type UserService struct {
	repo *repository.Repository
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// CreateUserInput defines input for registering an account.
type CreateUserInput struct {
	Phone           string
	Password        string
	FullName        string
	NationalID      string
	NationalIDImage string
	Role            string
}

// CreateUser registers a new account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if !phoneRegex.MatchString(input.Phone) {
		return nil, ErrInvalidPhone
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}

	role := input.Role
	if role == "" {
		role = model.RoleTenant
	}
	if !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:              ulid.Make().String(),
		Phone:           input.Phone,
		FullName:        input.FullName,
		NationalID:      input.NationalID,
		NationalIDImage: input.NationalIDImage,
		PasswordHash:    hash,
		Role:            role,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrPhoneExists) {
			return nil, ErrPhoneExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies phone and password and returns the account.
// Unknown phone and wrong password both map to ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, phone, password string) (*model.User, error) {
	user, err := s.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves an account by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves accounts, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, role string) ([]*model.User, error) {
	if role != "" && !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	return s.repo.ListUsers(ctx, role)
}

// UpdateUserInput defines input for updating an account profile.
type UpdateUserInput struct {
	ID              string
	FullName        *string
	NationalID      *string
	NationalIDImage *string
	Password        *string
}

// UpdateUser updates an account's mutable fields.
func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.NationalID != nil {
		user.NationalID = *input.NationalID
	}
	if input.NationalIDImage != nil {
		user.NationalIDImage = *input.NationalIDImage
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrInvalidPassword
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser removes an account.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
