package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/cache"
	"github.com/roomify/roomify/internal/metrics"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
)

// Rental service errors.
var (
	ErrRentalNotFound  = errors.New("rental not found")
	ErrRentalEnded     = errors.New("rental already ended")
	ErrRoomNotVacant   = errors.New("room already has an active rental")
	ErrInvalidDates    = errors.New("end date must be after start date")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrNotActiveRental = errors.New("rental is not active")
)

// RentalService handles rental contract business logic. It owns the
// room occupancy flips that accompany rental lifecycle changes.
type RentalService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewRentalService creates a new RentalService.
func NewRentalService(repo *repository.Repository, c *cache.Cache, logger *slog.Logger, recorder metrics.Recorder) *RentalService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RentalService{
		repo:    repo,
		cache:   c,
		logger:  logger.With("component", "service.rental"),
		metrics: recorder,
	}
}

// CreateRentalInput defines input for starting a rental.
type CreateRentalInput struct {
	UserID    string
	RoomID    string
	StartDate time.Time
}

// CreateRental starts a rental and marks the room occupied.
func (s *RentalService) CreateRental(ctx context.Context, input CreateRentalInput) (*model.Rental, error) {
	if _, err := s.repo.GetUserByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	room, err := s.repo.GetRoomByID(ctx, input.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// Occupancy check: one active rental per room.
	if _, err := s.repo.GetActiveRentalByRoomID(ctx, input.RoomID); err == nil {
		return nil, ErrRoomNotVacant
	} else if !errors.Is(err, repository.ErrRentalNotFound) {
		return nil, err
	}

	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	rental := &model.Rental{
		ID:        ulid.Make().String(),
		UserID:    input.UserID,
		RoomID:    input.RoomID,
		StartDate: startDate,
		Status:    model.RentalStatusRenting,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateRental(ctx, rental); err != nil {
		return nil, fmt.Errorf("failed to create rental: %w", err)
	}

	if err := s.repo.UpdateRoomStatus(ctx, room.ID, model.RoomStatusOccupied); err != nil {
		return nil, fmt.Errorf("failed to mark room occupied: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetRental(ctx, rental, room.RoomCode); err != nil {
			s.logger.Warn("failed to cache rental", "rental_id", rental.ID, "error", err)
		}
	}

	return rental, nil
}

// GetRental retrieves a rental by ID.
func (s *RentalService) GetRental(ctx context.Context, id string) (*model.Rental, error) {
	rental, err := s.repo.GetRentalByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return rental, nil
}

// GetActiveRentalContext resolves a rental plus its room, cache-first.
// Used by the capture token flow where only IDs and the room code matter.
func (s *RentalService) GetActiveRentalContext(ctx context.Context, rentalID string) (*model.CachedRental, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRental(ctx, rentalID)
		if err == nil {
			s.metrics.IncLookupCacheHit()
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncLookupCacheMiss()
			if isNegative, _ := s.cache.IsNegativelyCached(ctx, rentalID); isNegative {
				return nil, ErrRentalNotFound
			}
		}
	}

	rental, err := s.repo.GetRentalByID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			if s.cache != nil {
				_ = s.cache.SetNegativeCache(ctx, rentalID)
			}
			return nil, ErrRentalNotFound
		}
		return nil, err
	}

	if !rental.IsActive() {
		return nil, ErrNotActiveRental
	}

	room, err := s.repo.GetRoomByID(ctx, rental.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rental room: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetRental(ctx, rental, room.RoomCode); err != nil {
			s.logger.Warn("failed to backfill rental cache", "rental_id", rental.ID, "error", err)
		}
	}

	return rental.ToCachedRental(room.RoomCode), nil
}

// ListRentals retrieves rentals, optionally filtered by status.
func (s *RentalService) ListRentals(ctx context.Context, status model.RentalStatus) ([]*model.Rental, error) {
	return s.repo.ListRentals(ctx, status)
}

// ListRentalsByUser retrieves a tenant's rentals.
func (s *RentalService) ListRentalsByUser(ctx context.Context, userID string) ([]*model.Rental, error) {
	return s.repo.ListRentalsByUserID(ctx, userID)
}

// EndRental ends an active rental and frees the room.
func (s *RentalService) EndRental(ctx context.Context, id string, endDate time.Time) (*model.Rental, error) {
	rental, err := s.repo.GetRentalByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}

	if !rental.IsActive() {
		return nil, ErrRentalEnded
	}

	if endDate.IsZero() {
		endDate = time.Now().UTC()
	}
	if endDate.Before(rental.StartDate) {
		return nil, ErrInvalidDates
	}

	rental.EndDate = &endDate
	rental.Status = model.RentalStatusEnded

	if err := s.repo.UpdateRental(ctx, rental); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRoomStatus(ctx, rental.RoomID, model.RoomStatusVacant); err != nil {
		return nil, fmt.Errorf("failed to mark room vacant: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteRental(ctx, rental.ID); err != nil {
			s.logger.Warn("failed to evict rental cache", "rental_id", rental.ID, "error", err)
		}
	}

	return rental, nil
}
