package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
)

// Room service errors.
var (
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrInvalidPrice    = errors.New("prices must be non-negative")
	ErrRoomCodeExists  = errors.New("room code already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomOccupied    = errors.New("room is currently occupied")
)

// Room code validation: 2-20 chars, alphanumeric + hyphen.
var roomCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{2,20}$`)

// RoomService handles room business logic.
type RoomService struct {
	repo *repository.Repository
}

// NewRoomService creates a new RoomService.
func NewRoomService(repo *repository.Repository) *RoomService {
	return &RoomService{repo: repo}
}

// CreateRoomInput defines input for creating a room.
type CreateRoomInput struct {
	RoomCode      string
	Price         int64
	ElectricPrice int64
	WaterPrice    int64
	ExtraFee      int64
	AdminID       string
}

// CreateRoom creates a new room in vacant state.
func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (*model.Room, error) {
	if !roomCodeRegex.MatchString(input.RoomCode) {
		return nil, ErrInvalidRoomCode
	}
	if input.Price < 0 || input.ElectricPrice < 0 || input.WaterPrice < 0 || input.ExtraFee < 0 {
		return nil, ErrInvalidPrice
	}

	room := &model.Room{
		ID:            ulid.Make().String(),
		RoomCode:      input.RoomCode,
		Price:         input.Price,
		ElectricPrice: input.ElectricPrice,
		WaterPrice:    input.WaterPrice,
		ExtraFee:      input.ExtraFee,
		Status:        model.RoomStatusVacant,
		AdminID:       input.AdminID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, repository.ErrRoomCodeExists) {
			return nil, ErrRoomCodeExists
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.GetRoomByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// ListRooms retrieves all rooms, optionally filtered by status.
func (s *RoomService) ListRooms(ctx context.Context, status model.RoomStatus) ([]*model.Room, error) {
	return s.repo.ListRooms(ctx, status)
}

// UpdateRoomInput defines input for updating a room.
type UpdateRoomInput struct {
	ID            string
	Price         *int64
	ElectricPrice *int64
	WaterPrice    *int64
	ExtraFee      *int64
}

// UpdateRoom updates a room's pricing fields.
func (s *RoomService) UpdateRoom(ctx context.Context, input UpdateRoomInput) (*model.Room, error) {
	room, err := s.repo.GetRoomByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrInvalidPrice
		}
		room.Price = *input.Price
	}
	if input.ElectricPrice != nil {
		if *input.ElectricPrice < 0 {
			return nil, ErrInvalidPrice
		}
		room.ElectricPrice = *input.ElectricPrice
	}
	if input.WaterPrice != nil {
		if *input.WaterPrice < 0 {
			return nil, ErrInvalidPrice
		}
		room.WaterPrice = *input.WaterPrice
	}
	if input.ExtraFee != nil {
		if *input.ExtraFee < 0 {
			return nil, ErrInvalidPrice
		}
		room.ExtraFee = *input.ExtraFee
	}

	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// DeleteRoom removes a vacant room. Occupied rooms cannot be deleted.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	room, err := s.repo.GetRoomByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	if room.Status == model.RoomStatusOccupied {
		return ErrRoomOccupied
	}

	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}

	return nil
}
