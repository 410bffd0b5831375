package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roomify/roomify/internal/model"
)

// Common errors for room repository operations.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomCodeExists = errors.New("room code already exists")
)

const roomColumns = `id, room_code, price, electric_price, water_price, extra_fee, status, admin_id, created_at`

// CreateRoom inserts a new room into the database.
func (r *Repository) CreateRoom(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (id, room_code, price, electric_price, water_price, extra_fee, status, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		room.ID,
		room.RoomCode,
		room.Price,
		room.ElectricPrice,
		room.WaterPrice,
		room.ExtraFee,
		room.Status,
		room.AdminID,
		room.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoomCodeExists
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// GetRoomByID retrieves a room by its ID.
func (r *Repository) GetRoomByID(ctx context.Context, id string) (*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room by ID: %w", err)
	}

	return room, nil
}

// GetRoomByCode retrieves a room by its room code.
func (r *Repository) GetRoomByCode(ctx context.Context, code string) (*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE room_code = $1`

	room, err := scanRoom(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return room, nil
}

// ListRooms retrieves all rooms, optionally filtered by status.
func (r *Repository) ListRooms(ctx context.Context, status model.RoomStatus) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY room_code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}

	return rooms, nil
}

// UpdateRoom updates mutable room fields.
func (r *Repository) UpdateRoom(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET room_code = $2, price = $3, electric_price = $4, water_price = $5, extra_fee = $6, status = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		room.ID,
		room.RoomCode,
		room.Price,
		room.ElectricPrice,
		room.WaterPrice,
		room.ExtraFee,
		room.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoomCodeExists
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// UpdateRoomStatus flips the occupancy state of a room.
func (r *Repository) UpdateRoomStatus(ctx context.Context, id string, status model.RoomStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE rooms SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes a room.
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// scanRoom scans a room from a row.
func scanRoom(row pgx.Row) (*model.Room, error) {
	var room model.Room
	err := row.Scan(
		&room.ID,
		&room.RoomCode,
		&room.Price,
		&room.ElectricPrice,
		&room.WaterPrice,
		&room.ExtraFee,
		&room.Status,
		&room.AdminID,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
