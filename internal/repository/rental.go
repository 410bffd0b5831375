package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roomify/roomify/internal/model"
)

// ErrRentalNotFound is returned when a rental does not exist.
var ErrRentalNotFound = errors.New("rental not found")

const rentalColumns = `id, user_id, room_id, start_date, end_date, status, created_at`

// CreateRental inserts a new rental into the database.
func (r *Repository) CreateRental(ctx context.Context, rental *model.Rental) error {
	query := `
		INSERT INTO rentals (id, user_id, room_id, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		rental.ID,
		rental.UserID,
		rental.RoomID,
		rental.StartDate,
		rental.EndDate,
		rental.Status,
		rental.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rental: %w", err)
	}

	return nil
}

// GetRentalByID retrieves a rental by its ID.
func (r *Repository) GetRentalByID(ctx context.Context, id string) (*model.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

	rental, err := scanRental(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, fmt.Errorf("failed to get rental by ID: %w", err)
	}

	return rental, nil
}

// GetActiveRentalByRoomID returns the ongoing rental for a room, if any.
func (r *Repository) GetActiveRentalByRoomID(ctx context.Context, roomID string) (*model.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE room_id = $1 AND status = $2`

	rental, err := scanRental(r.pool.QueryRow(ctx, query, roomID, model.RentalStatusRenting))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, fmt.Errorf("failed to get active rental by room: %w", err)
	}

	return rental, nil
}

// ListRentalsByUserID retrieves all rentals for a tenant.
func (r *Repository) ListRentalsByUserID(ctx context.Context, userID string) ([]*model.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE user_id = $1 ORDER BY start_date DESC`
	return r.queryRentals(ctx, query, userID)
}

// ListRentals retrieves all rentals, optionally filtered by status.
func (r *Repository) ListRentals(ctx context.Context, status model.RentalStatus) ([]*model.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY start_date DESC`
	return r.queryRentals(ctx, query, args...)
}

// UpdateRental updates the end date and status of a rental.
func (r *Repository) UpdateRental(ctx context.Context, rental *model.Rental) error {
	query := `
		UPDATE rentals
		SET end_date = $2, status = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, rental.ID, rental.EndDate, rental.Status)
	if err != nil {
		return fmt.Errorf("failed to update rental: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRentalNotFound
	}

	return nil
}

func (r *Repository) queryRentals(ctx context.Context, query string, args ...any) ([]*model.Rental, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer rows.Close()

	var rentals []*model.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, rental)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rentals: %w", err)
	}

	return rentals, nil
}

// scanRental scans a rental from a row.
func scanRental(row pgx.Row) (*model.Rental, error) {
	var rental model.Rental
	err := row.Scan(
		&rental.ID,
		&rental.UserID,
		&rental.RoomID,
		&rental.StartDate,
		&rental.EndDate,
		&rental.Status,
		&rental.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rental, nil
}
