// Package model defines domain entities for the application.
package model

import "time"

// RentalStatus represents the lifecycle state of a rental contract.
type RentalStatus string

const (
	RentalStatusRenting RentalStatus = "renting"
	RentalStatusEnded   RentalStatus = "ended"
)

// IsValid checks if the rental status is a recognized value.
func (s RentalStatus) IsValid() bool {
	return s == RentalStatusRenting || s == RentalStatusEnded
}

// Rental represents an active or past occupancy of a room by a tenant.
type Rental struct {
	ID        string       `json:"rental_id"`
	UserID    string       `json:"user_id"`
	RoomID    string       `json:"room_id"`
	StartDate time.Time    `json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Status    RentalStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsActive returns true while the rental is ongoing.
func (r *Rental) IsActive() bool {
	return r.Status == RentalStatusRenting
}

// CachedRental is the Redis-friendly representation of an active rental.
// All fields are strings to round-trip cleanly through a Redis hash.
type CachedRental struct {
	UserID   string
	RoomID   string
	RoomCode string
	Status   string
}

// ToCachedRental converts a rental to its cache representation.
// The room code comes from the joined room row, not the rental itself.
func (r *Rental) ToCachedRental(roomCode string) *CachedRental {
	return &CachedRental{
		UserID:   r.UserID,
		RoomID:   r.RoomID,
		RoomCode: roomCode,
		Status:   string(r.Status),
	}
}
