package dto

import "time"

// CreateRentalRequest represents the request body for starting a rental.
type CreateRentalRequest struct {
	UserID    string     `json:"user_id"`
	RoomID    string     `json:"room_id"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// EndRentalRequest represents the request body for ending a rental.
type EndRentalRequest struct {
	EndDate *time.Time `json:"end_date,omitempty"`
}
