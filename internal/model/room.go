// Package model defines domain entities for the application.
package model

import "time"

// RoomStatus represents the occupancy state of a room.
type RoomStatus string

const (
	RoomStatusVacant   RoomStatus = "vacant"
	RoomStatusOccupied RoomStatus = "occupied"
)

// IsValid checks if the room status is a recognized value.
func (s RoomStatus) IsValid() bool {
	return s == RoomStatusVacant || s == RoomStatusOccupied
}

// Room represents a rentable unit. Prices are monthly amounts in whole
// currency units; electric and water prices are per consumed unit.
type Room struct {
	ID            string     `json:"room_id"`
	RoomCode      string     `json:"room_code"`
	Price         int64      `json:"price"`
	ElectricPrice int64      `json:"electric_price"`
	WaterPrice    int64      `json:"water_price"`
	ExtraFee      int64      `json:"extra_fee"`
	Status        RoomStatus `json:"status"`
	AdminID       string     `json:"admin_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsVacant returns true if the room has no active rental.
func (r *Room) IsVacant() bool {
	return r.Status == RoomStatusVacant
}
