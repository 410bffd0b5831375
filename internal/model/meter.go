// Package model defines domain entities for the application.
package model

import "time"

// MeterType identifies which utility a meter reading belongs to.
type MeterType string

const (
	MeterElectric MeterType = "electric"
	MeterWater    MeterType = "water"
)

// IsValid checks if the meter type is one of the recognized enumerants.
func (t MeterType) IsValid() bool {
	return t == MeterElectric || t == MeterWater
}

// Meter represents one monthly utility reading for a rental.
// OldValue is carried over from the previous confirmed reading; NewValue is
// set on confirmation. OCRValue is the machine-read candidate, if any.
type Meter struct {
	ID        string    `json:"meter_id"`
	RentalID  string    `json:"rental_id"`
	Type      MeterType `json:"type"`
	Month     string    `json:"month"` // YYYY-MM
	OldValue  float64   `json:"old_value"`
	NewValue  float64   `json:"new_value"`
	OCRValue  float64   `json:"ocr_value"`
	ImageURL  string    `json:"image_url,omitempty"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// Consumption returns the units consumed between the old and new readings.
func (m *Meter) Consumption() float64 {
	return m.NewValue - m.OldValue
}
