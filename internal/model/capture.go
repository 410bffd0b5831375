// Package model defines domain entities for the application.
package model

import "time"

// CaptureToken is a short-lived, single-use credential binding a meter photo
// capture to a specific rental, meter type, and room. The subject tuple
// (RentalID, Type, RoomCode) is fixed at issuance and never changes.
type CaptureToken struct {
	Token     string    `json:"token"`
	RentalID  string    `json:"rental_id"`
	Type      MeterType `json:"meter_type"`
	RoomCode  string    `json:"room_code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

// IsExpired reports whether the token's validity window has passed at the
// given instant.
func (t *CaptureToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// WatermarkData is the audit payload bound to an accepted meter photo.
// CapturedAt is the client-claimed capture instant; VerifiedAt is the server
// receipt time. Both are surfaced so downstream consumers can audit the delta.
type WatermarkData struct {
	RoomCode   string    `json:"room_code"`
	RentalID   string    `json:"rental_id"`
	MeterType  MeterType `json:"meter_type"`
	CapturedAt time.Time `json:"captured_at"`
	VerifiedAt time.Time `json:"verified_at"`
}
