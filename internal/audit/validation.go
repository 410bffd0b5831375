// Package audit provides capture audit event publishing and processing.
package audit

import (
	"fmt"

	"github.com/roomify/roomify/internal/model"
)

const (
	maxIDLength       = 64
	maxRoomCodeLength = 20
	maxReasonLength   = 100
)

// ValidateEventPayload validates audit event payload fields.
func ValidateEventPayload(payload EventPayload) error {
	if payload.RentalID == "" {
		return fmt.Errorf("rental_id is required")
	}
	if len(payload.RentalID) > maxIDLength {
		return fmt.Errorf("rental_id too long")
	}
	if len(payload.RoomCode) > maxRoomCodeLength {
		return fmt.Errorf("room_code too long")
	}
	if !model.MeterType(payload.MeterType).IsValid() {
		return fmt.Errorf("meter_type must be electric or water")
	}
	switch payload.Action {
	case model.AuditTokenIssued, model.AuditUploadAccepted, model.AuditUploadRejected:
	default:
		return fmt.Errorf("unknown action %q", payload.Action)
	}
	if payload.Action == model.AuditUploadRejected && payload.Reason == "" {
		return fmt.Errorf("reason is required for rejections")
	}
	if len(payload.Reason) > maxReasonLength {
		return fmt.Errorf("reason too long")
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}
