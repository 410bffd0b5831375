package model

import "time"

// Audit actions recorded for the capture flow.
const (
	AuditTokenIssued    = "token_issued"
	AuditUploadAccepted = "upload_accepted"
	AuditUploadRejected = "upload_rejected"
)

// CaptureAuditEvent is one entry in the meter-capture audit trail.
// EventID is the Redis stream ID and doubles as the idempotency key
// for batch inserts.
type CaptureAuditEvent struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	RentalID   string    `json:"rental_id"`
	RoomCode   string    `json:"room_code"`
	MeterType  MeterType `json:"meter_type"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	DelayMs    int64     `json:"delay_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}
