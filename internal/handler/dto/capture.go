package dto

import (
	"time"

	"github.com/roomify/roomify/internal/model"
)

// IssueTokenRequest represents the request body for issuing a capture token.
type IssueTokenRequest struct {
	RentalID  string `json:"rental_id"`
	MeterType string `json:"meter_type"`
}

// IssueTokenResponse represents an issued capture token.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	RoomCode  string    `json:"room_code"`
	MeterType string    `json:"meter_type"`
	RentalID  string    `json:"rental_id"`
	Message   string    `json:"message"`
}

// UploadRequest represents the request body for submitting a captured image.
type UploadRequest struct {
	Token            string `json:"token"`
	Image            string `json:"image"`
	CaptureTimestamp string `json:"capture_timestamp"`
}

// TokenSubject echoes the subject tuple a token was bound to.
type TokenSubject struct {
	RentalID  string `json:"rental_id"`
	MeterType string `json:"meter_type"`
	RoomCode  string `json:"room_code"`
}

// UploadResponse represents an accepted capture upload.
type UploadResponse struct {
	ImageURL      string               `json:"image_url"`
	FileID        string               `json:"file_id"`
	WatermarkData *model.WatermarkData `json:"watermark_data"`
	TokenData     TokenSubject         `json:"token_data"`
	Message       string               `json:"message"`
}

// ToIssueTokenResponse builds the issuance response for a token.
func ToIssueTokenResponse(token *model.CaptureToken, message string) *IssueTokenResponse {
	return &IssueTokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		RoomCode:  token.RoomCode,
		MeterType: string(token.Type),
		RentalID:  token.RentalID,
		Message:   message,
	}
}
