package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/roomify/roomify/internal/audit"
	"github.com/roomify/roomify/internal/capture"
	"github.com/roomify/roomify/internal/handler/dto"
	"github.com/roomify/roomify/internal/metrics"
	"github.com/roomify/roomify/internal/middleware"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/service"
	"github.com/roomify/roomify/internal/storage"
)

// RentalResolver resolves an active rental to the subject data a capture
// token binds to. Implemented by the rental service.
type RentalResolver interface {
	GetActiveRentalContext(ctx context.Context, rentalID string) (*model.CachedRental, error)
}

// ArtifactStore persists an accepted capture image. Implemented by the
// image store. A token is only consumed after Save returns successfully.
type ArtifactStore interface {
	Save(ctx context.Context, encoded string, rentalID string, meterType model.MeterType, roomCode string) (*storage.SaveResult, error)
}

// CaptureHandler handles the realtime meter-capture flow: token issuance
// and verified image upload.
type CaptureHandler struct {
	tokens   *capture.Service
	enforcer capture.Enforcer
	rentals  RentalResolver
	images   ArtifactStore
	audit    *audit.Publisher
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewCaptureHandler creates a new CaptureHandler. A nil audit publisher
// disables the audit trail.
func NewCaptureHandler(tokens *capture.Service, enforcer capture.Enforcer, rentals RentalResolver, images ArtifactStore, auditPub *audit.Publisher, logger *slog.Logger, recorder metrics.Recorder) *CaptureHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CaptureHandler{
		tokens:   tokens,
		enforcer: enforcer,
		rentals:  rentals,
		images:   images,
		audit:    auditPub,
		logger:   logger,
		metrics:  recorder,
	}
}

// publishAudit emits a capture audit event when a publisher is configured.
func (h *CaptureHandler) publishAudit(token *model.CaptureToken, action, reason string, delay time.Duration, at time.Time) {
	if h.audit == nil {
		return
	}
	h.audit.PublishAsync(audit.EventPayload{
		RentalID:   token.RentalID,
		RoomCode:   token.RoomCode,
		MeterType:  string(token.Type),
		Action:     action,
		Reason:     reason,
		DelayMs:    delay.Milliseconds(),
		OccurredAt: at.UnixMilli(),
	})
}

// IssueToken handles POST /api/v1/capture/token.
func (h *CaptureHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.RentalID == "" || req.MeterType == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Missing required fields: rental_id, meter_type")
		return
	}

	meterType := model.MeterType(req.MeterType)
	if !meterType.IsValid() {
		h.writeError(w, http.StatusBadRequest, "INVALID_METER_TYPE", `meter_type must be "electric" or "water"`)
		return
	}

	rental, err := h.rentals.GetActiveRentalContext(r.Context(), req.RentalID)
	if err != nil {
		h.handleResolveError(w, err)
		return
	}

	token, err := h.tokens.Issue(r.Context(), req.RentalID, meterType, rental.RoomCode)
	if err != nil {
		h.logger.Error("token_issue_failed", "rental_id", req.RentalID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("capture_token_issued",
		"rental_id", token.RentalID,
		"meter_type", token.Type,
		"room_code", token.RoomCode,
		"expires_at", token.ExpiresAt,
	)

	h.publishAudit(token, model.AuditTokenIssued, "", 0, token.CreatedAt)

	message := "Capture token generated. Valid for " + strconv.Itoa(int(h.tokens.TTL().Seconds())) + " seconds."
	writeJSON(w, http.StatusOK, dto.ToIssueTokenResponse(token, message))
}

// Upload handles POST /api/v1/capture/upload.
//
// The order of operations is the contract: peek validates without
// consuming, the timing check runs next, the image is durably stored, and
// only then is the token consumed. A failure at any step leaves the token
// unconsumed so the same token cannot be retired by a rejected upload.
func (h *CaptureHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req dto.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Token == "" || req.Image == "" || req.CaptureTimestamp == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Missing required fields: token, image, capture_timestamp")
		return
	}

	if err := middleware.ValidateImagePayload(req.Image); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_IMAGE", err.Error())
		return
	}

	captureAt, err := time.Parse(time.RFC3339, req.CaptureTimestamp)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_TIMESTAMP", "capture_timestamp must be an ISO-8601 timestamp")
		return
	}

	// A malformed token can never be valid; reject it with the same
	// generic 401 as an unknown one so the two cases are
	// indistinguishable to a prober.
	if err := middleware.ValidateCaptureToken(req.Token); err != nil {
		h.metrics.IncUploadRejected("token")
		h.writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid, expired, or already used token. Please request a new capture token.")
		return
	}

	// Validate without consuming. Unknown, used, and expired tokens are
	// indistinguishable here; the generic message is an anti-probing
	// measure and must not be narrowed.
	token, err := h.tokens.Peek(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, capture.ErrTokenNotFound) {
			h.metrics.IncUploadRejected("token")
			h.writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid, expired, or already used token. Please request a new capture token.")
			return
		}
		h.logger.Error("token_peek_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	now := time.Now().UTC()
	verdict := h.enforcer.Check(token.CreatedAt, captureAt, now)
	h.metrics.ObserveUploadDelay(verdict.Delay)
	if !verdict.OK {
		h.metrics.IncUploadRejected("timing")
		h.logger.Warn("capture_timing_rejected",
			"rental_id", token.RentalID,
			"meter_type", token.Type,
			"reason", verdict.Reason,
			"delay_ms", verdict.Delay.Milliseconds(),
		)
		h.publishAudit(token, model.AuditUploadRejected, string(verdict.Reason), verdict.Delay, now)
		h.writeError(w, http.StatusBadRequest, "TIMING_VIOLATION", verdict.Reason.Message())
		return
	}

	saved, err := h.images.Save(r.Context(), req.Image, token.RentalID, token.Type, token.RoomCode)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			h.writeError(w, http.StatusBadRequest, "INVALID_IMAGE", "Image payload is not valid base64")
			return
		}
		h.metrics.IncUploadRejected("storage")
		h.logger.Error("image_store_failed", "rental_id", token.RentalID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	// The artifact is durable; retire the token.
	if err := h.tokens.Consume(r.Context(), req.Token); err != nil {
		h.logger.Error("token_consume_failed", "rental_id", token.RentalID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.metrics.IncUploadAccepted()
	h.publishAudit(token, model.AuditUploadAccepted, "", verdict.Delay, now)

	h.logger.Info("capture_upload_accepted",
		"rental_id", token.RentalID,
		"meter_type", token.Type,
		"room_code", token.RoomCode,
		"file_id", saved.FileID,
		"delay_ms", verdict.Delay.Milliseconds(),
	)

	writeJSON(w, http.StatusOK, &dto.UploadResponse{
		ImageURL: saved.URL,
		FileID:   saved.FileID,
		WatermarkData: &model.WatermarkData{
			RoomCode:   token.RoomCode,
			RentalID:   token.RentalID,
			MeterType:  token.Type,
			CapturedAt: captureAt,
			VerifiedAt: now,
		},
		TokenData: dto.TokenSubject{
			RentalID:  token.RentalID,
			MeterType: string(token.Type),
			RoomCode:  token.RoomCode,
		},
		Message: "Image captured and verified successfully",
	})
}

// handleResolveError maps rental resolution errors to HTTP responses.
func (h *CaptureHandler) handleResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRentalNotFound):
		h.writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "Rental not found")
	case errors.Is(err, service.ErrNotActiveRental):
		h.writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "Rental not found")
	case errors.Is(err, service.ErrRoomNotFound):
		h.writeError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
	default:
		h.logger.Error("rental_resolve_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *CaptureHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
