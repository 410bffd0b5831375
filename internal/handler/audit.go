package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roomify/roomify/internal/handler/dto"
	"github.com/roomify/roomify/internal/middleware"
	"github.com/roomify/roomify/internal/model"
)

// AuditLogReader reads the persisted capture audit trail.
// Implemented by the repository.
type AuditLogReader interface {
	ListAuditEventsByRental(ctx context.Context, rentalID string, limit int) ([]*model.CaptureAuditEvent, error)
}

// AuditHandler exposes the capture audit trail to admins.
type AuditHandler struct {
	reader AuditLogReader
	logger *slog.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(reader AuditLogReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		reader: reader,
		logger: logger,
	}
}

// ListByRental handles GET /api/v1/rentals/{id}/audit.
func (h *AuditHandler) ListByRental(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(rentalID); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.reader.ListAuditEventsByRental(r.Context(), rentalID, limit)
	if err != nil {
		h.logger.Error("audit_list_failed", "rental_id", rentalID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if events == nil {
		events = []*model.CaptureAuditEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// writeError writes an error response.
func (h *AuditHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
