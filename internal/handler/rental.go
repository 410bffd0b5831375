package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomify/roomify/internal/auth"
	"github.com/roomify/roomify/internal/handler/dto"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/service"
)

// RentalHandler handles HTTP requests for rental contract operations.
type RentalHandler struct {
	svc    *service.RentalService
	logger *slog.Logger
}

// NewRentalHandler creates a new RentalHandler.
func NewRentalHandler(svc *service.RentalService, logger *slog.Logger) *RentalHandler {
	return &RentalHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/rentals.
func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateRentalInput{
		UserID: req.UserID,
		RoomID: req.RoomID,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}

	rental, err := h.svc.CreateRental(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("rental_created",
		"rental_id", rental.ID,
		"user_id", rental.UserID,
		"room_id", rental.RoomID,
	)

	writeJSON(w, http.StatusCreated, rental)
}

// Get handles GET /api/v1/rentals/{id}.
func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	rental, err := h.svc.GetRental(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	// Tenants may only read their own rentals.
	authCtx := auth.MustAuthFromContext(r.Context())
	if !authCtx.IsAdmin() && authCtx.UserID != rental.UserID {
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

// List handles GET /api/v1/rentals. Admins see all rentals; tenants see
// only their own.
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	if !authCtx.IsAdmin() {
		rentals, err := h.svc.ListRentalsByUser(r.Context(), authCtx.UserID)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rentals)
		return
	}

	status := model.RentalStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		h.writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be renting or ended")
		return
	}

	rentals, err := h.svc.ListRentals(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rentals)
}

// End handles POST /api/v1/rentals/{id}/end.
func (h *RentalHandler) End(w http.ResponseWriter, r *http.Request) {
	var req dto.EndRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	var endDate time.Time
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	rental, err := h.svc.EndRental(r.Context(), chi.URLParam(r, "id"), endDate)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("rental_ended", "rental_id", rental.ID, "room_id", rental.RoomID)

	writeJSON(w, http.StatusOK, rental)
}

// handleServiceError maps rental service errors to HTTP responses.
func (h *RentalHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRentalNotFound):
		h.writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "Rental not found")
	case errors.Is(err, service.ErrTenantNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrRoomNotFound):
		h.writeError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
	case errors.Is(err, service.ErrRoomNotVacant):
		h.writeError(w, http.StatusConflict, "ROOM_OCCUPIED", "Room already has an active rental")
	case errors.Is(err, service.ErrRentalEnded):
		h.writeError(w, http.StatusConflict, "RENTAL_ENDED", "Rental already ended")
	case errors.Is(err, service.ErrInvalidDates):
		h.writeError(w, http.StatusBadRequest, "INVALID_DATES", "End date must be after start date")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *RentalHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
