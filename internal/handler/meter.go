package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomify/roomify/internal/handler/dto"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/service"
)

// MeterHandler handles HTTP requests for meter reading operations.
type MeterHandler struct {
	svc    *service.MeterService
	logger *slog.Logger
}

// NewMeterHandler creates a new MeterHandler.
func NewMeterHandler(svc *service.MeterService, logger *slog.Logger) *MeterHandler {
	return &MeterHandler{
		svc:    svc,
		logger: logger,
	}
}

// Record handles POST /api/v1/meters.
func (h *MeterHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordMeterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	meter, err := h.svc.RecordReading(r.Context(), service.RecordReadingInput{
		RentalID: req.RentalID,
		Type:     model.MeterType(req.Type),
		Month:    req.Month,
		NewValue: req.NewValue,
		OCRValue: req.OCRValue,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("meter_recorded",
		"meter_id", meter.ID,
		"rental_id", meter.RentalID,
		"type", meter.Type,
		"month", meter.Month,
	)

	writeJSON(w, http.StatusCreated, meter)
}

// Get handles GET /api/v1/meters/{id}.
func (h *MeterHandler) Get(w http.ResponseWriter, r *http.Request) {
	meter, err := h.svc.GetMeter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meter)
}

// ListByRental handles GET /api/v1/rentals/{id}/meters.
func (h *MeterHandler) ListByRental(w http.ResponseWriter, r *http.Request) {
	meters, err := h.svc.ListMetersByRental(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meters)
}

// Confirm handles POST /api/v1/meters/{id}/confirm.
func (h *MeterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmMeterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	meter, err := h.svc.ConfirmReading(r.Context(), chi.URLParam(r, "id"), req.CorrectedValue)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("meter_confirmed", "meter_id", meter.ID, "new_value", meter.NewValue)

	writeJSON(w, http.StatusOK, meter)
}

// Delete handles DELETE /api/v1/meters/{id}.
func (h *MeterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteReading(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("meter_deleted", "meter_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps meter service errors to HTTP responses.
func (h *MeterHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMeterNotFound):
		h.writeError(w, http.StatusNotFound, "METER_NOT_FOUND", "Meter reading not found")
	case errors.Is(err, service.ErrRentalNotFound):
		h.writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "Rental not found")
	case errors.Is(err, service.ErrNotActiveRental):
		h.writeError(w, http.StatusConflict, "RENTAL_ENDED", "Rental is not active")
	case errors.Is(err, service.ErrMeterExists):
		h.writeError(w, http.StatusConflict, "METER_EXISTS", "Meter reading already submitted for this month")
	case errors.Is(err, service.ErrInvalidMeterType):
		h.writeError(w, http.StatusBadRequest, "INVALID_METER_TYPE", `meter_type must be "electric" or "water"`)
	case errors.Is(err, service.ErrInvalidMonth):
		h.writeError(w, http.StatusBadRequest, "INVALID_MONTH", "month must be in YYYY-MM format")
	case errors.Is(err, service.ErrInvalidReading):
		h.writeError(w, http.StatusBadRequest, "INVALID_READING", "New value must not be less than old value")
	case errors.Is(err, service.ErrMeterConfirmed):
		h.writeError(w, http.StatusConflict, "METER_CONFIRMED", "Meter reading already confirmed")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *MeterHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
