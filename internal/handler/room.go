package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomify/roomify/internal/auth"
	"github.com/roomify/roomify/internal/handler/dto"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/service"
)

// RoomHandler handles HTTP requests for room operations.
type RoomHandler struct {
	svc    *service.RoomService
	logger *slog.Logger
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(svc *service.RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/rooms.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	authCtx := auth.MustAuthFromContext(r.Context())

	room, err := h.svc.CreateRoom(r.Context(), service.CreateRoomInput{
		RoomCode:      req.RoomCode,
		Price:         req.Price,
		ElectricPrice: req.ElectricPrice,
		WaterPrice:    req.WaterPrice,
		ExtraFee:      req.ExtraFee,
		AdminID:       authCtx.UserID,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("room_created", "room_id", room.ID, "room_code", room.RoomCode)

	writeJSON(w, http.StatusCreated, room)
}

// Get handles GET /api/v1/rooms/{id}.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.svc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// List handles GET /api/v1/rooms.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RoomStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		h.writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be vacant or occupied")
		return
	}

	rooms, err := h.svc.ListRooms(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rooms)
}

// Update handles PATCH /api/v1/rooms/{id}.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	room, err := h.svc.UpdateRoom(r.Context(), service.UpdateRoomInput{
		ID:            chi.URLParam(r, "id"),
		Price:         req.Price,
		ElectricPrice: req.ElectricPrice,
		WaterPrice:    req.WaterPrice,
		ExtraFee:      req.ExtraFee,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("room_updated", "room_id", room.ID)

	writeJSON(w, http.StatusOK, room)
}

// Delete handles DELETE /api/v1/rooms/{id}.
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteRoom(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("room_deleted", "room_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps room service errors to HTTP responses.
func (h *RoomHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		h.writeError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
	case errors.Is(err, service.ErrRoomCodeExists):
		h.writeError(w, http.StatusConflict, "ROOM_CODE_TAKEN", "Room code already exists")
	case errors.Is(err, service.ErrInvalidRoomCode):
		h.writeError(w, http.StatusBadRequest, "INVALID_ROOM_CODE", "Invalid room code")
	case errors.Is(err, service.ErrInvalidPrice):
		h.writeError(w, http.StatusBadRequest, "INVALID_PRICE", "Prices must be non-negative")
	case errors.Is(err, service.ErrRoomOccupied):
		h.writeError(w, http.StatusConflict, "ROOM_OCCUPIED", "Room is currently occupied")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *RoomHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
