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

// IssueHandler handles HTTP requests for maintenance issue operations.
type IssueHandler struct {
	svc    *service.IssueService
	logger *slog.Logger
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(svc *service.IssueService, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/issues.
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	issue, err := h.svc.CreateIssue(r.Context(), service.CreateIssueInput{
		RentalID:    req.RentalID,
		Title:       req.Title,
		Description: req.Description,
		MediaURLs:   req.MediaURLs,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("issue_created", "issue_id", issue.ID, "rental_id", issue.RentalID)

	writeJSON(w, http.StatusCreated, issue)
}

// Get handles GET /api/v1/issues/{id}.
func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	issue, err := h.svc.GetIssue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issue)
}

// List handles GET /api/v1/issues.
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.IssueStatus(r.URL.Query().Get("status"))

	issues, err := h.svc.ListIssues(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issues)
}

// ListByRental handles GET /api/v1/rentals/{id}/issues.
func (h *IssueHandler) ListByRental(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.ListIssuesByRental(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issues)
}

// UpdateStatus handles PATCH /api/v1/issues/{id}.
func (h *IssueHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateIssueStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	issue, err := h.svc.UpdateIssueStatus(r.Context(), chi.URLParam(r, "id"), model.IssueStatus(req.Status))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("issue_status_updated", "issue_id", issue.ID, "status", issue.Status)

	writeJSON(w, http.StatusOK, issue)
}

// handleServiceError maps issue service errors to HTTP responses.
func (h *IssueHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrIssueNotFound):
		h.writeError(w, http.StatusNotFound, "ISSUE_NOT_FOUND", "Issue not found")
	case errors.Is(err, service.ErrRentalNotFound):
		h.writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "Rental not found")
	case errors.Is(err, service.ErrNotActiveRental):
		h.writeError(w, http.StatusConflict, "RENTAL_ENDED", "Rental is not active")
	case errors.Is(err, service.ErrInvalidIssueTitle):
		h.writeError(w, http.StatusBadRequest, "INVALID_TITLE", "Issue title is required")
	case errors.Is(err, service.ErrInvalidIssueStatus):
		h.writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be pending, processing, or done")
	case errors.Is(err, service.ErrTooManyMediaURLs):
		h.writeError(w, http.StatusBadRequest, "TOO_MANY_MEDIA", "Too many media attachments")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *IssueHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
