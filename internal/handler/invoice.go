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

// InvoiceHandler handles HTTP requests for billing operations.
type InvoiceHandler struct {
	svc    *service.InvoiceService
	logger *slog.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(svc *service.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		svc:    svc,
		logger: logger,
	}
}

// Generate handles POST /api/v1/invoices.
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	invoice, err := h.svc.GenerateInvoice(r.Context(), req.RentalID, req.Month)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("invoice_generated",
		"invoice_id", invoice.ID,
		"rental_id", invoice.RentalID,
		"month", invoice.Month,
		"total", invoice.Total,
	)

	writeJSON(w, http.StatusCreated, invoice)
}

// Get handles GET /api/v1/invoices/{id}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.svc.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}

// List handles GET /api/v1/invoices.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.PaymentStatus(r.URL.Query().Get("status"))

	invoices, err := h.svc.ListInvoices(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

// ListByRental handles GET /api/v1/rentals/{id}/invoices.
func (h *InvoiceHandler) ListByRental(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoicesByRental(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

// Pay handles POST /api/v1/invoices/{id}/pay.
func (h *InvoiceHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req dto.PayInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	invoice, err := h.svc.MarkPaid(r.Context(), chi.URLParam(r, "id"), req.PaymentMethod, req.TransactionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("invoice_paid",
		"invoice_id", invoice.ID,
		"method", invoice.PaymentMethod,
	)

	writeJSON(w, http.StatusOK, invoice)
}

// Fail handles POST /api/v1/invoices/{id}/fail.
func (h *InvoiceHandler) Fail(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.svc.MarkFailed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Warn("invoice_payment_failed", "invoice_id", invoice.ID)

	writeJSON(w, http.StatusOK, invoice)
}

// handleServiceError maps billing service errors to HTTP responses.
func (h *InvoiceHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvoiceNotFound):
		h.writeError(w, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
	case errors.Is(err, service.ErrRentalNotFound):
		h.writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "Rental not found")
	case errors.Is(err, service.ErrInvoiceExists):
		h.writeError(w, http.StatusConflict, "INVOICE_EXISTS", "Invoice already generated for this month")
	case errors.Is(err, service.ErrInvoicePaid):
		h.writeError(w, http.StatusConflict, "INVOICE_PAID", "Invoice already paid")
	case errors.Is(err, service.ErrInvalidMonth):
		h.writeError(w, http.StatusBadRequest, "INVALID_MONTH", "month must be in YYYY-MM format")
	case errors.Is(err, service.ErrMissingMeterReadings):
		h.writeError(w, http.StatusUnprocessableEntity, "MISSING_READINGS", "Confirmed meter readings required before invoicing")
	case errors.Is(err, service.ErrMeterNotConfirmed):
		h.writeError(w, http.StatusUnprocessableEntity, "METER_NOT_CONFIRMED", "Meter reading not confirmed")
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		h.writeError(w, http.StatusBadRequest, "INVALID_PAYMENT_METHOD", "Invalid payment method")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *InvoiceHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
