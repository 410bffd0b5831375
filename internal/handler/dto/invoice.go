package dto

// GenerateInvoiceRequest represents the request body for generating a bill.
type GenerateInvoiceRequest struct {
	RentalID string `json:"rental_id"`
	Month    string `json:"month"`
}

// PayInvoiceRequest represents the request body for settling an invoice.
type PayInvoiceRequest struct {
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id,omitempty"`
}
