// Package model defines domain entities for the application.
package model

import "time"

// PaymentStatus represents the payment state of an invoice.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// PaymentMethod constants for how an invoice was settled.
const (
	MethodSepay = "Sepay"
	MethodMomo  = "Momo"
	MethodZalo  = "Zalo"
	MethodCash  = "Cash"
)

// Invoice represents the monthly bill for a rental: base room price plus
// metered utility costs and any fixed extra fee.
type Invoice struct {
	ID            string        `json:"invoice_id"`
	RentalID      string        `json:"rental_id"`
	Month         string        `json:"month"` // YYYY-MM
	RoomPrice     int64         `json:"room_price"`
	ElectricCost  int64         `json:"electric_cost"`
	WaterCost     int64         `json:"water_cost"`
	ExtraFee      int64         `json:"extra_fee"`
	Total         int64         `json:"total"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// IsPaid returns true once the invoice has been settled.
func (i *Invoice) IsPaid() bool {
	return i.PaymentStatus == PaymentPaid
}
