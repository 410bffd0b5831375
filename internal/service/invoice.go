package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/metrics"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
)

// Invoice service errors.
var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceExists        = errors.New("invoice already generated for this month")
	ErrInvoicePaid          = errors.New("invoice already paid")
	ErrMissingMeterReadings = errors.New("confirmed meter readings required before invoicing")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// validPaymentMethods are the accepted settlement channels.
var validPaymentMethods = map[string]bool{
	model.MethodSepay: true,
	model.MethodMomo:  true,
	model.MethodZalo:  true,
	model.MethodCash:  true,
}

// InvoiceService handles monthly billing business logic.
type InvoiceService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(repo *repository.Repository, recorder metrics.Recorder) *InvoiceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &InvoiceService{repo: repo, metrics: recorder}
}

// GenerateInvoice builds the bill for a rental month from confirmed meter
// readings and the room's unit prices.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, rentalID, month string) (*model.Invoice, error) {
	if !monthRegex.MatchString(month) {
		return nil, ErrInvalidMonth
	}

	rental, err := s.repo.GetRentalByID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}

	room, err := s.repo.GetRoomByID(ctx, rental.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rental room: %w", err)
	}

	// One invoice per rental and month.
	if _, err := s.repo.GetInvoiceByRentalAndMonth(ctx, rentalID, month); err == nil {
		return nil, ErrInvoiceExists
	} else if !errors.Is(err, repository.ErrInvoiceNotFound) {
		return nil, err
	}

	electric, err := s.confirmedMeter(ctx, rentalID, model.MeterElectric, month)
	if err != nil {
		return nil, err
	}
	water, err := s.confirmedMeter(ctx, rentalID, model.MeterWater, month)
	if err != nil {
		return nil, err
	}

	electricCost := utilityCost(electric.Consumption(), room.ElectricPrice)
	waterCost := utilityCost(water.Consumption(), room.WaterPrice)

	invoice := &model.Invoice{
		ID:            ulid.Make().String(),
		RentalID:      rentalID,
		Month:         month,
		RoomPrice:     room.Price,
		ElectricCost:  electricCost,
		WaterCost:     waterCost,
		ExtraFee:      room.ExtraFee,
		Total:         room.Price + electricCost + waterCost + room.ExtraFee,
		PaymentStatus: model.PaymentUnpaid,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrInvoiceExists) {
			return nil, ErrInvoiceExists
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.metrics.IncInvoiceGenerated()

	return invoice, nil
}

// GetInvoice retrieves an invoice by ID.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// ListInvoicesByRental retrieves all invoices for a rental.
func (s *InvoiceService) ListInvoicesByRental(ctx context.Context, rentalID string) ([]*model.Invoice, error) {
	return s.repo.ListInvoicesByRentalID(ctx, rentalID)
}

// ListInvoices retrieves invoices, optionally filtered by payment status.
func (s *InvoiceService) ListInvoices(ctx context.Context, status model.PaymentStatus) ([]*model.Invoice, error) {
	return s.repo.ListInvoicesByStatus(ctx, status)
}

// MarkPaid settles an invoice with the given method and transaction ID.
func (s *InvoiceService) MarkPaid(ctx context.Context, id, method, transactionID string) (*model.Invoice, error) {
	if !validPaymentMethods[method] {
		return nil, ErrInvalidPaymentMethod
	}

	invoice, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	if invoice.IsPaid() {
		return nil, ErrInvoicePaid
	}

	now := time.Now().UTC()
	invoice.PaymentStatus = model.PaymentPaid
	invoice.PaymentMethod = method
	invoice.TransactionID = transactionID
	invoice.PaidAt = &now

	if err := s.repo.UpdateInvoicePayment(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// MarkFailed records a failed payment attempt on an invoice.
func (s *InvoiceService) MarkFailed(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	if invoice.IsPaid() {
		return nil, ErrInvoicePaid
	}

	invoice.PaymentStatus = model.PaymentFailed

	if err := s.repo.UpdateInvoicePayment(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// confirmedMeter fetches the confirmed reading for a type and month.
func (s *InvoiceService) confirmedMeter(ctx context.Context, rentalID string, meterType model.MeterType, month string) (*model.Meter, error) {
	meter, err := s.repo.GetMeterByRentalTypeMonth(ctx, rentalID, meterType, month)
	if err != nil {
		if errors.Is(err, repository.ErrMeterNotFound) {
			return nil, ErrMissingMeterReadings
		}
		return nil, err
	}
	if !meter.Confirmed {
		return nil, ErrMeterNotConfirmed
	}
	return meter, nil
}

// utilityCost converts metered consumption to a cost at the given unit
// price, rounding to the nearest whole currency unit.
func utilityCost(consumption float64, unitPrice int64) int64 {
	if consumption <= 0 {
		return 0
	}
	return int64(math.Round(consumption * float64(unitPrice)))
}
