package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
)

// Meter service errors.
var (
	ErrMeterNotFound     = errors.New("meter reading not found")
	ErrMeterExists       = errors.New("meter reading already submitted for this month")
	ErrInvalidMeterType  = errors.New("invalid meter type")
	ErrInvalidMonth      = errors.New("invalid month format, expected YYYY-MM")
	ErrInvalidReading    = errors.New("new value must not be less than old value")
	ErrMeterConfirmed    = errors.New("meter reading already confirmed")
	ErrMeterNotConfirmed = errors.New("meter reading not confirmed")
)

// Month validation: YYYY-MM.
var monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MeterService handles meter reading business logic.
type MeterService struct {
	repo *repository.Repository
}

// NewMeterService creates a new MeterService.
func NewMeterService(repo *repository.Repository) *MeterService {
	return &MeterService{repo: repo}
}

// RecordReadingInput defines input for submitting a meter reading.
type RecordReadingInput struct {
	RentalID string
	Type     model.MeterType
	Month    string
	NewValue float64
	OCRValue float64
	ImageURL string
}

// RecordReading submits a meter reading for a rental month. The old value
// is carried over from the last confirmed reading of the same type, so
// consumption is always computed against a verified baseline.
func (s *MeterService) RecordReading(ctx context.Context, input RecordReadingInput) (*model.Meter, error) {
	if !input.Type.IsValid() {
		return nil, ErrInvalidMeterType
	}
	if !monthRegex.MatchString(input.Month) {
		return nil, ErrInvalidMonth
	}

	rental, err := s.repo.GetRentalByID(ctx, input.RentalID)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	if !rental.IsActive() {
		return nil, ErrNotActiveRental
	}

	// One reading per rental, type, and month.
	if _, err := s.repo.GetMeterByRentalTypeMonth(ctx, input.RentalID, input.Type, input.Month); err == nil {
		return nil, ErrMeterExists
	} else if !errors.Is(err, repository.ErrMeterNotFound) {
		return nil, err
	}

	oldValue := 0.0
	last, err := s.repo.GetLastConfirmedMeter(ctx, input.RentalID, input.Type)
	if err == nil {
		oldValue = last.NewValue
	} else if !errors.Is(err, repository.ErrMeterNotFound) {
		return nil, err
	}

	if input.NewValue < oldValue {
		return nil, ErrInvalidReading
	}

	meter := &model.Meter{
		ID:        ulid.Make().String(),
		RentalID:  input.RentalID,
		Type:      input.Type,
		Month:     input.Month,
		OldValue:  oldValue,
		NewValue:  input.NewValue,
		OCRValue:  input.OCRValue,
		ImageURL:  input.ImageURL,
		Confirmed: false,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateMeter(ctx, meter); err != nil {
		if errors.Is(err, repository.ErrMeterExists) {
			return nil, ErrMeterExists
		}
		return nil, fmt.Errorf("failed to create meter reading: %w", err)
	}

	return meter, nil
}

// GetMeter retrieves a meter reading by ID.
func (s *MeterService) GetMeter(ctx context.Context, id string) (*model.Meter, error) {
	meter, err := s.repo.GetMeterByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMeterNotFound) {
			return nil, ErrMeterNotFound
		}
		return nil, err
	}
	return meter, nil
}

// ListMetersByRental retrieves all readings for a rental.
func (s *MeterService) ListMetersByRental(ctx context.Context, rentalID string) ([]*model.Meter, error) {
	return s.repo.ListMetersByRentalID(ctx, rentalID)
}

// ConfirmReading marks a reading as verified by the admin. The new value
// may be corrected at confirmation time when the submitted value was
// misread.
func (s *MeterService) ConfirmReading(ctx context.Context, id string, correctedValue *float64) (*model.Meter, error) {
	meter, err := s.repo.GetMeterByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMeterNotFound) {
			return nil, ErrMeterNotFound
		}
		return nil, err
	}

	if meter.Confirmed {
		return nil, ErrMeterConfirmed
	}

	if correctedValue != nil {
		if *correctedValue < meter.OldValue {
			return nil, ErrInvalidReading
		}
		meter.NewValue = *correctedValue
	}
	meter.Confirmed = true

	if err := s.repo.UpdateMeter(ctx, meter); err != nil {
		return nil, err
	}

	return meter, nil
}

// DeleteReading removes an unconfirmed reading so it can be resubmitted.
func (s *MeterService) DeleteReading(ctx context.Context, id string) error {
	meter, err := s.repo.GetMeterByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMeterNotFound) {
			return ErrMeterNotFound
		}
		return err
	}

	if meter.Confirmed {
		return ErrMeterConfirmed
	}

	return s.repo.DeleteMeter(ctx, id)
}
