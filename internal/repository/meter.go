package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roomify/roomify/internal/model"
)

// Common errors for meter repository operations.
var (
	ErrMeterNotFound = errors.New("meter reading not found")
	ErrMeterExists   = errors.New("meter reading already exists for this month")
)

const meterColumns = `id, rental_id, type, month, old_value, new_value, ocr_value, image_url, confirmed, created_at`

// CreateMeter inserts a new meter reading. The (rental, type, month) triple
// is unique.
func (r *Repository) CreateMeter(ctx context.Context, meter *model.Meter) error {
	query := `
		INSERT INTO meters (id, rental_id, type, month, old_value, new_value, ocr_value, image_url, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		meter.ID,
		meter.RentalID,
		meter.Type,
		meter.Month,
		meter.OldValue,
		meter.NewValue,
		meter.OCRValue,
		meter.ImageURL,
		meter.Confirmed,
		meter.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrMeterExists
		}
		return fmt.Errorf("failed to create meter reading: %w", err)
	}

	return nil
}

// GetMeterByID retrieves a meter reading by its ID.
func (r *Repository) GetMeterByID(ctx context.Context, id string) (*model.Meter, error) {
	query := `SELECT ` + meterColumns + ` FROM meters WHERE id = $1`

	meter, err := scanMeter(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeterNotFound
		}
		return nil, fmt.Errorf("failed to get meter by ID: %w", err)
	}

	return meter, nil
}

// GetMeterByRentalTypeMonth retrieves one reading for a rental/type/month.
func (r *Repository) GetMeterByRentalTypeMonth(ctx context.Context, rentalID string, meterType model.MeterType, month string) (*model.Meter, error) {
	query := `SELECT ` + meterColumns + ` FROM meters WHERE rental_id = $1 AND type = $2 AND month = $3`

	meter, err := scanMeter(r.pool.QueryRow(ctx, query, rentalID, meterType, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeterNotFound
		}
		return nil, fmt.Errorf("failed to get meter by rental/type/month: %w", err)
	}

	return meter, nil
}

// GetLastConfirmedMeter returns the most recent confirmed reading for a
// rental and meter type. Used to carry the old value into a new month.
func (r *Repository) GetLastConfirmedMeter(ctx context.Context, rentalID string, meterType model.MeterType) (*model.Meter, error) {
	query := `
		SELECT ` + meterColumns + `
		FROM meters
		WHERE rental_id = $1 AND type = $2 AND confirmed = true
		ORDER BY month DESC
		LIMIT 1
	`

	meter, err := scanMeter(r.pool.QueryRow(ctx, query, rentalID, meterType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeterNotFound
		}
		return nil, fmt.Errorf("failed to get last confirmed meter: %w", err)
	}

	return meter, nil
}

// ListMetersByRentalID retrieves all readings for a rental.
func (r *Repository) ListMetersByRentalID(ctx context.Context, rentalID string) ([]*model.Meter, error) {
	query := `SELECT ` + meterColumns + ` FROM meters WHERE rental_id = $1 ORDER BY month DESC, type`

	rows, err := r.pool.Query(ctx, query, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meters: %w", err)
	}
	defer rows.Close()

	var meters []*model.Meter
	for rows.Next() {
		meter, err := scanMeter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meter: %w", err)
		}
		meters = append(meters, meter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meters: %w", err)
	}

	return meters, nil
}

// UpdateMeter updates the reading values and confirmation state.
func (r *Repository) UpdateMeter(ctx context.Context, meter *model.Meter) error {
	query := `
		UPDATE meters
		SET new_value = $2, ocr_value = $3, image_url = $4, confirmed = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		meter.ID,
		meter.NewValue,
		meter.OCRValue,
		meter.ImageURL,
		meter.Confirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to update meter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeterNotFound
	}

	return nil
}

// DeleteMeter removes a meter reading.
func (r *Repository) DeleteMeter(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeterNotFound
	}
	return nil
}

// scanMeter scans a meter from a row.
func scanMeter(row pgx.Row) (*model.Meter, error) {
	var meter model.Meter
	err := row.Scan(
		&meter.ID,
		&meter.RentalID,
		&meter.Type,
		&meter.Month,
		&meter.OldValue,
		&meter.NewValue,
		&meter.OCRValue,
		&meter.ImageURL,
		&meter.Confirmed,
		&meter.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &meter, nil
}
