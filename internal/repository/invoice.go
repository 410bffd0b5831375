package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roomify/roomify/internal/model"
)

// Common errors for invoice repository operations.
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceExists   = errors.New("invoice already exists for this month")
)

const invoiceColumns = `id, rental_id, month, room_price, electric_cost, water_cost, extra_fee, total, payment_method, payment_status, transaction_id, paid_at, created_at`

// CreateInvoice inserts a new invoice. The (rental, month) pair is unique.
func (r *Repository) CreateInvoice(ctx context.Context, invoice *model.Invoice) error {
	query := `
		INSERT INTO invoices (id, rental_id, month, room_price, electric_cost, water_cost, extra_fee, total, payment_method, payment_status, transaction_id, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		invoice.ID,
		invoice.RentalID,
		invoice.Month,
		invoice.RoomPrice,
		invoice.ElectricCost,
		invoice.WaterCost,
		invoice.ExtraFee,
		invoice.Total,
		invoice.PaymentMethod,
		invoice.PaymentStatus,
		invoice.TransactionID,
		invoice.PaidAt,
		invoice.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrInvoiceExists
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// GetInvoiceByID retrieves an invoice by its ID.
func (r *Repository) GetInvoiceByID(ctx context.Context, id string) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	invoice, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by ID: %w", err)
	}

	return invoice, nil
}

// GetInvoiceByRentalAndMonth retrieves the invoice for a rental/month pair.
func (r *Repository) GetInvoiceByRentalAndMonth(ctx context.Context, rentalID, month string) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE rental_id = $1 AND month = $2`

	invoice, err := scanInvoice(r.pool.QueryRow(ctx, query, rentalID, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by rental and month: %w", err)
	}

	return invoice, nil
}

// ListInvoicesByRentalID retrieves all invoices for a rental.
func (r *Repository) ListInvoicesByRentalID(ctx context.Context, rentalID string) ([]*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE rental_id = $1 ORDER BY month DESC`
	return r.queryInvoices(ctx, query, rentalID)
}

// ListInvoicesByStatus retrieves all invoices with a given payment status.
func (r *Repository) ListInvoicesByStatus(ctx context.Context, status model.PaymentStatus) ([]*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE payment_status = $1 ORDER BY month DESC`
	return r.queryInvoices(ctx, query, status)
}

// UpdateInvoicePayment records a payment state transition.
func (r *Repository) UpdateInvoicePayment(ctx context.Context, invoice *model.Invoice) error {
	query := `
		UPDATE invoices
		SET payment_method = $2, payment_status = $3, transaction_id = $4, paid_at = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		invoice.ID,
		invoice.PaymentMethod,
		invoice.PaymentStatus,
		invoice.TransactionID,
		invoice.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}

	return nil
}

func (r *Repository) queryInvoices(ctx context.Context, query string, args ...any) ([]*model.Invoice, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*model.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// scanInvoice scans an invoice from a row.
func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var invoice model.Invoice
	err := row.Scan(
		&invoice.ID,
		&invoice.RentalID,
		&invoice.Month,
		&invoice.RoomPrice,
		&invoice.ElectricCost,
		&invoice.WaterCost,
		&invoice.ExtraFee,
		&invoice.Total,
		&invoice.PaymentMethod,
		&invoice.PaymentStatus,
		&invoice.TransactionID,
		&invoice.PaidAt,
		&invoice.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
