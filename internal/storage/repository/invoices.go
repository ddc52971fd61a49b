package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lomal-tg/lomal-backend/internal/models"
)

// InsertInvoice persists a freshly created pending invoice.
func (s *Storage) InsertInvoice(ctx context.Context, inv models.Invoice) error {
	const op = "storage.InsertInvoice"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO invoices (id, reference, amount, description,
			      customer_name, customer_phone, status, payment_method,
			      provider_token, provider_url, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.DB.ExecContext(ctx, query,
		inv.ID, inv.Reference, inv.Amount, inv.Description,
		inv.CustomerName, inv.CustomerPhone, inv.Status, inv.PaymentMethod,
		inv.ProviderToken, inv.ProviderURL, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetInvoiceByReference returns the invoice stored under a transaction
// reference. The boolean reports whether one exists.
func (s *Storage) GetInvoiceByReference(ctx context.Context, reference string) (*models.Invoice, bool, error) {
	const op = "storage.GetInvoiceByReference"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, amount, description, customer_name,
			      customer_phone, status, payment_method, provider_token,
			      provider_url, created_at, completed_at
			  FROM invoices
			  WHERE reference = $1`
	inv, err := scanInvoice(s.DB.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return inv, true, nil
}

// ResolveInvoice atomically moves a pending invoice to a terminal status.
// The WHERE status = 'pending' clause is the compare-and-set that serializes
// concurrent settlement attempts on the same reference: exactly one caller
// observes moved == true. completedAt must be non-nil only for the
// completed status.
func (s *Storage) ResolveInvoice(ctx context.Context, reference string, status models.InvoiceStatus, completedAt *time.Time) (bool, error) {
	const op = "storage.ResolveInvoice"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if !status.Terminal() {
		return false, fmt.Errorf("%s: status %s is not terminal", op, status)
	}

	query := `UPDATE invoices
			  SET status = $1, completed_at = $2
			  WHERE reference = $3 AND status = 'pending'`
	tag, err := s.DB.ExecContext(ctx, query, status, completedAt, reference)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	moved, err := tag.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return moved == 1, nil
}

// ListInvoicesByPhone returns the invoice history of a customer, newest
// first.
func (s *Storage) ListInvoicesByPhone(ctx context.Context, phone string, limit, offset int) ([]*models.Invoice, error) {
	const op = "storage.ListInvoicesByPhone"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, amount, description, customer_name,
			      customer_phone, status, payment_method, provider_token,
			      provider_url, created_at, completed_at
			  FROM invoices
			  WHERE customer_phone = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, phone, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Invoice
	for rows.Next() {
		inv := &models.Invoice{}
		var completedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.Reference, &inv.Amount, &inv.Description,
			&inv.CustomerName, &inv.CustomerPhone, &inv.Status, &inv.PaymentMethod,
			&inv.ProviderToken, &inv.ProviderURL, &inv.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if completedAt.Valid {
			inv.CompletedAt = &completedAt.Time
		}
		result = append(result, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanInvoice(row *sql.Row) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var completedAt sql.NullTime
	if err := row.Scan(&inv.ID, &inv.Reference, &inv.Amount, &inv.Description,
		&inv.CustomerName, &inv.CustomerPhone, &inv.Status, &inv.PaymentMethod,
		&inv.ProviderToken, &inv.ProviderURL, &inv.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		inv.CompletedAt = &completedAt.Time
	}
	return inv, nil
}
