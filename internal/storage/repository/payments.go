package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lomal-tg/lomal-backend/internal/models"
)

// ErrDuplicateReference is returned when the ledger already holds a row
// for an invoice reference.
var ErrDuplicateReference = errors.New("ledger row for this reference already exists")

// InsertPayment writes a durable ledger row. Only called after an invoice
// reached completed; the unique index on reference makes a double insert
// for the same settlement fail loudly instead of double-counting revenue.
func (s *Storage) InsertPayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.InsertPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (id, user_id, user_name, user_phone, amount,
			      type, status, reference, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id, user_id, user_name, user_phone, amount, type,
			      status, reference, created_at`
	out := &models.Payment{}
	err := s.DB.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.UserName, p.UserPhone, p.Amount,
		p.Type, p.Status, p.Reference, p.CreatedAt).
		Scan(&out.ID, &out.UserID, &out.UserName, &out.UserPhone, &out.Amount,
			&out.Type, &out.Status, &out.Reference, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateReference)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ListPayments returns ledger rows newest first, for the admin revenue view.
func (s *Storage) ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, user_name, user_phone, amount, type,
			      status, reference, created_at
			  FROM payments
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserPhone, &p.Amount,
			&p.Type, &p.Status, &p.Reference, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
