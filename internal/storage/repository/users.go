package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lomal-tg/lomal-backend/internal/models"
)

// GetUserByPhone returns the identity stored under a normalized phone
// number. The boolean reports whether one exists.
func (s *Storage) GetUserByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	const op = "storage.GetUserByPhone"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, phone, subscription_active, subscription_expiry,
			      is_admin, created_at
			  FROM users
			  WHERE phone = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, true, nil
}

// GetUserByID returns the identity with the given id.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, phone, subscription_active, subscription_expiry,
			      is_admin, created_at
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, true, nil
}

// UpsertUser inserts a new identity or, when the phone is already taken,
// refreshes the display name. created_at and subscription state stay
// untouched on conflict.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, name, phone, subscription_active, is_admin)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name
			  RETURNING id, name, phone, subscription_active, subscription_expiry,
			      is_admin, created_at`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Phone, user.SubscriptionActive, user.IsAdmin))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscription sets the subscription flag and expiry of an identity
// and returns the updated row.
func (s *Storage) UpdateSubscription(ctx context.Context, id string, active bool, expiry *time.Time) (*models.User, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_active = $1, subscription_expiry = $2
			  WHERE id = $3
			  RETURNING id, name, phone, subscription_active, subscription_expiry,
			      is_admin, created_at`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, active, expiry, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var expiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.SubscriptionActive,
		&expiry, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		u.SubscriptionExpiry = &expiry.Time
	}
	return u, nil
}
