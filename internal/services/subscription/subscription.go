// Package subscription implements the subscription state machine: the
// entitlement predicate, time-bounded activation and expiry arithmetic.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lomal-tg/lomal-backend/internal/models"
)

// UserRepository is the identity persistence consumed by the service.
type UserRepository interface {
	// GetUserByID returns the identity with the given id.
	GetUserByID(ctx context.Context, id string) (*models.User, bool, error)
	// UpdateSubscription sets the subscription flag and expiry and returns
	// the updated identity.
	UpdateSubscription(ctx context.Context, id string, active bool, expiry *time.Time) (*models.User, error)
}

// IsEntitled reports whether the identity currently has access to gated
// features: the subscription flag is set and the expiry, when present, is
// still in the future. Pure, no side effects.
func IsEntitled(u *models.User, now time.Time) bool {
	if u == nil || !u.SubscriptionActive {
		return false
	}
	return u.SubscriptionExpiry == nil || u.SubscriptionExpiry.After(now)
}

// DaysRemaining returns ceil(expiry - now) in days, clamped at zero when
// the subscription is expired, inactive or has no expiry.
func DaysRemaining(u *models.User, now time.Time) int {
	if u == nil || !u.SubscriptionActive || u.SubscriptionExpiry == nil {
		return 0
	}
	left := u.SubscriptionExpiry.Sub(now)
	if left <= 0 {
		return 0
	}
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Service mutates subscription state through the injected repository.
type Service struct {
	repo         UserRepository
	durationDays int
	log          *slog.Logger
}

// New creates the subscription service. durationDays is the paid window
// granted per activation.
func New(repo UserRepository, durationDays int, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		durationDays: durationDays,
		log:          log,
	}
}

// Activate marks the identity active with expiry = now + duration.
// Activating again before the previous window ends resets the window from
// now; durations never stack.
func (s *Service) Activate(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	const op = "subscription.Activate"

	expiry := now.AddDate(0, 0, s.durationDays)
	user, err := s.repo.UpdateSubscription(ctx, userID, true, &expiry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription activated",
		slog.String("user_id", userID),
		slog.Time("expiry", expiry))
	return user, nil
}

// Status re-reads the identity from storage and derives entitlement from
// the stored truth. Client-held subscription state is never trusted.
func (s *Service) Status(ctx context.Context, userID string, now time.Time) (*models.User, bool, int, error) {
	const op = "subscription.Status"

	user, found, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, false, 0, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, 0, fmt.Errorf("%s: user %s not found", op, userID)
	}
	return user, IsEntitled(user, now), DaysRemaining(user, now), nil
}
