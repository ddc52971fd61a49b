// Package auth contains the session controller: phone-based registration
// with a verification challenge, name+phone login and session token
// issuance.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/lomal-tg/lomal-backend/internal/cache"
	"github.com/lomal-tg/lomal-backend/internal/config"
	"github.com/lomal-tg/lomal-backend/internal/lib/jwt"
	"github.com/lomal-tg/lomal-backend/internal/lib/phone"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/sms"

	"github.com/google/uuid"
)

// User-facing errors. These are surfaced directly with an actionable
// message and never retried automatically.
var (
	ErrDuplicatePhone = errors.New("an account with this phone already exists")
	ErrNoSuchAccount  = errors.New("no account with this phone")
	ErrNameMismatch   = errors.New("name does not match the account")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrExpired        = errors.New("verification challenge expired")
)

// UserRepository is the identity persistence consumed by the controller.
type UserRepository interface {
	GetUserByPhone(ctx context.Context, phone string) (*models.User, bool, error)
	UpsertUser(ctx context.Context, user models.User) (*models.User, error)
}

// ChallengeStore holds pending verification challenges between Register and
// ConfirmRegistration.
type ChallengeStore interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service implements registration, login and session token issuance.
type Service struct {
	users        UserRepository
	challenges   ChallengeStore
	sender       sms.Sender
	jwtMaker     jwt.Maker
	mode         string
	challengeTTL time.Duration
	log          *slog.Logger
}

// New creates the auth service. mode selects the verification strategy once
// at startup (config.VerificationLive or config.VerificationPermissive);
// there is no per-call fallback decision hidden in the flow.
func New(users UserRepository, challenges ChallengeStore, sender sms.Sender,
	jwtMaker jwt.Maker, cfg config.Verification, log *slog.Logger) *Service {
	return &Service{
		users:        users,
		challenges:   challenges,
		sender:       sender,
		jwtMaker:     jwtMaker,
		mode:         cfg.Mode,
		challengeTTL: cfg.ChallengeTTL,
		log:          log,
	}
}

// RegisterResult describes an issued verification challenge. Demo marks the
// permissive fallback where any well-formed 6-digit code will be accepted.
type RegisterResult struct {
	Phone     string
	Demo      bool
	ExpiresAt time.Time
}

// Register normalizes the phone, refuses phones that already have an
// identity and issues a verification challenge. No identity is created
// until ConfirmRegistration succeeds.
//
// Delivery failures in live mode degrade into the demo fallback instead of
// blocking registration. That is an availability-over-strictness trade-off
// inherited from the product; a production credential check must replace
// the fallback with a hard failure.
func (s *Service) Register(ctx context.Context, name, rawPhone string) (*RegisterResult, error) {
	const op = "auth.Register"

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, exists, err := s.users.GetUserByPhone(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, ErrDuplicatePhone
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	demo := s.mode == config.VerificationPermissive
	if !demo {
		if sendErr := s.sender.SendCode(ctx, normalized, code); sendErr != nil {
			s.log.Warn("code delivery failed, entering demo fallback",
				slog.String("phone", normalized), sl.Err(sendErr))
			demo = true
		}
	}

	challenge := models.VerificationChallenge{
		Name:      strings.TrimSpace(name),
		Phone:     normalized,
		Code:      code,
		Demo:      demo,
		ExpiresAt: time.Now().Add(s.challengeTTL),
	}
	if err := s.challenges.Set(cache.ChallengeKeyPrefix+normalized, challenge, s.challengeTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("verification challenge issued",
		slog.String("phone", normalized), slog.Bool("demo", demo))
	return &RegisterResult{Phone: normalized, Demo: demo, ExpiresAt: challenge.ExpiresAt}, nil
}

// ConfirmRegistration checks the submitted code against the outstanding
// challenge, creates the identity with an inactive subscription and returns
// it together with a session token.
func (s *Service) ConfirmRegistration(ctx context.Context, rawPhone, code string) (*models.User, string, error) {
	const op = "auth.ConfirmRegistration"

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	var challenge models.VerificationChallenge
	found, err := s.challenges.Get(cache.ChallengeKeyPrefix+normalized, &challenge)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, "", ErrExpired
	}
	if challenge.Expired(time.Now()) {
		_ = s.challenges.Invalidate(cache.ChallengeKeyPrefix + normalized)
		return nil, "", ErrExpired
	}

	if !wellFormedCode(code) {
		return nil, "", ErrInvalidCode
	}
	// In demo mode any well-formed 6-digit code passes. Not a security
	// boundary; see Register.
	if !challenge.Demo && code != challenge.Code {
		return nil, "", ErrInvalidCode
	}

	user, err := s.users.UpsertUser(ctx, models.User{
		ID:                 uuid.NewString(),
		Name:               challenge.Name,
		Phone:              challenge.Phone,
		SubscriptionActive: false,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	_ = s.challenges.Invalidate(cache.ChallengeKeyPrefix + normalized)

	token, err := s.jwtMaker.GenerateToken(user.Name, user.Phone, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login looks up the identity by phone and verifies the supplied name
// against the stored one, case- and whitespace-insensitively. The session
// is built from the stored identity, never from the input, so stale
// client-held subscription state is never trusted.
func (s *Service) Login(ctx context.Context, name, rawPhone string) (*models.User, string, error) {
	const op = "auth.Login"

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user, found, err := s.users.GetUserByPhone(ctx, normalized)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, "", ErrNoSuchAccount
	}
	if foldName(name) != foldName(user.Name) {
		return nil, "", ErrNameMismatch
	}

	token, err := s.jwtMaker.GenerateToken(user.Name, user.Phone, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("user_id", user.ID))
	return user, token, nil
}

func foldName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func wellFormedCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
