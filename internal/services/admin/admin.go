// Package admin implements the back-office login against the static
// credential pair and the redis-backed session store. Admin sessions are
// opaque random tokens, unrelated to customer JWTs.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lomal-tg/lomal-backend/internal/cache"
	"github.com/lomal-tg/lomal-backend/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid admin credentials")

// SessionStore keeps live admin sessions between requests.
type SessionStore interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Session is the state stored under an admin session token.
type Session struct {
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service validates the credential pair and manages sessions.
type Service struct {
	email        string
	passwordHash string
	sessionTTL   time.Duration
	sessions     SessionStore
	log          *slog.Logger
}

func New(cfg config.Admin, sessions SessionStore, log *slog.Logger) *Service {
	return &Service{
		email:        cfg.Email,
		passwordHash: cfg.PasswordHash,
		sessionTTL:   cfg.SessionTTL,
		sessions:     sessions,
		log:          log,
	}
}

// Login checks the email and password against the configured pair and, on
// success, opens a session and returns its token. Email comparison is
// case-insensitive; the password is checked against the stored bcrypt hash.
func (s *Service) Login(_ context.Context, email, password string) (string, *Session, error) {
	const op = "admin.Login"

	if !strings.EqualFold(strings.TrimSpace(email), s.email) {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	now := time.Now()
	session := Session{
		Email:     s.email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Set(cache.AdminSessionKeyPrefix+token, session, s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin session opened", slog.String("email", s.email))
	return token, &session, nil
}

// ValidateSession returns the session stored under a token, or false when
// the token is unknown or the session has run out.
func (s *Service) ValidateSession(_ context.Context, token string) (*Session, bool, error) {
	const op = "admin.ValidateSession"

	var session Session
	found, err := s.sessions.Get(cache.AdminSessionKeyPrefix+token, &session)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, nil
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Invalidate(cache.AdminSessionKeyPrefix + token)
		return nil, false, nil
	}
	return &session, true, nil
}

// Logout drops the session.
func (s *Service) Logout(_ context.Context, token string) error {
	return s.sessions.Invalidate(cache.AdminSessionKeyPrefix + token)
}
