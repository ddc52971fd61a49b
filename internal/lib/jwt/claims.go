// Package jwt implements generation and parsing of the HS256 session tokens
// issued after login or registration confirmation.
package jwt

import (
	"time"
)

// Maker describes the interface for generating and parsing session tokens.
type Maker interface {
	// GenerateToken creates a token carrying the user's name, phone and id.
	GenerateToken(name, phone, userUID string) (string, error)
	// ParseToken returns the *CustomClaims embedded in a valid token.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl implements Maker with a secret key and a token lifetime.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker creates a MakerImpl from the signing key and TTL.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
