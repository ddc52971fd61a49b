package models

import "time"

// VerificationChallenge is the pending registration state held between
// issuing a verification code and confirming it. No User exists yet while a
// challenge is outstanding. Demo marks the permissive fallback where any
// well-formed code is accepted because no live delivery channel is
// configured.
type VerificationChallenge struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	Demo      bool      `json:"demo"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the challenge is no longer honorable.
func (c VerificationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
