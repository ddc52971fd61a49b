// Package phone normalizes raw phone input into E.164 form.
//
// LOMAL serves the Lomé market, so numbers missing a country prefix get the
// Togo dialing code. Normalization strips every non-digit character first,
// which mirrors what users actually type: spaces, dots and dashes.
package phone

import (
	"errors"
	"strings"
)

// DefaultDialingCode is prepended to local numbers without a country prefix.
const DefaultDialingCode = "228"

// ErrTooShort is returned for input with fewer than 8 significant digits.
var ErrTooShort = errors.New("phone number too short")

// Normalize converts raw user input into E.164 (+228XXXXXXXX for local
// numbers). Input already carrying the dialing code, with or without a
// leading +, is kept as is.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 8 {
		return "", ErrTooShort
	}
	if strings.HasPrefix(digits, DefaultDialingCode) && len(digits) > 8 {
		return "+" + digits, nil
	}
	return "+" + DefaultDialingCode + digits, nil
}
