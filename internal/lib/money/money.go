// Package money holds presentation helpers for CFA franc amounts and
// payment-method display metadata.
package money

import (
	"strconv"

	"github.com/lomal-tg/lomal-backend/internal/models"
)

// FormatCFA renders an amount with thin group separators and the FCFA
// suffix, e.g. 25000 -> "25 000 FCFA".
func FormatCFA(amount int) string {
	s := strconv.Itoa(amount)
	neg := false
	if amount < 0 {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		out = append([]byte{'-'}, out...)
	}
	return string(out) + " FCFA"
}

// MethodInfo is the display name and brand color of a payment channel.
type MethodInfo struct {
	Name  string
	Color string
}

// MethodDisplay returns display metadata for a payment method.
func MethodDisplay(method models.PaymentMethod) MethodInfo {
	switch method {
	case models.MethodTMoney:
		return MethodInfo{Name: "T-Money (Togocel)", Color: "#00A651"}
	case models.MethodFlooz:
		return MethodInfo{Name: "Flooz (Moov)", Color: "#0066B3"}
	case models.MethodCard:
		return MethodInfo{Name: "Carte Bancaire", Color: "#1A1A1A"}
	default:
		return MethodInfo{Name: "Mobile Money", Color: "#666666"}
	}
}
