// Package models contains the domain structures of the LOMAL IMMOBILIER
// backend: user identities, payment invoices and the durable payment ledger.
package models

import "time"

// User represents a registered tenant identity keyed by phone number.
// There is at most one User per normalized phone.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	SubscriptionActive bool       `json:"subscription_active"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`
	IsAdmin            bool       `json:"is_admin"`
	CreatedAt          time.Time  `json:"created_at"`
}
