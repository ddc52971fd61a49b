package models

import "time"

// PaymentType distinguishes subscription payments from commissions.
type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeCommission   PaymentType = "commission"
)

// PaymentStatus is the state of a durable ledger entry.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is the audit-trail ledger row written after an invoice settles,
// distinct from the invoice itself. Reference matches the originating
// invoice reference 1:1 and drives admin revenue reporting.
type Payment struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	UserName  string        `json:"user_name"`
	UserPhone string        `json:"user_phone"`
	Amount    int           `json:"amount"`
	Type      PaymentType   `json:"type"`
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference"`
	CreatedAt time.Time     `json:"created_at"`
}
