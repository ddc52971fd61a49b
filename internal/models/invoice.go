package models

import "time"

// InvoiceStatus is the lifecycle state of a payment invoice.
// pending is the only non-terminal state; completed, failed and cancelled
// are terminal and may never be left.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusCompleted InvoiceStatus = "completed"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusFailed    InvoiceStatus = "failed"
)

// Terminal reports whether the status may never change again.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusCompleted || s == InvoiceStatusCancelled || s == InvoiceStatusFailed
}

// PaymentMethod is a supported mobile-money or card channel.
type PaymentMethod string

const (
	MethodTMoney PaymentMethod = "tmoney"
	MethodFlooz  PaymentMethod = "flooz"
	MethodCard   PaymentMethod = "card"
)

// Valid reports whether the method belongs to the closed enumeration.
func (m PaymentMethod) Valid() bool {
	return m == MethodTMoney || m == MethodFlooz || m == MethodCard
}

// Invoice is a payment-provider-facing transaction record. CustomerName and
// CustomerPhone are snapshots taken at creation time, not live references to
// the paying identity. CompletedAt is set if and only if the invoice reached
// the completed status.
type Invoice struct {
	ID            string        `json:"id"`
	Reference     string        `json:"reference"`
	Amount        int           `json:"amount"`
	Description   string        `json:"description"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	Status        InvoiceStatus `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	ProviderToken string        `json:"provider_token,omitempty"`
	ProviderURL   string        `json:"provider_url,omitempty"`
}
