// Package payment implements the invoice lifecycle: creation, settlement,
// cancellation and the durable ledger written after a successful
// settlement. In simulation mode the provider leg is replaced by a delayed
// random outcome; in live mode it goes through PayDunya.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lomal-tg/lomal-backend/internal/config"
	"github.com/lomal-tg/lomal-backend/internal/lib/reference"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/paymentprovider"
)

var (
	ErrNotFound            = errors.New("no invoice with this reference")
	ErrInvalidTransition   = errors.New("invoice is no longer pending")
	ErrUnsupportedMethod   = errors.New("unsupported payment method")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrExpired             = errors.New("invoice expired")
)

var settlementOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lomal_invoice_settlements_total",
	Help: "Invoice settlement attempts by final outcome.",
}, []string{"outcome"})

// InvoiceRepository is the invoice persistence consumed by the engine.
// ResolveInvoice must be the atomic pending-to-terminal transition; the
// engine relies on it to serialize concurrent settlement of one reference.
type InvoiceRepository interface {
	InsertInvoice(ctx context.Context, inv models.Invoice) error
	GetInvoiceByReference(ctx context.Context, reference string) (*models.Invoice, bool, error)
	ResolveInvoice(ctx context.Context, reference string, status models.InvoiceStatus, completedAt *time.Time) (bool, error)
	ListInvoicesByPhone(ctx context.Context, phone string, limit, offset int) ([]*models.Invoice, error)
}

// LedgerRepository holds the append-only revenue records.
type LedgerRepository interface {
	InsertPayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error)
}

// UserDirectory resolves the paying identity from the phone snapshot kept
// on the invoice.
type UserDirectory interface {
	GetUserByPhone(ctx context.Context, phone string) (*models.User, bool, error)
}

// SubscriptionActivator opens the paid access window after settlement.
type SubscriptionActivator interface {
	Activate(ctx context.Context, userID string, now time.Time) (*models.User, error)
}

// Provider is the live payment gateway surface.
type Provider interface {
	CreateInvoice(ctx context.Context, req paymentprovider.CreateInvoiceRequest) (*paymentprovider.CreateInvoiceResponse, error)
	ConfirmInvoice(ctx context.Context, providerToken string) (*paymentprovider.ConfirmInvoiceResponse, error)
}

// Engine drives the invoice lifecycle.
type Engine struct {
	invoices InvoiceRepository
	ledger   LedgerRepository
	users    UserDirectory
	subs     SubscriptionActivator
	provider Provider
	cfg      config.Payment
	log      *slog.Logger

	// injected for deterministic tests
	randFloat func() float64
	now       func() time.Time
}

// New creates the engine. provider may be nil in simulation mode.
func New(invoices InvoiceRepository, ledger LedgerRepository, users UserDirectory,
	subs SubscriptionActivator, provider Provider, cfg config.Payment, log *slog.Logger) *Engine {
	return &Engine{
		invoices:  invoices,
		ledger:    ledger,
		users:     users,
		subs:      subs,
		provider:  provider,
		cfg:       cfg,
		log:       log,
		randFloat: rand.Float64,
		now:       time.Now,
	}
}

// CreateInvoice opens a pending invoice for the subscription price. In live
// mode the checkout session is created at the provider first; a provider
// failure leaves no local state behind.
func (e *Engine) CreateInvoice(ctx context.Context, user *models.User, method models.PaymentMethod, description string) (*models.Invoice, error) {
	const op = "payment.CreateInvoice"

	if !method.Valid() {
		return nil, ErrUnsupportedMethod
	}

	now := e.now()
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("Abonnement LOMAL IMMOBILIER - %d jours", e.cfg.SubscriptionDays)
	}
	inv := models.Invoice{
		ID:            fmt.Sprintf("inv_%d", now.UnixMilli()),
		Reference:     reference.New("LOMAL"),
		Amount:        e.cfg.SubscriptionPriceCFA,
		Description:   description,
		CustomerName:  user.Name,
		CustomerPhone: user.Phone,
		Status:        models.InvoiceStatusPending,
		PaymentMethod: method,
		CreatedAt:     now,
	}

	if e.cfg.Mode == config.PaymentLive {
		resp, err := e.createAtProvider(ctx, inv)
		if err != nil {
			e.log.Error("provider invoice creation failed", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, ErrProviderUnavailable)
		}
		inv.ProviderToken = resp.Token
		inv.ProviderURL = resp.ResponseText
	} else {
		inv.ProviderToken = fmt.Sprintf("sim_token_%d", now.UnixMilli())
		inv.ProviderURL = "#payment-simulation-" + inv.Reference
	}

	if err := e.invoices.InsertInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("invoice created",
		slog.String("reference", inv.Reference),
		slog.String("method", string(method)),
		slog.Int("amount", inv.Amount))
	return &inv, nil
}

func (e *Engine) createAtProvider(ctx context.Context, inv models.Invoice) (*paymentprovider.CreateInvoiceResponse, error) {
	var req paymentprovider.CreateInvoiceRequest
	req.Invoice.TotalAmount = inv.Amount
	req.Invoice.Description = inv.Description
	req.Store.Name = "LOMAL IMMOBILIER"
	req.Store.Phone = inv.CustomerPhone
	req.CustomData = map[string]string{"reference": inv.Reference}
	req.Actions.CallbackURL = e.cfg.PayDunya.CallbackURL
	req.Actions.ReturnURL = e.cfg.PayDunya.ReturnURL
	req.Actions.CancelURL = e.cfg.PayDunya.CancelURL
	return e.provider.CreateInvoice(ctx, req)
}

// Settle drives a pending invoice to a terminal status and, on success,
// activates the payer's subscription and writes the ledger row. Calling it
// on an already terminal invoice returns the invoice unchanged. When two
// settlements race on one reference the storage compare-and-set picks a
// single winner; the loser re-reads and returns the winner's outcome.
//
// code is the confirmation PIN the customer typed at checkout. The
// simulated provider accepts any well-formed code; handlers enforce the
// format before calling in.
func (e *Engine) Settle(ctx context.Context, ref, code string) (*models.Invoice, error) {
	const op = "payment.Settle"

	inv, found, err := e.invoices.GetInvoiceByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	if inv.Status.Terminal() {
		return inv, nil
	}

	now := e.now()
	if e.cfg.InvoiceTTL > 0 && now.After(inv.CreatedAt.Add(e.cfg.InvoiceTTL)) {
		won, err := e.invoices.ResolveInvoice(ctx, ref, models.InvoiceStatusFailed, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !won {
			current, found, err := e.invoices.GetInvoiceByReference(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if !found {
				return nil, ErrNotFound
			}
			return current, nil
		}
		settlementOutcomes.WithLabelValues("expired").Inc()
		return nil, ErrExpired
	}

	var outcome models.InvoiceStatus
	if e.cfg.Mode == config.PaymentLive {
		outcome, err = e.confirmAtProvider(ctx, inv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if outcome == models.InvoiceStatusPending {
			return inv, nil
		}
	} else {
		// simulated provider leg
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(e.cfg.SettleDelay):
		}
		outcome = models.InvoiceStatusCompleted
		if e.randFloat() < e.cfg.FailureRate {
			outcome = models.InvoiceStatusFailed
		}
	}

	return e.resolve(ctx, inv, outcome)
}

func (e *Engine) confirmAtProvider(ctx context.Context, inv *models.Invoice) (models.InvoiceStatus, error) {
	resp, err := e.provider.ConfirmInvoice(ctx, inv.ProviderToken)
	if err != nil {
		e.log.Error("provider confirmation failed",
			slog.String("reference", inv.Reference), sl.Err(err))
		return "", ErrProviderUnavailable
	}
	switch resp.Status {
	case "completed":
		return models.InvoiceStatusCompleted, nil
	case "cancelled":
		return models.InvoiceStatusCancelled, nil
	default:
		return models.InvoiceStatusPending, nil
	}
}

func (e *Engine) resolve(ctx context.Context, inv *models.Invoice, outcome models.InvoiceStatus) (*models.Invoice, error) {
	const op = "payment.resolve"

	now := e.now()
	var completedAt *time.Time
	if outcome == models.InvoiceStatusCompleted {
		completedAt = &now
	}

	won, err := e.invoices.ResolveInvoice(ctx, inv.Reference, outcome, completedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !won {
		// another settlement got there first; its outcome stands
		current, found, err := e.invoices.GetInvoiceByReference(ctx, inv.Reference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !found {
			return nil, ErrNotFound
		}
		return current, nil
	}

	settlementOutcomes.WithLabelValues(string(outcome)).Inc()
	inv.Status = outcome
	inv.CompletedAt = completedAt

	if outcome != models.InvoiceStatusCompleted {
		e.log.Info("invoice settlement failed",
			slog.String("reference", inv.Reference),
			slog.String("outcome", string(outcome)))
		return inv, nil
	}

	if err := e.recordSuccess(ctx, inv, now); err != nil {
		// the invoice is already completed; surface the follow-up failure
		return inv, fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("invoice settled",
		slog.String("reference", inv.Reference),
		slog.Int("amount", inv.Amount))
	return inv, nil
}

// recordSuccess runs the two follow-ups of a won settlement: subscription
// activation and the ledger row keyed by the invoice reference.
func (e *Engine) recordSuccess(ctx context.Context, inv *models.Invoice, now time.Time) error {
	user, found, err := e.users.GetUserByPhone(ctx, inv.CustomerPhone)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no identity for phone %s", inv.CustomerPhone)
	}

	if _, err := e.subs.Activate(ctx, user.ID, now); err != nil {
		return err
	}

	_, err = e.ledger.InsertPayment(ctx, models.Payment{
		ID:        "pay_" + uuid.NewString(),
		UserID:    user.ID,
		UserName:  user.Name,
		UserPhone: user.Phone,
		Amount:    inv.Amount,
		Type:      models.PaymentTypeSubscription,
		Status:    models.PaymentStatusSuccess,
		Reference: inv.Reference,
		CreatedAt: now,
	})
	return err
}

// GetStatus returns the stored invoice for a reference.
func (e *Engine) GetStatus(ctx context.Context, ref string) (*models.Invoice, error) {
	const op = "payment.GetStatus"

	inv, found, err := e.invoices.GetInvoiceByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return inv, nil
}

// Cancel abandons a pending invoice. Terminal invoices, including already
// cancelled ones, are rejected.
func (e *Engine) Cancel(ctx context.Context, ref string) (*models.Invoice, error) {
	const op = "payment.Cancel"

	inv, found, err := e.invoices.GetInvoiceByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	if inv.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	won, err := e.invoices.ResolveInvoice(ctx, ref, models.InvoiceStatusCancelled, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !won {
		return nil, ErrInvalidTransition
	}

	settlementOutcomes.WithLabelValues("cancelled").Inc()
	inv.Status = models.InvoiceStatusCancelled

	e.log.Info("invoice cancelled", slog.String("reference", ref))
	return inv, nil
}

// History returns the customer's invoices, newest first.
func (e *Engine) History(ctx context.Context, phone string, limit, offset int) ([]*models.Invoice, error) {
	const op = "payment.History"

	list, err := e.invoices.ListInvoicesByPhone(ctx, phone, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Ledger returns ledger rows for the admin revenue view, newest first.
func (e *Engine) Ledger(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	const op = "payment.Ledger"

	list, err := e.ledger.ListPayments(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
