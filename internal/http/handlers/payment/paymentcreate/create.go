// Package paymentcreate implements the HTTP handler opening a subscription
// invoice for the authenticated caller.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/money"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/payment"
)

// Request carries the invoice creation input.
type Request struct {
	Method      string `json:"method" validate:"required,oneof=tmoney flooz card"`
	Description string `json:"description" validate:"max=255"`
}

// PaymentEngine opens invoices.
type PaymentEngine interface {
	CreateInvoice(ctx context.Context, user *models.User, method models.PaymentMethod, description string) (*models.Invoice, error)
}

// Handler serves POST /payments.
type Handler struct {
	log      *slog.Logger
	engine   PaymentEngine
	validate *validator.Validate
}

func New(log *slog.Logger, engine PaymentEngine) *Handler {
	return &Handler{
		log:      log,
		engine:   engine,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Create invoice
// @Description Opens a pending subscription invoice for the caller
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Payment method"
// @Success 200 {object} response.OKResponse "Invoice created"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthenticated"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 502 {object} response.ErrorResponse "Payment provider unavailable"
// @Router /payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	userName, _ := r.Context().Value(middlewarectx.UserName).(string)
	userPhone, _ := r.Context().Value(middlewarectx.UserPhone).(string)
	if userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user := &models.User{ID: userUID, Name: userName, Phone: userPhone}
	inv, err := h.engine.CreateInvoice(r.Context(), user, models.PaymentMethod(req.Method), req.Description)
	switch {
	case errors.Is(err, payment.ErrUnsupportedMethod):
		log.Info("unsupported method", slog.String("method", req.Method))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, payment.ErrProviderUnavailable):
		log.Error("provider unavailable", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("invoice creation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create invoice"))
		return
	}

	log.Info("invoice created", slog.String("reference", inv.Reference))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"invoice":        inv,
		"amount_display": money.FormatCFA(inv.Amount),
		"method_display": money.MethodDisplay(inv.PaymentMethod).Name,
	}))
}
