// Package paymentsettle implements the HTTP handler driving an invoice to
// its terminal status.
package paymentsettle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/payment"
)

// Request carries the confirmation code the customer typed at checkout.
type Request struct {
	Code string `json:"code" validate:"required,numeric,min=4"`
}

// PaymentEngine settles invoices.
type PaymentEngine interface {
	Settle(ctx context.Context, reference, code string) (*models.Invoice, error)
}

// Handler serves POST /payments/{reference}/settle.
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
// @Summary Settle invoice
// @Description Drives a pending invoice to a terminal status; on success the subscription opens
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Transaction reference"
// @Param request body Request true "Confirmation code"
// @Success 200 {object} response.OKResponse "Settled invoice"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 404 {object} response.ErrorResponse "Unknown reference"
// @Failure 410 {object} response.ErrorResponse "Invoice expired"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 502 {object} response.ErrorResponse "Payment provider unavailable"
// @Router /payments/{reference}/settle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.settle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reference := chi.URLParam(r, "reference")

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

	inv, err := h.engine.Settle(r.Context(), reference, req.Code)
	switch {
	case errors.Is(err, payment.ErrNotFound):
		log.Info("unknown reference", slog.String("reference", reference))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, payment.ErrExpired):
		log.Info("invoice expired", slog.String("reference", reference))
		w.WriteHeader(http.StatusGone)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, payment.ErrProviderUnavailable):
		log.Error("provider unavailable", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("settlement failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to settle invoice"))
		return
	}

	log.Info("settlement finished",
		slog.String("reference", reference),
		slog.String("status", string(inv.Status)))
	render.JSON(w, r, response.OKWithData(inv))
}
