// Package paymentcancel implements the HTTP handler abandoning a pending
// invoice.
package paymentcancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/payment"
)

// PaymentEngine cancels invoices.
type PaymentEngine interface {
	Cancel(ctx context.Context, reference string) (*models.Invoice, error)
}

// Handler serves POST /payments/{reference}/cancel.
type Handler struct {
	log    *slog.Logger
	engine PaymentEngine
}

func New(log *slog.Logger, engine PaymentEngine) *Handler {
	return &Handler{log: log, engine: engine}
}

// ServeHTTP godoc
// @Summary Cancel invoice
// @Description Abandons a pending invoice; terminal invoices are refused
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Transaction reference"
// @Success 200 {object} response.OKResponse "Cancelled invoice"
// @Failure 404 {object} response.ErrorResponse "Unknown reference"
// @Failure 409 {object} response.ErrorResponse "Invoice is no longer pending"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /payments/{reference}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reference := chi.URLParam(r, "reference")

	inv, err := h.engine.Cancel(r.Context(), reference)
	switch {
	case errors.Is(err, payment.ErrNotFound):
		log.Info("unknown reference", slog.String("reference", reference))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, payment.ErrInvalidTransition):
		log.Info("invoice no longer pending", slog.String("reference", reference))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("cancellation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to cancel invoice"))
		return
	}

	log.Info("invoice cancelled", slog.String("reference", reference))
	render.JSON(w, r, response.OKWithData(inv))
}
