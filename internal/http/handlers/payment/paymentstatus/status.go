// Package paymentstatus implements the HTTP handler reporting an invoice's
// current state.
package paymentstatus

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

// PaymentEngine reads invoice state.
type PaymentEngine interface {
	GetStatus(ctx context.Context, reference string) (*models.Invoice, error)
}

// Handler serves GET /payments/{reference}.
type Handler struct {
	log    *slog.Logger
	engine PaymentEngine
}

func New(log *slog.Logger, engine PaymentEngine) *Handler {
	return &Handler{log: log, engine: engine}
}

// ServeHTTP godoc
// @Summary Invoice status
// @Description Returns the stored invoice for a transaction reference
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Transaction reference"
// @Success 200 {object} response.OKResponse "Invoice"
// @Failure 404 {object} response.ErrorResponse "Unknown reference"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /payments/{reference} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reference := chi.URLParam(r, "reference")

	inv, err := h.engine.GetStatus(r.Context(), reference)
	switch {
	case errors.Is(err, payment.ErrNotFound):
		log.Info("unknown reference", slog.String("reference", reference))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to read invoice", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read invoice"))
		return
	}

	render.JSON(w, r, response.OKWithData(inv))
}
