// Package paymenthistory implements the HTTP handler listing the caller's
// own invoices.
package paymenthistory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// PaymentEngine reads a customer's invoices.
type PaymentEngine interface {
	History(ctx context.Context, phone string, limit, offset int) ([]*models.Invoice, error)
}

// Handler serves GET /payments/history.
type Handler struct {
	log    *slog.Logger
	engine PaymentEngine
}

func New(log *slog.Logger, engine PaymentEngine) *Handler {
	return &Handler{log: log, engine: engine}
}

// ServeHTTP godoc
// @Summary Invoice history
// @Description Returns the caller's invoices, newest first
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size, at most 100"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} response.OKResponse "Invoices"
// @Failure 401 {object} response.ErrorResponse "Unauthenticated"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /payments/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userPhone, _ := r.Context().Value(middlewarectx.UserPhone).(string)
	if userPhone == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	limit := queryInt(r, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	invoices, err := h.engine.History(r.Context(), userPhone, limit, offset)
	if err != nil {
		log.Error("failed to list invoices", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list invoices"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"invoices": invoices,
		"count":    len(invoices),
	}))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
