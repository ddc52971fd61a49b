// Package paymentlist implements the admin HTTP handler listing the
// revenue ledger.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// PaymentEngine reads the revenue ledger.
type PaymentEngine interface {
	Ledger(ctx context.Context, limit, offset int) ([]*models.Payment, error)
}

// Handler serves GET /payments (admin only).
type Handler struct {
	log    *slog.Logger
	engine PaymentEngine
}

func New(log *slog.Logger, engine PaymentEngine) *Handler {
	return &Handler{log: log, engine: engine}
}

// ServeHTTP godoc
// @Summary List ledger
// @Description Returns the payment ledger, newest first
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size, at most 200"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} response.OKResponse "Ledger rows"
// @Failure 401 {object} response.ErrorResponse "Invalid admin session"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := queryInt(r, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	rows, err := h.engine.Ledger(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list payments"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"payments": rows,
		"count":    len(rows),
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
