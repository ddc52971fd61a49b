// Package status implements the HTTP handler reporting the caller's
// subscription state. The answer always reflects a fresh storage read.
package status

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
)

// SubscriptionService reads the stored entitlement.
type SubscriptionService interface {
	Status(ctx context.Context, userID string, now time.Time) (*models.User, bool, int, error)
}

// Handler serves GET /subscription.
type Handler struct {
	log  *slog.Logger
	subs SubscriptionService
}

func New(log *slog.Logger, subs SubscriptionService) *Handler {
	return &Handler{log: log, subs: subs}
}

// ServeHTTP godoc
// @Summary Subscription status
// @Description Returns the caller's entitlement and remaining days
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.OKResponse "Entitlement state"
// @Failure 401 {object} response.ErrorResponse "Unauthenticated"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	user, entitled, days, err := h.subs.Status(r.Context(), userUID, time.Now())
	if err != nil {
		log.Error("failed to read subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read subscription status"))
		return
	}

	data := map[string]any{
		"active":         entitled,
		"days_remaining": days,
	}
	if user.SubscriptionExpiry != nil {
		data["expires_at"] = user.SubscriptionExpiry.Format(time.RFC3339)
	}
	render.JSON(w, r, response.OKWithData(data))
}
