// Package logout implements the HTTP handler ending a customer session.
// Sessions are stateless JWTs, so the server side only acknowledges; the
// client drops the token.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/http/response"
)

// Handler serves POST /auth/logout.
type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Logout
// @Description Acknowledges the end of a customer session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.OKResponse "Session ended"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	h.log.Info("logout",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", userUID),
	)

	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "logged out",
	}))
}
