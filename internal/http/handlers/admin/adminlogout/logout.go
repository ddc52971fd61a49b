// Package adminlogout implements the HTTP handler closing a back-office
// session.
package adminlogout

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
)

// AdminService closes admin sessions.
type AdminService interface {
	Logout(ctx context.Context, token string) error
}

// Handler serves POST /admin/logout.
type Handler struct {
	log *slog.Logger
	svc AdminService
}

func New(log *slog.Logger, svc AdminService) *Handler {
	return &Handler{log: log, svc: svc}
}

// ServeHTTP godoc
// @Summary Admin logout
// @Description Invalidates the admin session token
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.OKResponse "Session closed"
// @Failure 401 {object} response.ErrorResponse "Invalid admin session"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// the session middleware already validated this header
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	if err := h.svc.Logout(r.Context(), token); err != nil {
		log.Error("failed to close admin session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to close admin session"))
		return
	}

	email, _ := r.Context().Value(middlewarectx.AdminEmail).(string)
	log.Info("admin session closed", slog.String("email", email))
	render.JSON(w, r, response.OKWithData(map[string]string{
		"message": "logged out",
	}))
}
