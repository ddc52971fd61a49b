// Package adminlogin implements the back-office login handler.
package adminlogin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/services/admin"
)

// Request carries the admin credential pair.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminService validates credentials and opens sessions.
type AdminService interface {
	Login(ctx context.Context, email, password string) (string, *admin.Session, error)
}

// Handler serves POST /admin/login.
type Handler struct {
	log      *slog.Logger
	admin    AdminService
	validate *validator.Validate
}

func New(log *slog.Logger, adminService AdminService) *Handler {
	return &Handler{
		log:      log,
		admin:    adminService,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Admin login
// @Description Opens a back-office session for the configured credential pair
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body Request true "Email and password"
// @Success 200 {object} response.OKResponse "Session token returned"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Invalid credentials"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	token, session, err := h.admin.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, admin.ErrInvalidCredentials):
		log.Info("invalid admin credentials", slog.String("email", req.Email))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("admin login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to login"))
		return
	}

	log.Info("admin session opened", slog.String("email", session.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":      token,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	}))
}
