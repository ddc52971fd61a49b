// Package login implements the HTTP handler for name+phone login.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/auth"
)

// Request carries the login input.
type Request struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// AuthService authenticates returning customers.
type AuthService interface {
	Login(ctx context.Context, name, phone string) (*models.User, string, error)
}

// Handler serves POST /auth/login.
type Handler struct {
	log      *slog.Logger
	auth     AuthService
	validate *validator.Validate
}

func New(log *slog.Logger, authService AuthService) *Handler {
	return &Handler{
		log:      log,
		auth:     authService,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Login
// @Description Authenticates by phone and account name and returns a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Name and phone"
// @Success 200 {object} response.OKResponse "Session token returned"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Name does not match"
// @Failure 404 {object} response.ErrorResponse "No account with this phone"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	user, token, err := h.auth.Login(r.Context(), req.Name, req.Phone)
	switch {
	case errors.Is(err, auth.ErrNoSuchAccount):
		log.Info("unknown phone", slog.String("phone", req.Phone))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, auth.ErrNameMismatch):
		log.Info("name mismatch", slog.String("phone", req.Phone))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to login"))
		return
	}

	log.Info("login success", slog.String("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}
