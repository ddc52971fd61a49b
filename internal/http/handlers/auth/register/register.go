// Package register implements the HTTP handler issuing verification
// challenges for new accounts.
package register

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
	"github.com/lomal-tg/lomal-backend/internal/lib/phone"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/services/auth"
)

// Request carries the registration input.
type Request struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" validate:"required"`
}

// AuthService issues verification challenges.
type AuthService interface {
	Register(ctx context.Context, name, phone string) (*auth.RegisterResult, error)
}

// Handler serves POST /auth/register.
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
// @Summary Start registration
// @Description Issues a verification challenge for a new phone number
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Name and phone of the new account"
// @Success 200 {object} response.OKResponse "Challenge issued"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 409 {object} response.ErrorResponse "Phone already registered"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	result, err := h.auth.Register(r.Context(), req.Name, req.Phone)
	switch {
	case errors.Is(err, auth.ErrDuplicatePhone):
		log.Info("duplicate phone", slog.String("phone", req.Phone))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, phone.ErrTooShort):
		log.Info("malformed phone", slog.String("phone", req.Phone))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("phone number is too short"))
		return
	case err != nil:
		log.Error("registration failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start registration"))
		return
	}

	log.Info("challenge issued", slog.String("phone", result.Phone), slog.Bool("demo", result.Demo))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"phone":      result.Phone,
		"demo":       result.Demo,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
	}))
}
