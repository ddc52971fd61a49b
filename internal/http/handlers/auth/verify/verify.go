// Package verify implements the HTTP handler confirming a verification
// challenge and creating the account.
package verify

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

// Request carries the challenge confirmation input.
type Request struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// AuthService confirms verification challenges.
type AuthService interface {
	ConfirmRegistration(ctx context.Context, phone, code string) (*models.User, string, error)
}

// Handler serves POST /auth/verify.
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
// @Summary Confirm registration
// @Description Checks the verification code and creates the account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Phone and 6-digit code"
// @Success 200 {object} response.OKResponse "Account created, session token returned"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON or wrong code"
// @Failure 410 {object} response.ErrorResponse "Challenge expired"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /auth/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

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

	user, token, err := h.auth.ConfirmRegistration(r.Context(), req.Phone, req.Code)
	switch {
	case errors.Is(err, auth.ErrExpired):
		log.Info("challenge expired", slog.String("phone", req.Phone))
		w.WriteHeader(http.StatusGone)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, auth.ErrInvalidCode):
		log.Info("invalid code", slog.String("phone", req.Phone))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("confirmation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to confirm registration"))
		return
	}

	log.Info("account created", slog.String("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}
