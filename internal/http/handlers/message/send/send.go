// Package send implements the HTTP handler publishing a conversation
// message behind the subscription gate.
package send

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/message"
)

// Request carries the outbound message.
type Request struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Body           string `json:"body" validate:"required,max=2000"`
}

// MessageService publishes gated conversation messages.
type MessageService interface {
	Send(ctx context.Context, userID, conversationID, body string) (*models.ConversationMessage, error)
}

// Handler serves POST /messages.
type Handler struct {
	log      *slog.Logger
	messages MessageService
	validate *validator.Validate
}

func New(log *slog.Logger, messages MessageService) *Handler {
	return &Handler{
		log:      log,
		messages: messages,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Send message
// @Description Publishes a conversation message; requires a current subscription
// @Tags Message
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Conversation id and body"
// @Success 200 {object} response.OKResponse "Published message"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthenticated"
// @Failure 403 {object} response.ErrorResponse "Subscription required"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /messages [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.message.send"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

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

	msg, err := h.messages.Send(r.Context(), userUID, req.ConversationID, req.Body)
	switch {
	case errors.Is(err, message.ErrLoginRequired):
		log.Info("login required")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, message.ErrSubscriptionRequired):
		log.Info("subscription required", slog.String("user_id", userUID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, message.ErrEmptyBody):
		log.Info("empty body")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("message publish failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to send message"))
		return
	}

	log.Info("message sent", slog.String("conversation_id", msg.ConversationID))
	render.JSON(w, r, response.OKWithData(msg))
}
