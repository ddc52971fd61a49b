// Package message implements the subscription-gated conversation bridge.
// The gate is evaluated against a fresh identity read at the moment of
// sending, never against client-held state.
package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lomal-tg/lomal-backend/internal/messaging"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/access"
)

var (
	ErrLoginRequired        = errors.New("login required")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrEmptyBody            = errors.New("message body is empty")
)

// UserRepository provides the fresh identity read behind the gate.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, bool, error)
}

// Publisher delivers messages to the conversation channel.
type Publisher interface {
	Publish(routingKey string, message any) error
}

type Service struct {
	users     UserRepository
	publisher Publisher
	log       *slog.Logger
}

func New(users UserRepository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		publisher: publisher,
		log:       log,
	}
}

// Send checks the sender's entitlement and publishes the message. The
// access decision happens here, at action time, so a subscription that
// lapsed since the page was rendered is still refused.
func (s *Service) Send(ctx context.Context, userID, conversationID, body string) (*models.ConversationMessage, error) {
	const op = "message.Send"

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	user, found, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		user = nil
	}
	switch access.Check(user, time.Now()) {
	case access.RequireLogin:
		return nil, ErrLoginRequired
	case access.RequireSubscription:
		return nil, ErrSubscriptionRequired
	}

	msg := models.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       user.ID,
		SenderName:     user.Name,
		Body:           body,
		SentAt:         time.Now(),
	}
	if err := s.publisher.Publish(messaging.MessageRoutingKey, msg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("conversation message published",
		slog.String("conversation_id", conversationID),
		slog.String("sender_id", user.ID))
	return &msg, nil
}
