package models

import "time"

// ConversationMessage is one chat message published to the conversation
// channel. SenderName is a snapshot taken at send time.
type ConversationMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
}
