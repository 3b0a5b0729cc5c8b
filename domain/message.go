// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// ExpiresAt is fixed at creation and never moves afterwards.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultMessageTTL = 12 * time.Hour

type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	ReplyToID      string // empty when the message is not a reply
	Reactions      Reactions
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

func NewMessage(conversationID, senderID, content, replyToID string,
	createdAt time.Time, ttl time.Duration) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ReplyToID:      replyToID,
		Reactions:      Reactions{},
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(ttl),
	}
}

// IsVisible reports whether ordinary reads may return the message at now.
func (m Message) IsVisible(now time.Time) bool {
	return m.ExpiresAt.After(now)
}

// ReplySnapshot is the replied-to message as it was when the reply was sent.
type ReplySnapshot struct {
	ID                string `json:"id"`
	SenderID          string `json:"senderId"`
	SenderDisplayName string `json:"senderDisplayName"`
	Content           string `json:"content"`
}

// MessageView is a message enriched with the display fields clients render.
type MessageView struct {
	Message
	Sender  PublicProfile
	ReplyTo *ReplySnapshot
}
