package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PreviewLength = 50
	previewSuffix = "..."
)

// Conversation links exactly two users. The pair is unordered:
// {A,B} and {B,A} are the same conversation.
type Conversation struct {
	ID                 string
	ParticipantA       string
	ParticipantB       string
	LastMessageAt      time.Time
	LastMessagePreview string
	CreatedAt          time.Time
}

func NewConversation(userA, userB string, at time.Time) Conversation {
	return Conversation{
		ID:            uuid.NewString(),
		ParticipantA:  userA,
		ParticipantB:  userB,
		LastMessageAt: at,
		CreatedAt:     at,
	}
}

func (c Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the counterpart of userID.
// The caller must have checked HasParticipant first.
func (c Conversation) OtherParticipant(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

func (c Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// PairKey orders two user ids so that both directions map to the same key.
func PairKey(userA, userB string) (string, string) {
	if userA < userB {
		return userA, userB
	}
	return userB, userA
}

// Preview keeps the first PreviewLength runes of the trimmed content.
// Longer content gets an ellipsis marker.
func Preview(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= PreviewLength {
		return string(runes)
	}
	return string(runes[:PreviewLength]) + previewSuffix
}

// ConversationView is a conversation seen from one of its participants.
type ConversationView struct {
	ID                 string        `json:"id"`
	OtherUser          PublicProfile `json:"otherUser"`
	LastMessageAt      time.Time     `json:"lastMessageAt"`
	LastMessagePreview string        `json:"lastMessagePreview"`
	IsBlocked          bool          `json:"isBlocked"`
}
