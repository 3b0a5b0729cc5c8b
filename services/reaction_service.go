//go:generate go run go.uber.org/mock/mockgen -source=reaction_service.go -destination=../mocks/mock_reaction_service.go -package=mocks
package services

import (
	"strings"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/storage"
)

type IReactionService interface {
	Add(cmd domain.AddReactionCommand, now time.Time) (domain.Message, bool, error)
	Remove(cmd domain.RemoveReactionCommand, now time.Time) (domain.Message, bool, error)
}

// ReactionService runs the read-modify-write of a message's reactions inside one
// storage transaction. Callers route it through the conversation's shard worker,
// so there is a single writer per conversation.
type ReactionService struct {
	messages      storage.IMessageRepository
	conversations storage.IConversationRepository
}

func NewReactionService(messages storage.IMessageRepository, conversations storage.IConversationRepository) *ReactionService {
	return &ReactionService{messages: messages, conversations: conversations}
}

// Add is idempotent: reacting twice with the same emoji reports changed=false.
func (s *ReactionService) Add(cmd domain.AddReactionCommand, now time.Time) (domain.Message, bool, error) {
	return s.mutate(cmd.Conversation, cmd.MessageID, cmd.UserID, cmd.Emoji, now, domain.Reactions.Add)
}

// Remove drops the emoji key once its last reactor is gone.
func (s *ReactionService) Remove(cmd domain.RemoveReactionCommand, now time.Time) (domain.Message, bool, error) {
	return s.mutate(cmd.Conversation, cmd.MessageID, cmd.UserID, cmd.Emoji, now, domain.Reactions.Remove)
}

func (s *ReactionService) mutate(conversationID, messageID, userID, emoji string, now time.Time,
	apply func(r domain.Reactions, emoji, userID string) bool) (domain.Message, bool, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return domain.Message{}, false, errors.ErrEmptyEmoji
	}

	current, err := s.messages.GetByID(messageID)
	if err != nil {
		return domain.Message{}, false, err
	}
	if !current.IsVisible(now) || (conversationID != "" && conversationID != current.ConversationID) {
		return domain.Message{}, false, errors.ErrMessageNotFound
	}
	conversation, err := s.conversations.GetByID(current.ConversationID)
	if err != nil {
		return domain.Message{}, false, err
	}
	if !conversation.HasParticipant(userID) {
		return domain.Message{}, false, errors.ErrNotParticipant
	}

	return s.messages.UpdateReactions(messageID, func(message *domain.Message) (bool, error) {
		// Checked again against the record read inside the transaction
		if !message.IsVisible(now) {
			return false, errors.ErrMessageNotFound
		}
		return apply(message.Reactions, emoji, userID), nil
	})
}
