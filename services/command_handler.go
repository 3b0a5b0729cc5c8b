package services

import (
	"context"
	"strings"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
)

// CommandHandler applies the mutating commands routed by the conversation shards
// and turns each success into the event broadcast to the conversation.
type CommandHandler struct {
	messages      IMessageService
	reactions     IReactionService
	conversations IConversationService
	now           func() time.Time
}

func NewCommandHandler(messages IMessageService, reactions IReactionService,
	conversations IConversationService) *CommandHandler {
	return &CommandHandler{
		messages:      messages,
		reactions:     reactions,
		conversations: conversations,
		now:           time.Now,
	}
}

func (h *CommandHandler) Handle(_ context.Context, cmd domain.Command) (any, event.DomainEvent, error) {
	now := h.now().UTC()
	switch c := cmd.(type) {
	case domain.SendMessageCommand:
		// Stamped here, inside the single writer of the conversation, so that
		// createdAt follows the order in which messages are stored and broadcast.
		c.CreatedAt = now
		view, err := h.messages.Send(c)
		if err != nil {
			return nil, nil, err
		}
		return view, event.NewMessage{Message: view}, nil

	case domain.DeleteMessageCommand:
		message, err := h.messages.Delete(c.MessageID, c.RequesterID, c.Conversation, now)
		if err != nil {
			return nil, nil, err
		}
		return message, event.MessageDeleted{Conversation: message.ConversationID, MessageID: message.ID}, nil

	case domain.AddReactionCommand:
		message, _, err := h.reactions.Add(c, now)
		if err != nil {
			return nil, nil, err
		}
		return message, event.ReactionAdded{
			Conversation: message.ConversationID,
			MessageID:    message.ID,
			Emoji:        strings.TrimSpace(c.Emoji),
			UserID:       c.UserID,
			Reactions:    message.Reactions,
		}, nil

	case domain.RemoveReactionCommand:
		message, _, err := h.reactions.Remove(c, now)
		if err != nil {
			return nil, nil, err
		}
		return message, event.ReactionRemoved{
			Conversation: message.ConversationID,
			MessageID:    message.ID,
			Emoji:        strings.TrimSpace(c.Emoji),
			UserID:       c.UserID,
			Reactions:    message.Reactions,
		}, nil

	case domain.DeleteConversationCommand:
		if err := h.conversations.Delete(c.Conversation, c.RequesterID); err != nil {
			return nil, nil, err
		}
		return nil, event.ConversationDeleted{Conversation: c.Conversation, DeletedBy: c.RequesterID}, nil

	default:
		return nil, nil, errors.ErrUnknownEvent
	}
}
