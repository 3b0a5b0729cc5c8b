//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/storage"
)

// Censor masks forbidden words. It returns the rewritten text and the matched words.
type Censor interface {
	Censor(text string) (string, []string)
}

type IMessageService interface {
	Send(cmd domain.SendMessageCommand) (domain.MessageView, error)
	ListFor(conversationID, requesterID string, now time.Time) ([]domain.MessageView, error)
	Delete(messageID, requesterID, conversationID string, now time.Time) (domain.Message, error)
	ConversationOf(messageID string, now time.Time) (string, error)
}

type MessageService struct {
	messages      storage.IMessageRepository
	conversations storage.IConversationRepository
	users         storage.IUserRepository
	censor        Censor
	ttl           time.Duration
	log           *slog.Logger
}

// NewMessageService censor may be nil when no censored words are configured.
func NewMessageService(messages storage.IMessageRepository, conversations storage.IConversationRepository,
	users storage.IUserRepository, censor Censor, ttl time.Duration, log *slog.Logger) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		users:         users,
		censor:        censor,
		ttl:           ttl,
		log:           log,
	}
}

// Send validates and persists a message, then refreshes the conversation preview.
// The returned view carries the sender profile and a snapshot of the replied message.
func (s *MessageService) Send(cmd domain.SendMessageCommand) (domain.MessageView, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return domain.MessageView{}, errors.ErrEmptyContent
	}

	conversation, err := s.conversations.GetByID(cmd.Conversation)
	if err != nil {
		return domain.MessageView{}, err
	}
	if !conversation.HasParticipant(cmd.SenderID) {
		return domain.MessageView{}, errors.ErrConversationNotFound
	}

	users, err := s.users.GetUsers(conversation.Participants())
	if err != nil {
		return domain.MessageView{}, err
	}
	sender, okSender := users[cmd.SenderID]
	recipient, okRecipient := users[conversation.OtherParticipant(cmd.SenderID)]
	if !okSender || !okRecipient {
		return domain.MessageView{}, errors.ErrUserNotFound
	}
	if domain.IsBlockedPair(sender, recipient) {
		return domain.MessageView{}, errors.ErrUserBlocked
	}

	var snapshot *domain.ReplySnapshot
	if cmd.ReplyToID != "" {
		target, err := s.messages.GetByID(cmd.ReplyToID)
		if stdErrors.Is(err, errors.ErrMessageNotFound) ||
			(err == nil && (!target.IsVisible(cmd.CreatedAt) || target.ConversationID != conversation.ID)) {
			return domain.MessageView{}, errors.ErrReplyTargetNotFound
		}
		if err != nil {
			return domain.MessageView{}, err
		}
		snapshot = replySnapshot(target, users)
	}

	if s.censor != nil {
		var words []string
		if content, words = s.censor.Censor(content); len(words) > 0 {
			s.log.Debug("Censored words replaced", "conversation_id", conversation.ID, "words", len(words))
		}
	}

	message := domain.NewMessage(conversation.ID, sender.ID, content, cmd.ReplyToID, cmd.CreatedAt, s.ttl)
	if err := s.messages.Store(message); err != nil {
		return domain.MessageView{}, err
	}

	// The message is already stored, a stale preview is not worth failing the send
	if err := s.conversations.UpdateLastMessage(conversation.ID, message.CreatedAt, domain.Preview(content)); err != nil {
		s.log.Warn("Failed to update conversation preview",
			"conversation_id", conversation.ID, "message_id", message.ID, "error", err)
	}

	return domain.MessageView{Message: message, Sender: sender.Profile(), ReplyTo: snapshot}, nil
}

// ListFor returns the visible history of a conversation, oldest first.
// A reply whose target is gone or expired has a nil ReplyTo.
func (s *MessageService) ListFor(conversationID, requesterID string, now time.Time) ([]domain.MessageView, error) {
	conversation, err := s.conversations.GetByID(conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(requesterID) {
		return nil, errors.ErrNotParticipant
	}

	messages, err := s.messages.ListByConversation(conversationID, now)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetUsers(conversation.Participants())
	if err != nil {
		return nil, err
	}

	visible := make(map[string]domain.Message, len(messages))
	for _, m := range messages {
		visible[m.ID] = m
	}

	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		v := domain.MessageView{Message: m, Sender: users[m.SenderID].Profile()}
		if target, ok := visible[m.ReplyToID]; ok && m.ReplyToID != "" {
			v.ReplyTo = replySnapshot(target, users)
		}
		views = append(views, v)
	}
	return views, nil
}

// Delete removes a message on behalf of its sender.
// conversationID is optional; when given it must match the message's conversation.
func (s *MessageService) Delete(messageID, requesterID, conversationID string, now time.Time) (domain.Message, error) {
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !message.IsVisible(now) || (conversationID != "" && conversationID != message.ConversationID) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if message.SenderID != requesterID {
		return domain.Message{}, errors.ErrNotSender
	}

	deleted, err := s.messages.Delete(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	s.log.Debug("Message deleted", "message_id", messageID, "conversation_id", deleted.ConversationID)
	return deleted, nil
}

// ConversationOf resolves the conversation a visible message belongs to.
func (s *MessageService) ConversationOf(messageID string, now time.Time) (string, error) {
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return "", err
	}
	if !message.IsVisible(now) {
		return "", errors.ErrMessageNotFound
	}
	return message.ConversationID, nil
}

func replySnapshot(target domain.Message, users map[string]domain.User) *domain.ReplySnapshot {
	return &domain.ReplySnapshot{
		ID:                target.ID,
		SenderID:          target.SenderID,
		SenderDisplayName: users[target.SenderID].DisplayName,
		Content:           target.Content,
	}
}
