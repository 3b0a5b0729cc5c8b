//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/storage"
	"github.com/samber/lo"
)

type IConversationService interface {
	GetOrCreate(userID, otherUserID string) (domain.ConversationView, error)
	ListFor(userID string) ([]domain.ConversationView, error)
	Delete(conversationID, requesterID string) error
	CheckMembership(ctx context.Context, conversationID, userID string) error
}

type ConversationService struct {
	conversations storage.IConversationRepository
	users         storage.IUserRepository
	log           *slog.Logger
	now           func() time.Time
}

func NewConversationService(conversations storage.IConversationRepository,
	users storage.IUserRepository, log *slog.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		users:         users,
		log:           log,
		now:           time.Now,
	}
}

// GetOrCreate returns the conversation of the unordered pair {userID, otherUserID}.
// An existing conversation is returned whatever the block state,
// a new one is only created when neither user blocks the other.
func (s *ConversationService) GetOrCreate(userID, otherUserID string) (domain.ConversationView, error) {
	if userID == otherUserID {
		return domain.ConversationView{}, errors.ErrSelfConversation
	}
	users, err := s.users.GetUsers([]string{userID, otherUserID})
	if err != nil {
		return domain.ConversationView{}, err
	}
	me, okMe := users[userID]
	other, okOther := users[otherUserID]
	if !okMe || !okOther {
		return domain.ConversationView{}, errors.ErrUserNotFound
	}

	existing, found, err := s.conversations.GetByPair(userID, otherUserID)
	if err != nil {
		return domain.ConversationView{}, err
	}
	if found {
		return view(existing, me, other), nil
	}

	if domain.IsBlockedPair(me, other) {
		return domain.ConversationView{}, errors.ErrUserBlocked
	}

	conversation, created, err := s.conversations.CreateIfAbsent(domain.NewConversation(userID, otherUserID, s.now().UTC()))
	if err != nil {
		return domain.ConversationView{}, err
	}
	if created {
		s.log.Info("Conversation created", "conversation_id", conversation.ID, "user_id", userID)
	}
	return view(conversation, me, other), nil
}

// ListFor returns the conversations of userID, most recent activity first.
func (s *ConversationService) ListFor(userID string) ([]domain.ConversationView, error) {
	me, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	conversations, err := s.conversations.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	others, err := s.users.GetUsers(lo.Map(conversations, func(c domain.Conversation, _ int) string {
		return c.OtherParticipant(userID)
	}))
	if err != nil {
		return nil, err
	}

	views := lo.FilterMap(conversations, func(c domain.Conversation, _ int) (domain.ConversationView, bool) {
		other, ok := others[c.OtherParticipant(userID)]
		return view(c, me, other), ok
	})
	slices.SortStableFunc(views, func(a, b domain.ConversationView) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
	return views, nil
}

// Delete removes the conversation and all its messages. Irreversible.
func (s *ConversationService) Delete(conversationID, requesterID string) error {
	if err := s.CheckMembership(context.Background(), conversationID, requesterID); err != nil {
		return err
	}
	removed, err := s.conversations.Delete(conversationID)
	if err != nil {
		return err
	}
	s.log.Info("Conversation deleted", "conversation_id", conversationID,
		"user_id", requesterID, "messages", removed)
	return nil
}

// CheckMembership fails with NotFound when the conversation doesn't exist
// and with Forbidden when userID is not one of its participants.
func (s *ConversationService) CheckMembership(_ context.Context, conversationID, userID string) error {
	conversation, err := s.conversations.GetByID(conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userID) {
		return errors.ErrNotParticipant
	}
	return nil
}

func view(c domain.Conversation, me, other domain.User) domain.ConversationView {
	return domain.ConversationView{
		ID:                 c.ID,
		OtherUser:          other.Profile(),
		LastMessageAt:      c.LastMessageAt,
		LastMessagePreview: c.LastMessagePreview,
		IsBlocked:          domain.IsBlockedPair(me, other),
	}
}
