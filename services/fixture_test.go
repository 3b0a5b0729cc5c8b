package services_test

import (
	"log/slog"
	"testing"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/infrastructure/storage"
	"ephemeral-chat/services"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testTTL = 12 * time.Hour

type fixture struct {
	users         *storage.UserRepository
	conversations *services.ConversationService
	messages      *services.MessageService
	reactions     *services.ReactionService
	blocks        *services.BlockService
	handler       *services.CommandHandler
	messageRepo   *storage.MessageRepository
}

func newFixture(t *testing.T, censor services.Censor) fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	users := storage.NewUserRepository(db)
	conversationRepo := storage.NewConversationRepository(db, log)
	messageRepo := storage.NewMessageRepository(db, log, 100)

	conversations := services.NewConversationService(conversationRepo, users, log)
	messages := services.NewMessageService(messageRepo, conversationRepo, users, censor, testTTL, log)
	reactions := services.NewReactionService(messageRepo, conversationRepo)
	return fixture{
		users:         users,
		conversations: conversations,
		messages:      messages,
		reactions:     reactions,
		blocks:        services.NewBlockService(users, log),
		handler:       services.NewCommandHandler(messages, reactions, conversations),
		messageRepo:   messageRepo,
	}
}

func (f fixture) user(t *testing.T, name string) domain.User {
	t.Helper()
	user := domain.User{
		ID:          uuid.NewString(),
		Email:       name + "@example.com",
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.users.CreateUser(user))
	return user
}

func (f fixture) conversation(t *testing.T, a, b domain.User) string {
	t.Helper()
	view, err := f.conversations.GetOrCreate(a.ID, b.ID)
	require.NoError(t, err)
	return view.ID
}

func (f fixture) send(t *testing.T, conversationID string, sender domain.User, content, replyTo string, at time.Time) domain.MessageView {
	t.Helper()
	view, err := f.messages.Send(domain.SendMessageCommand{
		Conversation: conversationID,
		SenderID:     sender.ID,
		Content:      content,
		ReplyToID:    replyTo,
		CreatedAt:    at,
	})
	require.NoError(t, err)
	return view
}
