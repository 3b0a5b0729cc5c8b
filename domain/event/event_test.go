package event

import (
	"testing"
	"time"

	"ephemeral-chat/domain"
	"github.com/stretchr/testify/require"
)

func TestDomainEvents_Are_Scoped_To_Their_Conversation(t *testing.T) {
	req := require.New(t)

	msg := domain.NewMessage("conv-1", "alice", "hello", "", time.Now(), domain.DefaultMessageTTL)

	events := []DomainEvent{
		NewMessage{Message: domain.MessageView{Message: msg}},
		MessageDeleted{Conversation: "conv-1", MessageID: msg.ID},
		ReactionAdded{Conversation: "conv-1", MessageID: msg.ID, Emoji: "👍", UserID: "bob"},
		ReactionRemoved{Conversation: "conv-1", MessageID: msg.ID, Emoji: "👍", UserID: "bob"},
		ConversationDeleted{Conversation: "conv-1", DeletedBy: "alice"},
	}
	for _, e := range events {
		req.Equal("conv-1", e.ConversationID(), string(e.Name()))
	}
}

func TestSessionEvents_Wire_Names(t *testing.T) {
	req := require.New(t)

	req.Equal(Name("authenticated"), Authenticated{Success: true}.Name())
	req.Equal(Name("error"), Failure{Message: "boom"}.Name())
}
