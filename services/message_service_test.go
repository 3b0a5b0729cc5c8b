package services_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/moderation"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMessageService_Send(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)
	now := time.Now().UTC()

	view := f.send(t, conv, alice, "   hello bob  ", "", now)

	req.Equal("hello bob", view.Content)
	req.Equal(now.Add(testTTL), view.ExpiresAt)
	req.Equal("Alice", view.Sender.DisplayName)
	req.Nil(view.ReplyTo)
	req.Empty(view.Reactions)

	views, err := f.conversations.ListFor(bob.ID)
	req.NoError(err)
	req.Equal("hello bob", views[0].LastMessagePreview)
	req.Equal(now.UnixNano(), views[0].LastMessageAt.UnixNano())
}

func TestMessageService_Send_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	alice, bob, mallory := f.user(t, "Alice"), f.user(t, "Bob"), f.user(t, "Mallory")
	conv := f.conversation(t, alice, bob)
	other := f.conversation(t, alice, mallory)
	now := time.Now().UTC()
	elsewhere := f.send(t, other, mallory, "not in your conversation", "", now)

	tests := []struct {
		name string
		cmd  domain.SendMessageCommand
		want error
	}{
		{"blank content", domain.SendMessageCommand{Conversation: conv, SenderID: alice.ID, Content: " \n\t "}, errors.ErrEmptyContent},
		{"unknown conversation", domain.SendMessageCommand{Conversation: "missing", SenderID: alice.ID, Content: "hi"}, errors.ErrConversationNotFound},
		{"sender outside the conversation", domain.SendMessageCommand{Conversation: conv, SenderID: mallory.ID, Content: "hi"}, errors.ErrNotFound},
		{"reply to unknown message", domain.SendMessageCommand{Conversation: conv, SenderID: alice.ID, Content: "hi", ReplyToID: "missing"}, errors.ErrReplyTargetNotFound},
		{"reply across conversations", domain.SendMessageCommand{Conversation: conv, SenderID: alice.ID, Content: "hi", ReplyToID: elsewhere.ID}, errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.CreatedAt = now
			_, err := f.messages.Send(tt.cmd)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMessageService_Send_Blocked_Both_Directions(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)

	// Given Alice blocks Bob
	req.NoError(f.blocks.Block(alice.ID, bob.ID))

	// Then neither of them can send
	for _, sender := range []domain.User{alice, bob} {
		_, err := f.messages.Send(domain.SendMessageCommand{
			Conversation: conv, SenderID: sender.ID, Content: "hi", CreatedAt: time.Now().UTC(),
		})
		req.ErrorIs(err, errors.ErrUserBlocked)
		req.ErrorIs(err, errors.ErrForbidden)
	}

	// When Alice unblocks Bob, Bob can send again
	req.NoError(f.blocks.Unblock(alice.ID, bob.ID))
	f.send(t, conv, bob, "welcome back", "", time.Now().UTC())
}

func TestMessageService_Reply_Snapshot_And_Resolution(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)
	now := time.Now().UTC()

	question := f.send(t, conv, alice, "are you there?", "", now)
	answer := f.send(t, conv, bob, "yes", question.ID, now.Add(time.Second))

	req.NotNil(answer.ReplyTo)
	req.Equal(domain.ReplySnapshot{
		ID: question.ID, SenderID: alice.ID, SenderDisplayName: "Alice", Content: "are you there?",
	}, *answer.ReplyTo)

	history, err := f.messages.ListFor(conv, bob.ID, now.Add(time.Minute))
	req.NoError(err)
	req.Len(history, 2)
	req.Nil(history[0].ReplyTo)
	req.Equal(question.ID, history[1].ReplyTo.ID)

	// When the question expires, the reply no longer resolves it
	history, err = f.messages.ListFor(conv, bob.ID, question.ExpiresAt)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(answer.ID, history[0].ID)
	req.Nil(history[0].ReplyTo)

	// And it can't be replied to anymore
	_, err = f.messages.Send(domain.SendMessageCommand{
		Conversation: conv, SenderID: bob.ID, Content: "late", ReplyToID: question.ID, CreatedAt: question.ExpiresAt,
	})
	req.ErrorIs(err, errors.ErrReplyTargetNotFound)
}

func TestMessageService_ListFor_Requires_Membership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob, mallory := f.user(t, "Alice"), f.user(t, "Bob"), f.user(t, "Mallory")
	conv := f.conversation(t, alice, bob)

	_, err := f.messages.ListFor(conv, mallory.ID, time.Now())
	req.ErrorIs(err, errors.ErrNotParticipant)

	_, err = f.messages.ListFor("missing", alice.ID, time.Now())
	req.ErrorIs(err, errors.ErrConversationNotFound)

	history, err := f.messages.ListFor(conv, alice.ID, time.Now())
	req.NoError(err)
	req.Empty(history)
}

func TestMessageService_Delete(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)
	now := time.Now().UTC()

	target := f.send(t, conv, alice, "oops", "", now)
	reply := f.send(t, conv, bob, "what?", target.ID, now.Add(time.Second))

	_, err := f.messages.Delete(target.ID, bob.ID, conv, now)
	req.ErrorIs(err, errors.ErrNotSender)

	_, err = f.messages.Delete(target.ID, alice.ID, "another-conversation", now)
	req.ErrorIs(err, errors.ErrMessageNotFound)

	deleted, err := f.messages.Delete(target.ID, alice.ID, conv, now)
	req.NoError(err)
	req.Equal(conv, deleted.ConversationID)

	// Then the reply loses its reference
	stored, err := f.messageRepo.GetByID(reply.ID)
	req.NoError(err)
	req.Empty(stored.ReplyToID)

	// And a second delete is NotFound
	_, err = f.messages.Delete(target.ID, alice.ID, conv, now)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageService_Delete_Expired_Is_NotFound(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)
	msg := f.send(t, conv, alice, "short lived", "", time.Now().UTC())

	_, err := f.messages.Delete(msg.ID, alice.ID, conv, msg.ExpiresAt)
	req.ErrorIs(err, errors.ErrMessageNotFound)

	_, err = f.messages.ConversationOf(msg.ID, msg.ExpiresAt)
	req.ErrorIs(err, errors.ErrMessageNotFound)
	convID, err := f.messages.ConversationOf(msg.ID, msg.CreatedAt)
	req.NoError(err)
	req.Equal(conv, convID)
}

func TestMessageService_Censors_Content(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	f := newFixture(t, moderator)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)

	view := f.send(t, conv, alice, "the badger is here", "", time.Now().UTC())

	req.Equal("the ****** is here", view.Content)
}

func TestMessageService_Preview_Is_Truncated(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")
	conv := f.conversation(t, alice, bob)

	f.send(t, conv, alice, strings.Repeat("x", 80), "", time.Now().UTC())

	views, err := f.conversations.ListFor(alice.ID)
	req.NoError(err)
	req.Equal(strings.Repeat("x", domain.PreviewLength)+"...", views[0].LastMessagePreview)
}
