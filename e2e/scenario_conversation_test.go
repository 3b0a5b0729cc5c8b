package e2e

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ephemeral-chat/client"
	"github.com/stretchr/testify/suite"
)

type testConversationSuite struct {
	BaseGrpcSuite
}

func TestConversationSuite(t *testing.T) {
	suite.Run(t, &testConversationSuite{})
}

func (s *testConversationSuite) TestMessageLifecycle() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	alice := s.NewUser(ctx)
	bob := s.NewUser(ctx)

	conversation, err := alice.StartConversation(ctx, bob.User.ID)
	s.Require().NoError(err)

	// Starting it from the other side returns the same conversation
	again, err := bob.StartConversation(ctx, alice.User.ID)
	s.Require().NoError(err)
	s.Require().Equal(conversation.ID, again.ID)

	var messageID string
	s.Run("Step 1: send, react and delete over the stream", func() {
		s.WithSession("Alice realtime session", alice, func(ctx context.Context, session *client.Session) {
			s.Require().NoError(session.Join(conversation.ID))
			s.Require().NoError(session.SendMessage(conversation.ID, "hello bob", ""))

			frame := s.next(session, "newMessage")
			messageID = frame.Doc()["id"].(string)
			s.Require().Equal("hello bob", frame.Doc()["content"])

			s.Require().NoError(session.React(conversation.ID, messageID, "👍", true))
			frame = s.next(session, "reactionAdded")
			s.Require().Equal("👍", frame.Doc()["emoji"])
		})
	})

	s.Run("Step 2: history keeps the message with its reaction", func() {
		history, err := bob.History(ctx, conversation.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Require().Equal([]string{alice.User.ID}, history[0].Reactions["👍"])
		s.Require().True(history[0].ExpiresAt.After(time.Now()))
	})

	s.Run("Step 3: blocking forbids new messages", func() {
		s.Require().NoError(bob.Block(ctx, alice.User.ID))
		s.WithSession("Alice blocked", alice, func(ctx context.Context, session *client.Session) {
			s.Require().NoError(session.Join(conversation.ID))
			s.Require().NoError(session.SendMessage(conversation.ID, "still there?", ""))
			frame := s.next(session, "error")
			s.Require().Equal("FORBIDDEN", frame.Doc()["code"])
		})
	})

	s.Run("Step 4: deleting the conversation removes it for both", func() {
		s.Require().NoError(alice.DeleteConversation(ctx, conversation.ID))
		_, err := bob.History(ctx, conversation.ID)
		var apiErr *client.APIError
		s.Require().ErrorAs(err, &apiErr)
		s.Require().Equal(http.StatusNotFound, apiErr.Status)
	})
}

// next skips frames until one named event arrives.
func (s *testConversationSuite) next(session *client.Session, event string) client.Frame {
	for {
		frame, err := session.Next()
		s.Require().NoError(err)
		if frame.Event == event {
			return frame
		}
	}
}
