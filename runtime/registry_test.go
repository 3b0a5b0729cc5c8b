package runtime

import (
	"context"
	"sync"
	"testing"

	"ephemeral-chat/domain/event"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	id string
}

func newSink() *Sink {
	return &Sink{id: uuid.NewString()}
}

func (s *Sink) Consume(_ context.Context, _ event.Event) error {
	return nil
}

func TestRegistry_Attach_Join_One_Conversation(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	conversationID := uuid.NewString()
	sink := newSink()

	// Given no user is connected
	req.Zero(registry.SessionCount())
	req.Nil(registry.SinksFor(conversationID))

	// When a user attaches then joins a conversation
	previous, replaced := registry.Attach(userID, sink)
	req.Nil(previous)
	req.False(replaced)
	req.True(registry.Join(sink, conversationID))

	// Then the session is live and in the room
	live, ok := registry.SessionFor(userID)
	req.True(ok)
	req.Same(sink, live)
	req.Equal(1, registry.SessionCount())
	req.Len(registry.SinksFor(conversationID), 1)
	req.Contains(registry.SinksFor(conversationID), sink)
}

func TestRegistry_Join_Requires_Attached_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When an unauthenticated session tries to join
	ok := registry.Join(newSink(), uuid.NewString())

	// Then it is refused
	req.False(ok)
}

func TestRegistry_Attach_Replaces_Previous_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	conversationID := uuid.NewString()
	oldSink := newSink()
	newerSink := newSink()

	// Given a session joined to a conversation
	registry.Attach(userID, oldSink)
	req.True(registry.Join(oldSink, conversationID))

	// When the same user connects again
	previous, replaced := registry.Attach(userID, newerSink)

	// Then the old session is returned and evicted from its rooms
	req.True(replaced)
	req.Same(oldSink, previous)
	req.Nil(registry.SinksFor(conversationID))
	live, _ := registry.SessionFor(userID)
	req.Same(newerSink, live)
	req.Equal(1, registry.SessionCount())

	// And the replaced session cannot join anymore
	req.False(registry.Join(oldSink, conversationID))
}

func TestRegistry_Attach_Same_Session_Twice_Is_Not_A_Replacement(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sink := newSink()

	registry.Attach(userID, sink)
	_, replaced := registry.Attach(userID, sink)

	req.False(replaced)
	req.Equal(1, registry.SessionCount())
}

func TestRegistry_Detach_Stale_Session_Keeps_Newer_One(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	oldSink := newSink()
	newerSink := newSink()

	// Given a session replaced by a newer one
	registry.Attach(userID, oldSink)
	registry.Attach(userID, newerSink)

	// When the old connection finally disconnects
	_, removed := registry.Detach(oldSink)

	// Then the newer session is still live
	req.False(removed)
	live, ok := registry.SessionFor(userID)
	req.True(ok)
	req.Same(newerSink, live)

	// When the live one disconnects
	detachedUser, removed := registry.Detach(newerSink)

	// Then the user is offline
	req.True(removed)
	req.Equal(userID, detachedUser)
	_, ok = registry.SessionFor(userID)
	req.False(ok)
	req.Zero(registry.SessionCount())
}

func TestRegistry_Detach_Removes_Session_From_All_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := newSink()
	conv1 := uuid.NewString()
	conv2 := uuid.NewString()

	registry.Attach(uuid.NewString(), sink)
	registry.Join(sink, conv1)
	registry.Join(sink, conv2)

	registry.Detach(sink)

	req.Nil(registry.SinksFor(conv1))
	req.Nil(registry.SinksFor(conv2))
	req.Empty(registry.rooms)
	req.Empty(registry.joined)
}

func TestRegistry_Leave_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userA, userB := uuid.NewString(), uuid.NewString()
	sinkA, sinkB := newSink(), newSink()
	conversationID := uuid.NewString()

	// Given two sessions in the same room
	registry.Attach(userA, sinkA)
	registry.Attach(userB, sinkB)
	registry.Join(sinkA, conversationID)
	registry.Join(sinkB, conversationID)

	// When one leaves twice
	registry.Leave(sinkA, conversationID)
	registry.Leave(sinkA, conversationID)

	// Then only the other stays
	req.Equal([]any{sinkB}, toAny(registry.SinksFor(conversationID)))

	// When the last one leaves, no empty room is left behind
	registry.Leave(sinkB, conversationID)
	req.Empty(registry.rooms)
}

func TestRegistry_RemoveConversation_Returns_Former_Members(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sinkA, sinkB := newSink(), newSink()
	conversationID := uuid.NewString()
	other := uuid.NewString()

	registry.Attach(uuid.NewString(), sinkA)
	registry.Attach(uuid.NewString(), sinkB)
	registry.Join(sinkA, conversationID)
	registry.Join(sinkB, conversationID)
	registry.Join(sinkA, other)

	// When the conversation is removed
	members := registry.RemoveConversation(conversationID)

	// Then both sessions are returned and the room is gone
	req.Len(members, 2)
	req.ElementsMatch(toAny([]*Sink{sinkA, sinkB}), toAny(members))
	req.Nil(registry.SinksFor(conversationID))

	// And other rooms are untouched
	req.Len(registry.SinksFor(other), 1)

	// And removing an unknown conversation returns nothing
	req.Empty(registry.RemoveConversation(uuid.NewString()))
}

func TestRegistry_Concurrent_Attach_Detach(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conversationID := uuid.NewString()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink := newSink()
			registry.Attach(uuid.NewString(), sink)
			registry.Join(sink, conversationID)
			registry.SinksFor(conversationID)
			registry.Detach(sink)
		}()
	}
	wg.Wait()

	req.Zero(registry.SessionCount())
	req.Nil(registry.SinksFor(conversationID))
}

func toAny[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
