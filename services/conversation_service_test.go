package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ephemeral-chat/errors"
	"github.com/stretchr/testify/require"
)

func TestConversationService_GetOrCreate(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")

	first, err := f.conversations.GetOrCreate(alice.ID, bob.ID)
	req.NoError(err)
	req.Equal(bob.ID, first.OtherUser.ID)
	req.False(first.IsBlocked)

	// Then the reversed pair resolves to the same conversation
	second, err := f.conversations.GetOrCreate(bob.ID, alice.ID)
	req.NoError(err)
	req.Equal(first.ID, second.ID)
	req.Equal(alice.ID, second.OtherUser.ID)

	_, err = f.conversations.GetOrCreate(alice.ID, alice.ID)
	req.ErrorIs(err, errors.ErrSelfConversation)

	_, err = f.conversations.GetOrCreate(alice.ID, "ghost")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestConversationService_Concurrent_GetOrCreate(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")

	ids := make([]string, 10)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			view, err := f.conversations.GetOrCreate(a, b)
			if err == nil {
				ids[i] = view.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		req.Equal(ids[0], id)
	}
	req.NotEmpty(ids[0])
}

func TestConversationService_Blocking_Gates_Creation_Only(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob, carol := f.user(t, "Alice"), f.user(t, "Bob"), f.user(t, "Carol")
	existing := f.conversation(t, alice, bob)

	// Given Bob blocks both Alice and Carol
	req.NoError(f.blocks.Block(bob.ID, alice.ID))
	req.NoError(f.blocks.Block(bob.ID, carol.ID))

	// Then a new conversation is refused in both directions
	_, err := f.conversations.GetOrCreate(carol.ID, bob.ID)
	req.ErrorIs(err, errors.ErrForbidden)
	_, err = f.conversations.GetOrCreate(bob.ID, carol.ID)
	req.ErrorIs(err, errors.ErrUserBlocked)

	// But the existing one is still returned, flagged as blocked
	view, err := f.conversations.GetOrCreate(alice.ID, bob.ID)
	req.NoError(err)
	req.Equal(existing, view.ID)
	req.True(view.IsBlocked)
}

func TestConversationService_ListFor_Is_Sorted_By_Activity(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob, carol := f.user(t, "Alice"), f.user(t, "Bob"), f.user(t, "Carol")
	withBob := f.conversation(t, alice, bob)
	withCarol := f.conversation(t, alice, carol)
	now := time.Now().UTC()

	f.send(t, withCarol, carol, "first", "", now)
	f.send(t, withBob, bob, "most recent one", "", now.Add(time.Minute))
	req.NoError(f.blocks.Block(carol.ID, alice.ID))

	views, err := f.conversations.ListFor(alice.ID)
	req.NoError(err)
	req.Len(views, 2)
	req.Equal(withBob, views[0].ID)
	req.Equal("most recent one", views[0].LastMessagePreview)
	req.False(views[0].IsBlocked)
	req.Equal(withCarol, views[1].ID)
	req.Equal("Carol", views[1].OtherUser.DisplayName)
	req.True(views[1].IsBlocked)
}

func TestConversationService_Delete(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	alice, bob, mallory := f.user(t, "Alice"), f.user(t, "Bob"), f.user(t, "Mallory")
	conv := f.conversation(t, alice, bob)
	msg := f.send(t, conv, alice, "hello", "", time.Now().UTC())

	req.ErrorIs(f.conversations.Delete(conv, mallory.ID), errors.ErrForbidden)
	req.ErrorIs(f.conversations.Delete("missing", alice.ID), errors.ErrNotFound)

	req.NoError(f.conversations.Delete(conv, bob.ID))

	_, err := f.messageRepo.GetByID(msg.ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)
	req.ErrorIs(f.conversations.CheckMembership(context.Background(), conv, alice.ID), errors.ErrConversationNotFound)

	// The pair can be created again
	again, err := f.conversations.GetOrCreate(alice.ID, bob.ID)
	req.NoError(err)
	req.NotEqual(conv, again.ID)
}
