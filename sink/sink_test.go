package sink

import (
	"context"
	"testing"

	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"ephemeral-chat/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSessionSink_Drops_When_Buffer_Is_Full(t *testing.T) {
	req := require.New(t)
	drops := 0
	s := NewSessionSink(2, func() { drops++ })
	ctx := context.Background()

	// Given a buffer of two events
	req.NoError(s.Consume(ctx, event.MessageDeleted{Conversation: "c", MessageID: "1"}))
	req.NoError(s.Consume(ctx, event.MessageDeleted{Conversation: "c", MessageID: "2"}))

	// When a third one arrives without anyone reading
	err := s.Consume(ctx, event.MessageDeleted{Conversation: "c", MessageID: "3"})

	// Then it is dropped and counted, the first two are kept in order
	req.ErrorIs(err, errors.ErrSinkFull)
	req.Equal(uint64(1), s.Dropped())
	req.Equal(1, drops)
	req.Equal("1", (<-s.Events()).(event.MessageDeleted).MessageID)
	req.Equal("2", (<-s.Events()).(event.MessageDeleted).MessageID)
}

func TestSessionSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(0, nil)

	req.NoError(s.Close())
	req.NoError(s.Close())

	// Then Done is closed and nothing is accepted anymore
	_, open := <-s.Done()
	req.False(open)
	req.ErrorIs(s.Consume(context.Background(), event.Failure{Message: "x"}), errors.ErrSessionClosed)
	req.Zero(s.Dropped())
}

func TestMetricsSink_Counts_Events(t *testing.T) {
	req := require.New(t)
	metrics := observability.NewMetrics()
	s := NewMetricsSink(metrics)
	ctx := context.Background()

	req.NoError(s.Consume(ctx, event.NewMessage{Message: domain.MessageView{Message: domain.Message{ConversationID: "c"}}}))
	req.NoError(s.Consume(ctx, event.NewMessage{Message: domain.MessageView{Message: domain.Message{ConversationID: "c"}}}))
	req.NoError(s.Consume(ctx, event.MessageDeleted{Conversation: "c"}))

	req.Equal(2.0, testutil.ToFloat64(metrics.MessagesSent))
	req.Equal(2.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(event.NewMessageName))))
	req.Equal(1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(event.MessageDeletedName))))
}
