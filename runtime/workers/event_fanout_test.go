package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"ephemeral-chat/mocks"
	"ephemeral-chat/observability"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Delivers_To_Room_And_Permanent_Sinks(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	roomSink1 := mocks.NewMockEventSink(ctrl)
	roomSink2 := mocks.NewMockEventSink(ctrl)
	permanentSink := mocks.NewMockEventSink(ctrl)
	evt := event.MessageDeleted{Conversation: "conv-1", MessageID: "msg-1"}

	fanout := NewEventFanout(log, nil, mockRegistry, nil, time.Second, permanentSink)

	// Given two sessions joined to the conversation
	mockRegistry.EXPECT().SinksFor("conv-1").Return([]contract.EventSink{roomSink1, roomSink2}).Times(1)

	// Then every sink receives the event once
	roomSink1.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	roomSink2.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	permanentSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	// When the event is fanned out
	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_ConversationDeleted_Dissolves_The_Room(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	roomSink := mocks.NewMockEventSink(ctrl)
	evt := event.ConversationDeleted{Conversation: "conv-1", DeletedBy: "alice"}

	fanout := NewEventFanout(log, nil, mockRegistry, nil, time.Second)

	// Then the room is removed rather than read, and its members are notified
	mockRegistry.EXPECT().SinksFor(gomock.Any()).Times(0)
	mockRegistry.EXPECT().RemoveConversation("conv-1").Return([]contract.EventSink{roomSink}).Times(1)
	roomSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_SinkTimeout_Counts_A_Drop(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slowSink := mocks.NewMockEventSink(ctrl)
	closedSink := mocks.NewMockEventSink(ctrl)
	metrics := observability.NewMetrics()

	fanout := NewEventFanout(log, nil, mockRegistry, metrics, 20*time.Millisecond)

	mockRegistry.EXPECT().SinksFor(gomock.Any()).Return([]contract.EventSink{slowSink, closedSink}).Times(1)
	// Given a sink that never returns before its deadline
	slowSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ event.Event) error {
			<-ctx.Done()
			return ctx.Err()
		}).Times(1)
	// Given a session that is already closed
	closedSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSessionClosed).Times(1)

	// When an event is fanned out
	fanout.Fanout(context.Background(), event.MessageDeleted{Conversation: "conv-1"})

	// Then only the timeout is counted as a drop
	req.Equal(1.0, testutil.ToFloat64(metrics.EventsDropped))
}

func TestEventFanout_Run_Preserves_Order(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	roomSink := mocks.NewMockEventSink(ctrl)
	events := make(chan event.DomainEvent, 10)

	mockRegistry.EXPECT().SinksFor("conv-1").Return([]contract.EventSink{roomSink}).AnyTimes()

	var received []string
	done := make(chan struct{})
	roomSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.Event) error {
			received = append(received, e.(event.MessageDeleted).MessageID)
			if len(received) == 3 {
				close(done)
			}
			return nil
		}).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewEventFanout(log, events, mockRegistry, nil, time.Second).Run(ctx) }()

	// When three events of the same conversation are published
	for _, id := range []string{"1", "2", "3"} {
		events <- event.MessageDeleted{Conversation: "conv-1", MessageID: id}
	}

	// Then they are delivered in publication order
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("events were not delivered in time")
	}
	req.Equal([]string{"1", "2", "3"}, received)
}
