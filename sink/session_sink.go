package sink

import (
	"context"
	"sync"
	"sync/atomic"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"github.com/google/uuid"
)

const DefaultSessionBuffer = 64

// SessionSink is the outbound queue of one realtime connection.
// Consume never blocks: when the buffer is full the event is dropped.
// The connection writer drains Events and is the only one talking to the stream.
type SessionSink struct {
	ID      string
	events  chan event.Event
	closed  chan struct{}
	once    sync.Once
	dropped atomic.Uint64
	onDrop  func()
}

var _ contract.EventSink = (*SessionSink)(nil)

func NewSessionSink(bufferSize int, onDrop func()) *SessionSink {
	if bufferSize <= 0 {
		bufferSize = DefaultSessionBuffer
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	return &SessionSink{
		ID:     uuid.NewString(),
		events: make(chan event.Event, bufferSize),
		closed: make(chan struct{}),
		onDrop: onDrop,
	}
}

func (s *SessionSink) Consume(_ context.Context, e event.Event) error {
	select {
	case <-s.closed:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case s.events <- e:
		return nil
	default:
		s.dropped.Add(1)
		s.onDrop()
		return errors.ErrSinkFull
	}
}

func (s *SessionSink) Events() <-chan event.Event {
	return s.events
}

// Done is closed once the session is closed, by its own connection or because
// a newer connection of the same user replaced it.
func (s *SessionSink) Done() <-chan struct{} {
	return s.closed
}

func (s *SessionSink) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *SessionSink) Dropped() uint64 {
	return s.dropped.Load()
}
