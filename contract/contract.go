//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the events pushed to one destination (a live session, metrics...).
// Consume must not block the caller for long.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IRegistry tracks live sessions and the conversation rooms they joined.
// A user has at most one live session.
type IRegistry interface {
	// Attach binds sink to userID and returns the session it replaced, if any.
	Attach(userID string, sink EventSink) (previous EventSink, replaced bool)
	// Detach removes sink only if it is still the live session of its user.
	Detach(sink EventSink) (userID string, removed bool)
	SessionFor(userID string) (EventSink, bool)
	Join(sink EventSink, conversationID string) bool
	Leave(sink EventSink, conversationID string)
	// RemoveConversation empties a room and returns its former members.
	RemoveConversation(conversationID string) []EventSink
	SinksFor(conversationID string) []EventSink
	SessionCount() int
}

// CommandHandler applies a command and returns its result and the event to broadcast.
// The event is nil when nothing observable changed.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.Command) (any, event.DomainEvent, error)
}

type MembershipChecker interface {
	CheckMembership(ctx context.Context, conversationID, userID string) error
}

type ExpiredMessageSweeper interface {
	DeleteExpired(now time.Time) (int, error)
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type IOrchestrator interface {
	Dispatch(ctx context.Context, cmd domain.Command) (any, error)
	Attach(userID string, sink EventSink)
	Detach(sink EventSink)
	JoinConversation(ctx context.Context, sink EventSink, userID, conversationID string) error
	LeaveConversation(sink EventSink, conversationID string)
	Start(ctx context.Context) error
	Stop()
}
