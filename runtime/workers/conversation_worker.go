package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"ephemeral-chat/observability"
)

// Ensure *ConversationWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*ConversationWorker)(nil)

// Envelope carries a command to its shard together with the caller's context
// and the channel the caller waits on.
type Envelope struct {
	Ctx   context.Context
	Cmd   domain.Command
	Reply chan Reply
}

type Reply struct {
	Result any
	Err    error
}

func NewEnvelope(ctx context.Context, cmd domain.Command) Envelope {
	return Envelope{Ctx: ctx, Cmd: cmd, Reply: make(chan Reply, 1)}
}

// ConversationWorker is the single writer of every conversation hashed to its shard.
// Commands of one conversation are handled one at a time and in arrival order,
// and their events are published in that same order.
type ConversationWorker struct {
	shard    int
	commands <-chan Envelope
	events   chan<- event.DomainEvent
	handler  contract.CommandHandler
	metrics  *observability.Metrics
	log      *slog.Logger
}

func NewConversationWorker(
	shard int,
	commands <-chan Envelope,
	events chan<- event.DomainEvent,
	handler contract.CommandHandler,
	metrics *observability.Metrics,
	log *slog.Logger) *ConversationWorker {
	return &ConversationWorker{
		shard:    shard,
		commands: commands,
		events:   events,
		handler:  handler,
		metrics:  metrics,
		log:      log.With("shard", shard),
	}
}

func (w *ConversationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping conversation worker")
			return ctx.Err()
		case envelope, ok := <-w.commands:
			if !ok {
				w.log.Debug("Command channel is closed")
				return nil
			}
			w.process(ctx, envelope)
		}
	}
}

func (w *ConversationWorker) process(ctx context.Context, envelope Envelope) {
	if envelope.Ctx.Err() != nil {
		// Nobody is waiting anymore
		envelope.Reply <- Reply{Err: errors.ErrDispatchAbort}
		return
	}

	start := time.Now()
	result, evt, err := w.handle(envelope)
	if w.metrics != nil {
		w.metrics.CommandDuration.WithLabelValues(commandName(envelope.Cmd)).Observe(time.Since(start).Seconds())
	}

	if err == nil && evt != nil {
		select {
		case w.events <- evt:
		case <-ctx.Done():
			w.log.Debug("Event not published, worker is stopping", "conversation_id", evt.ConversationID())
		}
	}
	envelope.Reply <- Reply{Result: result, Err: err}
}

// handle recovers a panic raised by one command so that the caller gets an
// Internal error and the next command of the shard is served normally.
func (w *ConversationWorker) handle(envelope Envelope) (result any, evt event.DomainEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Command handler panicked",
				"command", commandName(envelope.Cmd),
				"conversation_id", envelope.Cmd.ConversationID(),
				"panic", r)
			result, evt, err = nil, nil, errors.ErrWorkerPanic
		}
	}()
	return w.handler.Handle(envelope.Ctx, envelope.Cmd)
}

func commandName(cmd domain.Command) string {
	if cmd == nil {
		return "NilCommand"
	}
	t := reflect.TypeOf(cmd)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
