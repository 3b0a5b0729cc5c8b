package workers

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"ephemeral-chat/observability"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout delivers each published domain event to the sessions joined to
// its conversation, then to the permanent sinks.
//
// Delivery is best-effort: no ack, no retry, no offline queue.
// Events are consumed from a single channel and delivered one after the other,
// which keeps the order produced by the conversation workers.
type EventFanout struct {
	log            *slog.Logger
	events         <-chan event.DomainEvent
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
	metrics        *observability.Metrics
}

func NewEventFanout(
	log *slog.Logger,
	events <-chan event.DomainEvent,
	registry contract.IRegistry,
	metrics *observability.Metrics,
	sinkTimeout time.Duration,
	permanentSinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		events:         events,
		registry:       registry,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
		metrics:        metrics,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return ctx.Err()
		}
	}
}

// Fanout A conversationDeleted event also dissolves the room: its former
// members are the last ones to hear about that conversation.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var sinks []contract.EventSink
	if _, ok := evt.(event.ConversationDeleted); ok {
		sinks = w.registry.RemoveConversation(evt.ConversationID())
	} else {
		sinks = w.registry.SinksFor(evt.ConversationID())
	}
	for _, sink := range sinks {
		w.deliver(ctx, sink, evt)
	}
	for _, sink := range w.permanentSinks {
		w.deliver(ctx, sink, evt)
	}
}

func (w *EventFanout) deliver(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx := ctx
	if w.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, w.sinkTimeout)
		defer cancel()
	}
	err := sink.Consume(sinkCtx, evt)
	if err == nil || stdErrors.Is(err, errors.ErrSessionClosed) {
		return
	}
	if w.metrics != nil {
		w.metrics.EventsDropped.Inc()
	}
	w.log.Debug("Event dropped",
		"event", evt.Name(),
		"conversation_id", evt.ConversationID(),
		"error", err)
}
