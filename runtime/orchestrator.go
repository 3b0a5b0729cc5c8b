// Package runtime routes commands to their conversation shard and events to live sessions.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"ephemeral-chat/observability"
	"ephemeral-chat/runtime/workers"
	"github.com/cespare/xxhash/v2"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

// Orchestrator owns the conversation shards, the event pipeline and the
// session registry. Every mutating command of a conversation goes through
// the single worker owning its shard.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	handler        contract.CommandHandler
	membership     contract.MembershipChecker
	metrics        *observability.Metrics
	shards         []chan workers.Envelope
	events         chan event.DomainEvent
	permanentSinks []contract.EventSink
	background     []contract.Worker
	sinkTimeout    time.Duration
	started        bool
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	registry contract.IRegistry,
	handler contract.CommandHandler,
	membership contract.MembershipChecker,
	metrics *observability.Metrics,
	numWorkers, bufferSize int,
	sinkTimeout time.Duration) *Orchestrator {
	numWorkers = max(numWorkers, 1)
	shards := make([]chan workers.Envelope, numWorkers)
	for i := range shards {
		shards[i] = make(chan workers.Envelope, bufferSize)
	}
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		handler:     handler,
		membership:  membership,
		metrics:     metrics,
		shards:      shards,
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Add registers sinks receiving every published event, whatever the conversation.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// AddWorkers registers workers supervised alongside the pipeline (the expiry reaper).
func (o *Orchestrator) AddWorkers(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.background = append(o.background, w...)
}

// Queues lists the shard and event channels for capacity sampling.
func (o *Orchestrator) Queues() []workers.NamedChannel {
	queues := make([]workers.NamedChannel, 0, len(o.shards)+1)
	for i, shard := range o.shards {
		queues = append(queues, workers.NamedChannel{Name: fmt.Sprintf("shard-%d", i), Channel: shard})
	}
	return append(queues, workers.NamedChannel{Name: "events", Channel: o.events})
}

// Dispatch enqueues cmd on the shard owning its conversation and waits for the outcome.
// If ctx ends first the caller gets ErrDispatchAbort. The command may still run.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd domain.Command) (any, error) {
	envelope := workers.NewEnvelope(ctx, cmd)
	select {
	case o.shardFor(cmd.ConversationID()) <- envelope:
	case <-ctx.Done():
		return nil, errors.ErrDispatchAbort
	}
	select {
	case reply := <-envelope.Reply:
		return reply.Result, reply.Err
	case <-ctx.Done():
		return nil, errors.ErrDispatchAbort
	}
}

func (o *Orchestrator) shardFor(conversationID string) chan workers.Envelope {
	return o.shards[xxhash.Sum64String(conversationID)%uint64(len(o.shards))]
}

// Attach makes sink the live session of userID. A replaced session is closed,
// its connection notices and ends.
func (o *Orchestrator) Attach(userID string, sink contract.EventSink) {
	previous, replaced := o.registry.Attach(userID, sink)
	if !replaced {
		o.log.Debug("Session attached", "user_id", userID)
		return
	}
	o.log.Info("Session replaced by a newer connection", "user_id", userID)
	if closer, ok := previous.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			o.log.Warn("Cannot close replaced session", "user_id", userID, "error", err)
		}
	}
}

func (o *Orchestrator) Detach(sink contract.EventSink) {
	if userID, removed := o.registry.Detach(sink); removed {
		o.log.Debug("Session detached", "user_id", userID)
	}
}

// JoinConversation checks membership then adds sink to the conversation room.
// The order matters: a session that is not attached gets "not authenticated"
// even for a conversation it belongs to.
func (o *Orchestrator) JoinConversation(ctx context.Context, sink contract.EventSink, userID, conversationID string) error {
	if current, ok := o.registry.SessionFor(userID); !ok || current != sink {
		return errors.ErrNotAuthenticated
	}
	if err := o.membership.CheckMembership(ctx, conversationID, userID); err != nil {
		return err
	}
	if !o.registry.Join(sink, conversationID) {
		// Replaced between the check and the join
		return errors.ErrNotAuthenticated
	}
	o.log.Debug("Session joined conversation", "user_id", userID, "conversation_id", conversationID)
	return nil
}

func (o *Orchestrator) LeaveConversation(sink contract.EventSink, conversationID string) {
	o.registry.Leave(sink, conversationID)
}

// Start builds the shard workers, the fanout and the background workers,
// hands them to the supervisor and blocks until it stops.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.ErrAlreadyStarted
	}
	o.started = true

	for i, shard := range o.shards {
		o.supervisor.Add(workers.NewConversationWorker(i, shard, o.events, o.handler, o.metrics, o.log))
	}
	o.supervisor.Add(workers.NewEventFanout(o.log, o.events, o.registry, o.metrics, o.sinkTimeout, o.permanentSinks...))
	o.supervisor.Add(o.background...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "shards", len(o.shards))
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised context. Start returns once every worker exited.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
