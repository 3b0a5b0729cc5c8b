package server

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"

	"ephemeral-chat/contract"
	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/presenter"
	"ephemeral-chat/observability"
	"ephemeral-chat/proto/realtime"
	"ephemeral-chat/sink"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var errAuthenticationFailed = stdErrors.New("authentication failed")

type RealtimeServer struct {
	orchestrator contract.IOrchestrator
	verifier     contract.TokenVerifier
	metrics      *observability.Metrics
	validate     *validator.Validate
	log          *slog.Logger
	bufferSize   int
	eventRate    rate.Limit
	eventBurst   int
	sessions     func() int
}

var _ realtime.RealtimeServiceServer = (*RealtimeServer)(nil)

func NewRealtimeServer(log *slog.Logger, orchestrator contract.IOrchestrator, verifier contract.TokenVerifier,
	metrics *observability.Metrics, sessions func() int, bufferSize int, eventRate float64, eventBurst int) *RealtimeServer {
	return &RealtimeServer{
		orchestrator: orchestrator,
		verifier:     verifier,
		metrics:      metrics,
		validate:     validator.New(),
		log:          log,
		bufferSize:   bufferSize,
		eventRate:    rate.Limit(eventRate),
		eventBurst:   eventBurst,
		sessions:     sessions,
	}
}

// Health answers without authentication, like the REST /health endpoint.
func (s *RealtimeServer) Health(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"status":   "ok",
		"sessions": s.sessions(),
	})
}

// Connect serves one realtime connection.
// A goroutine reads inbound frames while this one writes: it is the only
// caller of stream.Send. Failed operations are answered with an error event
// and the stream stays open, except a failed authenticate which ends it
// with Unauthenticated.
func (s *RealtimeServer) Connect(stream realtime.RealtimeService_ConnectServer) error {
	c := &connection{
		server:  s,
		stream:  stream,
		limiter: rate.NewLimiter(s.eventRate, s.eventBurst),
	}
	c.session = sink.NewSessionSink(s.bufferSize, nil)
	c.log = s.log.With("session_id", c.session.ID)
	s.metrics.ConnectedStreams.Inc()
	defer s.metrics.ConnectedStreams.Dec()
	defer s.orchestrator.Detach(c.session)
	defer c.session.Close()

	readDone := make(chan error, 1)
	go func() { readDone <- c.readLoop(stream.Context()) }()
	return c.writeLoop(stream.Context(), readDone)
}

type connection struct {
	server  *RealtimeServer
	stream  realtime.RealtimeService_ConnectServer
	session *sink.SessionSink
	limiter *rate.Limiter
	log     *slog.Logger
	userID  string // reader goroutine only
}

func (c *connection) writeLoop(ctx context.Context, readDone <-chan error) error {
	for {
		select {
		case e := <-c.session.Events():
			if err := c.send(e); err != nil {
				return err
			}
		case err := <-readDone:
			// Whatever the reader queued last (the failed authentication answer) goes out first
			c.flush()
			return err
		case <-c.session.Done():
			c.log.Info("Connection replaced by a newer one")
			return status.Error(codes.Aborted, "session replaced by a newer connection")
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *connection) flush() {
	for {
		select {
		case e := <-c.session.Events():
			if err := c.send(e); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *connection) send(e event.Event) error {
	frame, err := realtime.NewFrame(string(e.Name()), presenter.Event(e))
	if err != nil {
		c.log.Error("Cannot encode event", "event", e.Name(), "error", err)
		return nil
	}
	if err := c.stream.Send(frame); err != nil {
		c.log.Debug("Failed to push event to stream", "error", err)
		return err
	}
	return nil
}

func (c *connection) readLoop(ctx context.Context) error {
	for {
		frame, err := c.stream.Recv()
		if stdErrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !c.limiter.Allow() {
			c.server.metrics.RejectedInbound.WithLabelValues("rate_limited").Inc()
			c.fail(errors.ErrRateLimited)
			continue
		}

		name, payload := realtime.ParseFrame(frame)
		err = c.handle(ctx, name, payload)
		if stdErrors.Is(err, errAuthenticationFailed) {
			return errors.MapToGRPCError(errors.ErrInvalidToken)
		}
		if err != nil {
			c.fail(err)
		}
	}
}

func (c *connection) handle(ctx context.Context, name string, payload *structpb.Value) error {
	s := c.server
	if name == realtime.Authenticate {
		return c.authenticate(payload)
	}
	if c.userID == "" {
		return errors.ErrNotAuthenticated
	}

	switch name {
	case realtime.JoinConversation:
		conversationID, err := decodeConversationID(s.validate, payload)
		if err != nil {
			return err
		}
		return s.orchestrator.JoinConversation(ctx, c.session, c.userID, conversationID)

	case realtime.LeaveConversation:
		conversationID, err := decodeConversationID(s.validate, payload)
		if err != nil {
			return err
		}
		s.orchestrator.LeaveConversation(c.session, conversationID)
		return nil

	case realtime.SendMessage:
		var p sendMessagePayload
		if err := decodePayload(s.validate, payload, &p); err != nil {
			return err
		}
		return c.dispatch(ctx, domain.SendMessageCommand{
			Conversation: p.ConversationID,
			SenderID:     c.userID,
			Content:      p.Content,
			ReplyToID:    p.ReplyToID,
		})

	case realtime.DeleteMessage:
		var p deleteMessagePayload
		if err := decodePayload(s.validate, payload, &p); err != nil {
			return err
		}
		return c.dispatch(ctx, domain.DeleteMessageCommand{
			Conversation: p.ConversationID,
			MessageID:    p.MessageID,
			RequesterID:  c.userID,
		})

	case realtime.AddReaction, realtime.RemoveReaction:
		var p reactionPayload
		if err := decodePayload(s.validate, payload, &p); err != nil {
			return err
		}
		if name == realtime.AddReaction {
			return c.dispatch(ctx, domain.AddReactionCommand{
				Conversation: p.ConversationID, MessageID: p.MessageID, UserID: c.userID, Emoji: p.Emoji,
			})
		}
		return c.dispatch(ctx, domain.RemoveReactionCommand{
			Conversation: p.ConversationID, MessageID: p.MessageID, UserID: c.userID, Emoji: p.Emoji,
		})

	default:
		s.metrics.RejectedInbound.WithLabelValues("unknown_event").Inc()
		return errors.ErrUnknownEvent
	}
}

// dispatch The outcome reaches the sender through the broadcast, only failures are answered directly.
func (c *connection) dispatch(ctx context.Context, cmd domain.Command) error {
	_, err := c.server.orchestrator.Dispatch(ctx, cmd)
	return err
}

func (c *connection) authenticate(payload *structpb.Value) error {
	if c.userID != "" {
		return errors.ErrAlreadyAuthed
	}
	var userID string
	token, err := decodeToken(c.server.validate, payload)
	if err == nil {
		userID, err = c.server.verifier.Verify(token)
	}
	if err != nil {
		c.log.Debug("Realtime authentication failed", "error", err)
		_ = c.session.Consume(context.Background(), event.Authenticated{Success: false, Error: errors.PublicMessage(errors.ErrInvalidToken)})
		return errAuthenticationFailed
	}
	c.userID = userID
	c.server.orchestrator.Attach(c.userID, c.session)
	c.log.Info("Session authenticated", "user_id", c.userID)
	return c.session.Consume(context.Background(), event.Authenticated{Success: true})
}

// fail answers the sender with an error event. Internal causes are logged here
// and never sent.
func (c *connection) fail(err error) {
	if errors.KindOf(err) == errors.ErrInternal {
		c.log.Error("Realtime operation failed", "user_id", c.userID, "error", err)
	} else {
		c.log.Debug("Realtime operation rejected", "user_id", c.userID, "error", err)
	}
	_ = c.session.Consume(context.Background(), event.Failure{
		Message: errors.PublicMessage(err),
		Code:    errors.Code(err),
	})
}
