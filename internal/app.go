package internal

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"ephemeral-chat/auth"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/grpc/server"
	"ephemeral-chat/infrastructure/rest"
	"ephemeral-chat/infrastructure/storage"
	"ephemeral-chat/moderation"
	"ephemeral-chat/observability"
	"ephemeral-chat/proto/realtime"
	"ephemeral-chat/runtime"
	"ephemeral-chat/runtime/workers"
	"ephemeral-chat/services"
	"ephemeral-chat/sink"
	"github.com/dgraph-io/badger/v4"
	grpcLogs "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
)

// App holds the wired server. The caller owns db and the lifecycle:
// run Orchestrator.Start in its own goroutine, serve GRPCServer and
// HTTPHandler, then stop in reverse order.
type App struct {
	Orchestrator *runtime.Orchestrator
	Registry     *runtime.Registry
	Metrics      *observability.Metrics
	Tokens       *auth.TokenManager
	realtime     *server.RealtimeServer
	rest         *rest.Handler
	log          *slog.Logger
}

func NewApp(config Config, db *badger.DB, log *slog.Logger) (*App, error) {
	censor, err := loadCensor(config, log)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)

	userRepository := storage.NewUserRepository(db)
	conversationRepository := storage.NewConversationRepository(db, log)
	messageRepository := storage.NewMessageRepository(db, log, config.ReaperBatchSize)

	authService := services.NewAuthService(userRepository, tokens, log)
	blockService := services.NewBlockService(userRepository, log)
	conversationService := services.NewConversationService(conversationRepository, userRepository, log)
	messageService := services.NewMessageService(messageRepository, conversationRepository, userRepository, censor, config.MessageTTL, log)
	reactionService := services.NewReactionService(messageRepository, conversationRepository)
	handler := services.NewCommandHandler(messageService, reactionService, conversationService)

	registry := runtime.NewRegistry()
	metrics.WatchSessions(registry.SessionCount)
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(
		log, supervisor, registry, handler, conversationService, metrics,
		config.NumberOfWorkers, config.BufferSize, config.SinkTimeout,
	)
	orchestrator.Add(sink.NewMetricsSink(metrics))
	orchestrator.AddWorkers(
		workers.NewExpiryReaper(messageRepository, config.ReaperInterval, config.ReaperCron, metrics, log),
		workers.NewChannelCapacityWorker(log, orchestrator.Queues(), metrics, config.MetricInterval, config.LowCapacity),
	)

	return &App{
		Orchestrator: orchestrator,
		Registry:     registry,
		Metrics:      metrics,
		Tokens:       tokens,
		realtime: server.NewRealtimeServer(log, orchestrator, tokens, metrics, registry.SessionCount,
			config.ConnectionBuffer, config.EventRateLimit, config.EventRateBurst),
		rest: rest.NewHandler(log, authService, conversationService, messageService,
			blockService, orchestrator, tokens, metrics),
		log: log,
	}, nil
}

// GRPCServer returns a server exposing the realtime service, with its calls logged at debug level.
func (a *App) GRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(grpcLogs.UnaryLoggingInterceptor(a.log)),
		grpc.ChainStreamInterceptor(server.StreamLoggingInterceptor(a.log)),
	)
	s := grpc.NewServer(opts...)
	realtime.RegisterRealtimeServiceServer(s, a.realtime)
	return s
}

func (a *App) HTTPHandler() http.Handler {
	return a.rest.Router()
}

// loadCensor returns a nil Censor when no word is configured, messages are then stored as sent.
func loadCensor(config Config, log *slog.Logger) (services.Censor, error) {
	character, err := config.CharacterRune()
	if err != nil {
		return nil, err
	}
	var fsys fs.FS
	if config.CensoredWordsDir != "" {
		fsys = os.DirFS(config.CensoredWordsDir)
	}
	list, err := moderation.LoadWords(fsys, ".", config.Words())
	if stdErrors.Is(err, errors.ErrEmptyWords) {
		log.Info("No censored words configured, moderation disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(list.Words, character, log)
	if stdErrors.Is(err, errors.ErrEmptyWords) {
		log.Warn("Censored words have no letters, moderation disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(list.Words), "languages", list.Languages)
	return moderator, nil
}
