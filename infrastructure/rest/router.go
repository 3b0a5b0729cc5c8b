// Package rest exposes the account, history and management endpoints.
// Mutations that other participants must see are dispatched through the
// orchestrator, exactly like their realtime counterparts.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ephemeral-chat/auth"
	"ephemeral-chat/contract"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/presenter"
	"ephemeral-chat/observability"
	"ephemeral-chat/services"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	authService   services.IAuthService
	conversations services.IConversationService
	messages      services.IMessageService
	blocks        services.IBlockService
	orchestrator  contract.IOrchestrator
	verifier      contract.TokenVerifier
	metrics       *observability.Metrics
	log           *slog.Logger
	now           func() time.Time
}

func NewHandler(
	log *slog.Logger,
	authService services.IAuthService,
	conversations services.IConversationService,
	messages services.IMessageService,
	blocks services.IBlockService,
	orchestrator contract.IOrchestrator,
	verifier contract.TokenVerifier,
	metrics *observability.Metrics) *Handler {
	return &Handler{
		authService:   authService,
		conversations: conversations,
		messages:      messages,
		blocks:        blocks,
		orchestrator:  orchestrator,
		verifier:      verifier,
		metrics:       metrics,
		log:           log,
		now:           time.Now,
	}
}

// Router Everything but the auth and health endpoints requires a Bearer token.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	requireAuth := auth.Middleware(h.verifier, h.writeError)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.login).Methods(http.MethodPost)
	r.Handle("/api/auth/me", requireAuth(http.HandlerFunc(h.me))).Methods(http.MethodGet)

	chat := r.PathPrefix("/api/chat").Subrouter()
	chat.Use(requireAuth)
	chat.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	chat.HandleFunc("/conversations", h.createConversation).Methods(http.MethodPost)
	chat.HandleFunc("/conversations/{id}/messages", h.listMessages).Methods(http.MethodGet)
	chat.HandleFunc("/conversations/{id}", h.deleteConversation).Methods(http.MethodDelete)
	chat.HandleFunc("/messages/{id}", h.deleteMessage).Methods(http.MethodDelete)

	users := r.PathPrefix("/api/users").Subrouter()
	users.Use(requireAuth)
	users.HandleFunc("/blocked", h.listBlocked).Methods(http.MethodGet)
	users.HandleFunc("/blocked/{userId}", h.isBlocked).Methods(http.MethodGet)
	users.HandleFunc("/block", h.block).Methods(http.MethodPost)
	users.HandleFunc("/unblock", h.unblock).Methods(http.MethodPost)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": presenter.Timestamp(h.now()),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			body["rssBytes"] = mem.RSS
		}
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Debug("Cannot write response", "error", err)
	}
}

// writeError Internal causes are logged here and never sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.KindOf(err) == errors.ErrInternal {
		h.log.Error("Request failed", "error", err)
	}
	h.writeJSON(w, errors.HTTPStatus(err), map[string]string{
		"error": errors.PublicMessage(err),
		"code":  errors.Code(err),
	})
}

func decode(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ErrMissingField
	}
	return nil
}

func currentUser(r *http.Request) string {
	userID, _ := auth.UserIDFromContext(r.Context())
	return userID
}
