package rest

import (
	"net/http"
	"strings"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/presenter"
	"github.com/gorilla/mux"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otherUserRequest struct {
	OtherUserID string `json:"otherUserId"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

var success = map[string]bool{"success": true}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.authService.Register(req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"token": result.Token, "user": presenter.Profile(result.User)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"token": result.Token, "user": presenter.Profile(result.User)})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.authService.Me(currentUser(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, presenter.Profile(profile))
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	views, err := h.conversations.ListFor(currentUser(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, presenter.Conversations(views))
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var req otherUserRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.OtherUserID) == "" {
		h.writeError(w, errors.ErrMissingField)
		return
	}
	view, err := h.conversations.GetOrCreate(currentUser(r), req.OtherUserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, presenter.Conversation(view))
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	views, err := h.messages.ListFor(mux.Vars(r)["id"], currentUser(r), h.now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, presenter.Messages(views))
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	_, err := h.orchestrator.Dispatch(r.Context(), domain.DeleteConversationCommand{
		Conversation: mux.Vars(r)["id"],
		RequesterID:  currentUser(r),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, success)
}

// deleteMessage The conversation is looked up first so that the command
// lands on the shard owning it.
func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]
	conversationID, err := h.messages.ConversationOf(messageID, h.now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	_, err = h.orchestrator.Dispatch(r.Context(), domain.DeleteMessageCommand{
		Conversation: conversationID,
		MessageID:    messageID,
		RequesterID:  currentUser(r),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, success)
}

func (h *Handler) listBlocked(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.blocks.ListBlocked(currentUser(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, presenter.Profiles(profiles))
}

// isBlocked is one-directional: it only tells whether the caller blocks userId.
func (h *Handler) isBlocked(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.blocks.HasBlocked(currentUser(r), mux.Vars(r)["userId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"isBlocked": blocked})
}

func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	h.changeBlock(w, r, h.blocks.Block)
}

func (h *Handler) unblock(w http.ResponseWriter, r *http.Request) {
	h.changeBlock(w, r, h.blocks.Unblock)
}

func (h *Handler) changeBlock(w http.ResponseWriter, r *http.Request, apply func(ownerID, targetID string) error) {
	var req userRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		h.writeError(w, errors.ErrMissingField)
		return
	}
	if err := apply(currentUser(r), req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, success)
}
