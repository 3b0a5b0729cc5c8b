package rest

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/mocks"
	"ephemeral-chat/observability"
	"ephemeral-chat/services"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const token = "valid-token"

type fixture struct {
	auth          *mocks.MockIAuthService
	conversations *mocks.MockIConversationService
	messages      *mocks.MockIMessageService
	blocks        *mocks.MockIBlockService
	orchestrator  *mocks.MockIOrchestrator
	verifier      *mocks.MockTokenVerifier
	router        http.Handler
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		auth:          mocks.NewMockIAuthService(ctrl),
		conversations: mocks.NewMockIConversationService(ctrl),
		messages:      mocks.NewMockIMessageService(ctrl),
		blocks:        mocks.NewMockIBlockService(ctrl),
		orchestrator:  mocks.NewMockIOrchestrator(ctrl),
		verifier:      mocks.NewMockTokenVerifier(ctrl),
	}
	h := NewHandler(logs.GetLoggerFromLevel(slog.LevelDebug), f.auth, f.conversations, f.messages,
		f.blocks, f.orchestrator, f.verifier, observability.NewMetrics())
	h.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	f.router = h.Router()
	return f
}

func (f fixture) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, path, &buf)
	if authenticated {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRouter_Register_Returns_Created(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID := uuid.NewString()

	// Given a successful registration
	f.auth.EXPECT().Register("a@x.io", "Passw0rd!").Return(services.AuthResult{
		Token: "tok",
		User:  domain.PublicProfile{ID: userID, DisplayName: "Swift Fox 042"},
	}, nil)

	// When the client registers
	w := f.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "a@x.io", "password": "Passw0rd!"}, false)

	// Then the token and the profile are returned
	req.Equal(http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	req.Equal("tok", body["token"])
	req.Equal(userID, body["user"].(map[string]any)["id"])
}

func TestRouter_Login_Maps_Error_Kind_To_Status(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.auth.EXPECT().Login("a@x.io", "wrong").Return(services.AuthResult{}, errors.ErrInvalidCredentials)

	w := f.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.io", "password": "wrong"}, false)

	req.Equal(http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	req.Equal("invalid credentials", body["error"])
	req.Equal("UNAUTHENTICATED", body["code"])
}

func TestRouter_Malformed_Body_Is_Bad_Request(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("INVALID_ARGUMENT", decodeBody(t, w)["code"])
}

func TestRouter_Protected_Route_Requires_Token(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	// Given a request without a usable token
	f.verifier.EXPECT().Verify("").Return("", errors.ErrInvalidToken)

	// When a protected route is called
	w := f.do(http.MethodGet, "/api/chat/conversations", nil, false)

	// Then it is rejected before reaching the service
	req.Equal(http.StatusUnauthorized, w.Code)
	req.Equal("invalid token", decodeBody(t, w)["error"])
}

func TestRouter_Me(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID := uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.auth.EXPECT().Me(userID).Return(domain.PublicProfile{ID: userID, DisplayName: "Calm Owl 007"}, nil)

	w := f.do(http.MethodGet, "/api/auth/me", nil, true)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("Calm Owl 007", decodeBody(t, w)["displayName"])
}

func TestRouter_Create_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID, otherID, conversationID := uuid.NewString(), uuid.NewString(), uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.conversations.EXPECT().GetOrCreate(userID, otherID).Return(domain.ConversationView{
		ID:        conversationID,
		OtherUser: domain.PublicProfile{ID: otherID},
	}, nil)

	w := f.do(http.MethodPost, "/api/chat/conversations", map[string]string{"otherUserId": otherID}, true)

	req.Equal(http.StatusOK, w.Code)
	body := decodeBody(t, w)
	req.Equal(conversationID, body["id"])
	req.Equal(otherID, body["otherUser"].(map[string]any)["id"])
}

func TestRouter_Create_Conversation_Without_Other_User(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.verifier.EXPECT().Verify(token).Return(uuid.NewString(), nil)

	w := f.do(http.MethodPost, "/api/chat/conversations", map[string]string{}, true)

	req.Equal(http.StatusBadRequest, w.Code)
}

func TestRouter_List_Messages_Of_Foreign_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID, conversationID := uuid.NewString(), uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.messages.EXPECT().ListFor(conversationID, userID, gomock.Any()).Return(nil, errors.ErrNotParticipant)

	w := f.do(http.MethodGet, "/api/chat/conversations/"+conversationID+"/messages", nil, true)

	req.Equal(http.StatusForbidden, w.Code)
}

func TestRouter_Delete_Message_Is_Dispatched_To_Its_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID, conversationID, messageID := uuid.NewString(), uuid.NewString(), uuid.NewString()

	// Given a message living in a conversation
	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.messages.EXPECT().ConversationOf(messageID, gomock.Any()).Return(conversationID, nil)

	// Then the deletion goes through the orchestrator
	f.orchestrator.EXPECT().Dispatch(gomock.Any(), domain.DeleteMessageCommand{
		Conversation: conversationID,
		MessageID:    messageID,
		RequesterID:  userID,
	}).Return(domain.Message{ID: messageID}, nil)

	w := f.do(http.MethodDelete, "/api/chat/messages/"+messageID, nil, true)

	req.Equal(http.StatusOK, w.Code)
	req.Equal(true, decodeBody(t, w)["success"])
}

func TestRouter_Delete_Unknown_Message(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	messageID := uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(uuid.NewString(), nil)
	f.messages.EXPECT().ConversationOf(messageID, gomock.Any()).Return("", errors.ErrMessageNotFound)

	w := f.do(http.MethodDelete, "/api/chat/messages/"+messageID, nil, true)

	req.Equal(http.StatusNotFound, w.Code)
	req.Equal("message not found", decodeBody(t, w)["error"])
}

func TestRouter_Delete_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID, conversationID := uuid.NewString(), uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.orchestrator.EXPECT().Dispatch(gomock.Any(), domain.DeleteConversationCommand{
		Conversation: conversationID,
		RequesterID:  userID,
	}).Return(nil, nil)

	w := f.do(http.MethodDelete, "/api/chat/conversations/"+conversationID, nil, true)

	req.Equal(http.StatusOK, w.Code)
}

func TestRouter_Internal_Error_Hides_Cause(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID := uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.conversations.EXPECT().ListFor(userID).Return(nil, errors.Internal("list conversations", http.ErrHandlerTimeout))

	w := f.do(http.MethodGet, "/api/chat/conversations", nil, true)

	req.Equal(http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	req.Equal("internal error", body["error"])
	req.Equal("INTERNAL", body["code"])
}

func TestRouter_Block_And_Check(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID, targetID := uuid.NewString(), uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil).Times(3)
	f.blocks.EXPECT().Block(userID, targetID).Return(nil)
	f.blocks.EXPECT().HasBlocked(userID, targetID).Return(true, nil)
	f.blocks.EXPECT().Block(userID, targetID).Return(errors.ErrAlreadyBlocked)

	// When blocking a user
	w := f.do(http.MethodPost, "/api/users/block", map[string]string{"userId": targetID}, true)
	req.Equal(http.StatusOK, w.Code)

	// Then the check reports it
	w = f.do(http.MethodGet, "/api/users/blocked/"+targetID, nil, true)
	req.Equal(http.StatusOK, w.Code)
	req.Equal(true, decodeBody(t, w)["isBlocked"])

	// And blocking twice is a conflict
	w = f.do(http.MethodPost, "/api/users/block", map[string]string{"userId": targetID}, true)
	req.Equal(http.StatusConflict, w.Code)
}

func TestRouter_List_Blocked(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID := uuid.NewString()

	f.verifier.EXPECT().Verify(token).Return(userID, nil)
	f.blocks.EXPECT().ListBlocked(userID).Return([]domain.PublicProfile{{ID: "u1"}, {ID: "u2"}}, nil)

	w := f.do(http.MethodGet, "/api/users/blocked", nil, true)

	req.Equal(http.StatusOK, w.Code)
	var body []map[string]any
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.Len(body, 2)
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", nil, false)

	req.Equal(http.StatusOK, w.Code)
	body := decodeBody(t, w)
	req.Equal("ok", body["status"])
	req.Equal("2026-01-01T12:00:00Z", body["timestamp"])
}

func TestRouter_Metrics(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	w := f.do(http.MethodGet, "/metrics", nil, false)

	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "ephemeral_chat_goroutines")
}
