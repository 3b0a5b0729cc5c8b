package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Login_Keeps_Token(t *testing.T) {
	req := require.New(t)
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"token": "tok",
				"user":  map[string]string{"id": "u1", "displayName": "Calm Owl 001"},
			})
		case "/api/chat/conversations":
			authorization = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "c1"}})
		}
	}))
	defer server.Close()
	c := New(server.URL + "/")

	// When the client logs in
	req.NoError(c.Login(context.Background(), "a@x.io", "pwd"))

	// Then the token is sent on the following calls
	req.Equal("u1", c.User.ID)
	conversations, err := c.Conversations(context.Background())
	req.NoError(err)
	req.Len(conversations, 1)
	req.Equal("Bearer tok", authorization)
}

func TestClient_Error_Body_Is_Decoded(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "cannot interact - user blocked", "code": "FORBIDDEN"})
	}))
	defer server.Close()

	_, err := New(server.URL).StartConversation(context.Background(), "u2")

	var apiErr *APIError
	req.ErrorAs(err, &apiErr)
	req.Equal(http.StatusForbidden, apiErr.Status)
	req.Equal("FORBIDDEN", apiErr.Code)
	req.Equal("cannot interact - user blocked", apiErr.Message)
}
