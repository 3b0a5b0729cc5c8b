// Package client talks to an ephemeral-chat server: REST for accounts and
// history, the realtime stream for everything live.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ephemeral-chat/proto/realtime"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// APIError is the body of a non 2xx REST response.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Conversation struct {
	ID                 string  `json:"id"`
	OtherUser          Profile `json:"otherUser"`
	LastMessagePreview string  `json:"lastMessagePreview"`
	IsBlocked          bool    `json:"isBlocked"`
}

type Message struct {
	ID        string              `json:"id"`
	SenderID  string              `json:"senderId"`
	Sender    Profile             `json:"sender"`
	Content   string              `json:"content"`
	Reactions map[string][]string `json:"reactions"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

type Client struct {
	baseURL string
	http    *http.Client
	Token   string
	User    Profile
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) error {
	var out struct {
		Token string  `json:"token"`
		User  Profile `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, path, map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return err
	}
	c.Token, c.User = out.Token, out.User
	return nil
}

func (c *Client) StartConversation(ctx context.Context, otherUserID string) (Conversation, error) {
	var out Conversation
	err := c.do(ctx, http.MethodPost, "/api/chat/conversations", map[string]string{"otherUserId": otherUserID}, &out)
	return out, err
}

func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	err := c.do(ctx, http.MethodGet, "/api/chat/conversations", nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, conversationID string) ([]Message, error) {
	var out []Message
	err := c.do(ctx, http.MethodGet, "/api/chat/conversations/"+conversationID+"/messages", nil, &out)
	return out, err
}

func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/conversations/"+conversationID, nil, nil)
}

func (c *Client) Block(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/api/users/block", map[string]string{"userId": userID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reader).Encode(body); err != nil {
			return err
		}
	}
	r, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &reader)
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		r.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.http.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Frame is one outbound event of the server.
type Frame struct {
	Event   string
	Payload any
}

// Doc returns the payload as an object, nil when it is something else.
func (f Frame) Doc() map[string]any {
	doc, _ := f.Payload.(map[string]any)
	return doc
}

// Session is one realtime stream. Send and Next may be used from two goroutines.
type Session struct {
	stream realtime.RealtimeService_ConnectClient
}

func Connect(ctx context.Context, conn grpc.ClientConnInterface) (*Session, error) {
	stream, err := realtime.NewRealtimeServiceClient(conn).Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{stream: stream}, nil
}

// Authenticate sends the token and waits for the answer.
func (s *Session) Authenticate(token string) error {
	if err := s.Send(realtime.Authenticate, token); err != nil {
		return err
	}
	frame, err := s.Next()
	if err != nil {
		return err
	}
	if frame.Event != "authenticated" || frame.Doc()["success"] != true {
		return fmt.Errorf("authentication refused: %v", frame.Doc()["error"])
	}
	return nil
}

func (s *Session) Join(conversationID string) error {
	return s.Send(realtime.JoinConversation, conversationID)
}

func (s *Session) SendMessage(conversationID, content, replyToID string) error {
	payload := map[string]any{"conversationId": conversationID, "content": content}
	if replyToID != "" {
		payload["replyToId"] = replyToID
	}
	return s.Send(realtime.SendMessage, payload)
}

func (s *Session) React(conversationID, messageID, emoji string, add bool) error {
	name := realtime.RemoveReaction
	if add {
		name = realtime.AddReaction
	}
	return s.Send(name, map[string]any{"conversationId": conversationID, "messageId": messageID, "emoji": emoji})
}

func (s *Session) DeleteMessage(conversationID, messageID string) error {
	return s.Send(realtime.DeleteMessage, map[string]any{"conversationId": conversationID, "messageId": messageID})
}

func (s *Session) Send(name string, payload any) error {
	frame, err := realtime.NewFrame(name, payload)
	if err != nil {
		return err
	}
	return s.stream.Send(frame)
}

func (s *Session) Next() (Frame, error) {
	frame, err := s.stream.Recv()
	if err != nil {
		return Frame{}, err
	}
	name, payload := realtime.ParseFrame(frame)
	return Frame{Event: name, Payload: asInterface(payload)}, nil
}

func (s *Session) Close() error {
	return s.stream.CloseSend()
}

func asInterface(v *structpb.Value) any {
	if v == nil {
		return nil
	}
	return v.AsInterface()
}
