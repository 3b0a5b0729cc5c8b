package event

import (
	"ephemeral-chat/domain"
)

// Name is the wire name of an event, as seen by realtime clients.
type Name string

const (
	NewMessageName          Name = "newMessage"
	MessageDeletedName      Name = "messageDeleted"
	ReactionAddedName       Name = "reactionAdded"
	ReactionRemovedName     Name = "reactionRemoved"
	ConversationDeletedName Name = "conversationDeleted"
	AuthenticatedName       Name = "authenticated"
	FailureName             Name = "error"
)

// Event is anything pushed to a session.
type Event interface {
	Name() Name
}

// DomainEvent is an Event scoped to a conversation room.
type DomainEvent interface {
	Event
	ConversationID() string
}

type NewMessage struct {
	Message domain.MessageView
}

func (NewMessage) Name() Name { return NewMessageName }
func (e NewMessage) ConversationID() string { return e.Message.ConversationID }

type MessageDeleted struct {
	Conversation string
	MessageID    string
}

func (MessageDeleted) Name() Name { return MessageDeletedName }
func (e MessageDeleted) ConversationID() string { return e.Conversation }

// ReactionAdded carries the full reaction map after the change.
type ReactionAdded struct {
	Conversation string
	MessageID    string
	Emoji        string
	UserID       string
	Reactions    domain.Reactions
}

func (ReactionAdded) Name() Name { return ReactionAddedName }
func (e ReactionAdded) ConversationID() string { return e.Conversation }

type ReactionRemoved struct {
	Conversation string
	MessageID    string
	Emoji        string
	UserID       string
	Reactions    domain.Reactions
}

func (ReactionRemoved) Name() Name { return ReactionRemovedName }
func (e ReactionRemoved) ConversationID() string { return e.Conversation }

type ConversationDeleted struct {
	Conversation string
	DeletedBy    string
}

func (ConversationDeleted) Name() Name { return ConversationDeletedName }
func (e ConversationDeleted) ConversationID() string { return e.Conversation }

// Authenticated answers the authenticate event of a single connection.
type Authenticated struct {
	Success bool
	Error   string
}

func (Authenticated) Name() Name { return AuthenticatedName }

// Failure reports a rejected operation to the session that sent it.
type Failure struct {
	Message string
	Code    string
}

func (Failure) Name() Name { return FailureName }
