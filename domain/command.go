package domain

import (
	"time"
)

// Command is a state change addressed to one conversation.
// Commands for the same conversation are applied one after the other.
type Command interface {
	ConversationID() string
}

type SendMessageCommand struct {
	Conversation string
	SenderID     string
	Content      string
	ReplyToID    string
	CreatedAt    time.Time
}

func (c SendMessageCommand) ConversationID() string {
	return c.Conversation
}

type DeleteMessageCommand struct {
	Conversation string
	MessageID    string
	RequesterID  string
}

func (c DeleteMessageCommand) ConversationID() string {
	return c.Conversation
}

type AddReactionCommand struct {
	Conversation string
	MessageID    string
	UserID       string
	Emoji        string
}

func (c AddReactionCommand) ConversationID() string {
	return c.Conversation
}

type RemoveReactionCommand struct {
	Conversation string
	MessageID    string
	UserID       string
	Emoji        string
}

func (c RemoveReactionCommand) ConversationID() string {
	return c.Conversation
}

type DeleteConversationCommand struct {
	Conversation string
	RequesterID  string
}

func (c DeleteConversationCommand) ConversationID() string {
	return c.Conversation
}
