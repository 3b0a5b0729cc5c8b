// Package presenter turns domain values into the wire documents shared by the
// realtime frames and the REST responses. Documents only hold the types that
// both encoding/json and structpb accept: strings, bools, float64, nil,
// map[string]any and []any.
package presenter

import (
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/domain/event"
	"github.com/samber/lo"
)

type Document = map[string]any

func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func Profile(p domain.PublicProfile) Document {
	return Document{
		"id":             p.ID,
		"displayName":    p.DisplayName,
		"bio":            p.Bio,
		"profilePicture": p.ProfilePicture,
	}
}

func Profiles(profiles []domain.PublicProfile) []any {
	return lo.Map(profiles, func(p domain.PublicProfile, _ int) any { return Profile(p) })
}

// Reactions keeps the reactors order, an emoji without reactor is never present.
func Reactions(r domain.Reactions) Document {
	doc := make(Document, len(r))
	for emoji, users := range r {
		if len(users) > 0 {
			doc[emoji] = lo.ToAnySlice(users)
		}
	}
	return doc
}

func Message(view domain.MessageView) Document {
	doc := Document{
		"id":             view.ID,
		"conversationId": view.ConversationID,
		"senderId":       view.SenderID,
		"sender":         Profile(view.Sender),
		"content":        view.Content,
		"replyToId":      nullable(view.ReplyToID),
		"replyTo":        nil,
		"reactions":      Reactions(view.Reactions),
		"createdAt":      Timestamp(view.CreatedAt),
		"expiresAt":      Timestamp(view.ExpiresAt),
	}
	if view.ReplyTo != nil {
		doc["replyTo"] = Document{
			"id":                view.ReplyTo.ID,
			"senderId":          view.ReplyTo.SenderID,
			"senderDisplayName": view.ReplyTo.SenderDisplayName,
			"content":           view.ReplyTo.Content,
		}
	}
	return doc
}

func Messages(views []domain.MessageView) []any {
	return lo.Map(views, func(v domain.MessageView, _ int) any { return Message(v) })
}

func Conversation(view domain.ConversationView) Document {
	return Document{
		"id":                 view.ID,
		"otherUser":          Profile(view.OtherUser),
		"lastMessageAt":      Timestamp(view.LastMessageAt),
		"lastMessagePreview": view.LastMessagePreview,
		"isBlocked":          view.IsBlocked,
	}
}

func Conversations(views []domain.ConversationView) []any {
	return lo.Map(views, func(v domain.ConversationView, _ int) any { return Conversation(v) })
}

// Event is the payload pushed to a session for e.
func Event(e event.Event) any {
	switch evt := e.(type) {
	case event.NewMessage:
		return Message(evt.Message)
	case event.MessageDeleted:
		return Document{"messageId": evt.MessageID, "conversationId": evt.Conversation}
	case event.ReactionAdded:
		return reaction(evt.MessageID, evt.Conversation, evt.Emoji, evt.UserID, evt.Reactions)
	case event.ReactionRemoved:
		return reaction(evt.MessageID, evt.Conversation, evt.Emoji, evt.UserID, evt.Reactions)
	case event.ConversationDeleted:
		return Document{"conversationId": evt.Conversation, "deletedBy": evt.DeletedBy}
	case event.Authenticated:
		doc := Document{"success": evt.Success}
		if evt.Error != "" {
			doc["error"] = evt.Error
		}
		return doc
	case event.Failure:
		return Document{"message": evt.Message, "code": evt.Code}
	default:
		return nil
	}
}

func reaction(messageID, conversationID, emoji, userID string, reactions domain.Reactions) Document {
	return Document{
		"messageId":      messageID,
		"conversationId": conversationID,
		"emoji":          emoji,
		"userId":         userID,
		"reactions":      Reactions(reactions),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
