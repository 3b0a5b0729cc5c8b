package storage

import (
	"fmt"
	"strings"
	"time"
)

const (
	KindUser         = "USER"
	KindConversation = "CONVERSATION"
	KindMessage      = "MESSAGE"
	KindIndex        = "INDEX"
	KindUnknown      = "UNKNOWN"
)

// Record is the operator view of one key/value pair.
// Password hashes are never part of it.
type Record struct {
	Kind      string
	ID        string
	Detail    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Describe decodes a raw entry for inspection tools.
// Index entries only carry their key, an undecodable record keeps its kind with the error as detail.
func Describe(key string, value []byte) Record {
	var kind string
	switch {
	case strings.HasPrefix(key, userIDPrefix):
		kind = KindUser
	case strings.HasPrefix(key, convIDPrefix):
		kind = KindConversation
	case strings.HasPrefix(key, msgIDPrefix):
		kind = KindMessage
	case strings.HasPrefix(key, "user:"), strings.HasPrefix(key, "conv:"), strings.HasPrefix(key, "msg:"):
		return Record{Kind: KindIndex, ID: lastSegment([]byte(key))}
	default:
		return Record{Kind: KindUnknown}
	}

	s, err := decode(value)
	if err != nil {
		return Record{Kind: kind, Detail: "Error: " + err.Error()}
	}
	record := Record{Kind: kind, ID: str(s, "id"), CreatedAt: timestamp(s, "createdAt")}
	switch kind {
	case KindUser:
		record.Detail = fmt.Sprintf("%s <%s> blocked=%d", str(s, "displayName"), str(s, "email"), len(strList(s, "blockedUsers")))
	case KindConversation:
		record.Detail = fmt.Sprintf("%s <-> %s %q", str(s, "participantA"), str(s, "participantB"), str(s, "lastMessagePreview"))
	case KindMessage:
		record.Detail = fmt.Sprintf("[%s] %s", str(s, "senderId"), str(s, "content"))
		record.ExpiresAt = timestamp(s, "expiresAt")
	}
	return record
}
