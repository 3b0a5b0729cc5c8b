package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"ephemeral-chat/domain"
)

// Key layout of the single Badger keyspace.
// Index keys carry an empty value, the id is always the last segment.
const (
	userIDPrefix    = "user:id:"
	userEmailPrefix = "user:email:"
	userNamePrefix  = "user:name:"
	convIDPrefix    = "conv:id:"
	convPairPrefix  = "conv:pair:"
	convUserPrefix  = "conv:user:"
	msgIDPrefix     = "msg:id:"
	msgConvPrefix   = "msg:conv:"
	msgExpPrefix    = "msg:exp:"
	msgReplyPrefix  = "msg:reply:"
)

func userIDKey(id string) []byte { return []byte(userIDPrefix + id) }

func userEmailKey(email string) []byte { return []byte(userEmailPrefix + email) }

func userNameKey(displayName string) []byte {
	return []byte(userNamePrefix + strings.ToLower(displayName))
}

func convIDKey(id string) []byte { return []byte(convIDPrefix + id) }

func convPairKey(userA, userB string) []byte {
	low, high := domain.PairKey(userA, userB)
	return []byte(fmt.Sprintf("%s%s:%s", convPairPrefix, low, high))
}

func convUserScan(userID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", convUserPrefix, userID))
}

func convUserKey(userID, convID string) []byte {
	return append(convUserScan(userID), convID...)
}

func msgIDKey(id string) []byte { return []byte(msgIDPrefix + id) }

func msgConvScan(convID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", msgConvPrefix, convID))
}

// msgConvKey uses a 19-digit zero padded timestamp so that lexicographical order is chronological.
func msgConvKey(convID string, createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", msgConvPrefix, convID, createdAt.UnixNano(), id))
}

func msgExpKey(expiresAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", msgExpPrefix, expiresAt.UnixNano(), id))
}

func msgReplyScan(targetID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", msgReplyPrefix, targetID))
}

func msgReplyKey(targetID, id string) []byte {
	return append(msgReplyScan(targetID), id...)
}

// lastSegment returns the id carried at the end of an index key.
func lastSegment(key []byte) string {
	i := bytes.LastIndexByte(key, ':')
	return string(key[i+1:])
}
