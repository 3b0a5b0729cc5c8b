//go:generate go run go.uber.org/mock/mockgen -source=message_repository.go -destination=../../mocks/mock_message_repository.go -package=mocks
package storage

import (
	stdErrors "errors"
	"log/slog"
	"strconv"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/types/known/structpb"
)

const expiryDigits = 19

type IMessageRepository interface {
	Store(message domain.Message) error
	GetByID(id string) (domain.Message, error)
	ListByConversation(conversationID string, now time.Time) ([]domain.Message, error)
	Delete(id string) (domain.Message, error)
	UpdateReactions(id string, mutate func(message *domain.Message) (bool, error)) (domain.Message, bool, error)
	DeleteExpired(now time.Time) (int, error)
}

type MessageRepository struct {
	db        *badger.DB
	log       *slog.Logger
	batchSize int
}

// NewMessageRepository batchSize bounds how many expired messages a single sweep transaction removes.
func NewMessageRepository(db *badger.DB, log *slog.Logger, batchSize int) *MessageRepository {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &MessageRepository{db: db, log: log, batchSize: batchSize}
}

// Store persists a message with its chronological, expiry and reply indexes in one transaction.
// The chronological key is "msg:conv:{conversation}:{timestamp_padded}:{id}": the
// 19-digit padding keeps lexicographical order chronological and the id breaks ties
// between messages created at the same nanosecond.
func (m MessageRepository) Store(message domain.Message) error {
	data, err := encodeMessage(message)
	if err != nil {
		return errors.Internal("encode message", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(msgIDKey(message.ID), data); err != nil {
			return err
		}
		if err := txn.Set(msgConvKey(message.ConversationID, message.CreatedAt, message.ID), nil); err != nil {
			return err
		}
		if err := txn.Set(msgExpKey(message.ExpiresAt, message.ID), nil); err != nil {
			return err
		}
		if message.ReplyToID != "" {
			return txn.Set(msgReplyKey(message.ReplyToID, message.ID), nil)
		}
		return nil
	})
	return storageError("store message", err)
}

// GetByID returns the stored record, even if expired and not yet swept.
// Visibility is the caller's decision.
func (m MessageRepository) GetByID(id string) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		message, err = getMessage(txn, id)
		return err
	})
	return message, storageError("get message", err)
}

// ListByConversation returns the visible messages of a conversation, oldest first.
func (m MessageRepository) ListByConversation(conversationID string, now time.Time) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		ids := scanIDs(txn, msgConvScan(conversationID), 0)
		for _, id := range ids {
			message, err := getMessage(txn, id)
			if stdErrors.Is(err, errors.ErrMessageNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if message.IsVisible(now) {
				messages = append(messages, message)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageError("list messages", err)
	}
	return messages, nil
}

// Delete removes the message and its indexes, then clears replyToId on every reply
// that pointed at it. Everything happens in one transaction.
func (m MessageRepository) Delete(id string) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		var err error
		message, err = getMessage(txn, id)
		if err != nil {
			return err
		}
		return removeMessage(txn, message, true)
	})
	return message, storageError("delete message", err)
}

// UpdateReactions is the read-modify-write of a message in a single transaction.
// mutate sees the stored message and reports whether it changed anything.
// Nothing is written when it didn't; an error aborts the transaction.
func (m MessageRepository) UpdateReactions(id string, mutate func(message *domain.Message) (bool, error)) (domain.Message, bool, error) {
	var message domain.Message
	var changed bool
	err := m.db.Update(func(txn *badger.Txn) error {
		var err error
		message, err = getMessage(txn, id)
		if err != nil {
			return err
		}
		message.Reactions = message.Reactions.Clone()
		changed, err = mutate(&message)
		if err != nil || !changed {
			return err
		}
		data, err := encodeMessage(message)
		if err != nil {
			return err
		}
		return txn.Set(msgIDKey(id), data)
	})
	if err != nil {
		return domain.Message{}, false, storageError("update reactions", err)
	}
	return message, changed, nil
}

// DeleteExpired removes every message whose expiresAt is not after now.
// It works in batches of batchSize messages, one transaction per batch,
// so that a large backlog never exceeds Badger's transaction limits.
func (m MessageRepository) DeleteExpired(now time.Time) (int, error) {
	total := 0
	conflicts := 0
	for {
		removed, more, err := m.deleteExpiredBatch(now)
		if stdErrors.Is(err, badger.ErrConflict) && conflicts < 3 {
			// A user deleted one of the candidates meanwhile, the next batch sees it.
			conflicts++
			continue
		}
		if err != nil {
			return total, storageError("delete expired messages", err)
		}
		total += removed
		if !more {
			return total, nil
		}
	}
}

func (m MessageRepository) deleteExpiredBatch(now time.Time) (int, bool, error) {
	removed := 0
	more := false
	err := m.db.Update(func(txn *badger.Txn) error {
		keys := expiredKeys(txn, now, m.batchSize+1)
		if len(keys) > m.batchSize {
			more = true
			keys = keys[:m.batchSize]
		}
		for _, key := range keys {
			message, err := getMessage(txn, lastSegment(key))
			if stdErrors.Is(err, errors.ErrMessageNotFound) {
				// Stale index entry
				if err := txn.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			if err := removeMessage(txn, message, true); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, more, err
}

// expiredKeys returns up to limit expiry index keys with expiresAt <= now, oldest first.
func expiredKeys(txn *badger.Txn, now time.Time, limit int) [][]byte {
	prefix := []byte(msgExpPrefix)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix) && len(keys) < limit; it.Next() {
		key := it.Item().KeyCopy(nil)
		raw := key[len(prefix) : len(prefix)+expiryDigits]
		expiresAt, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil || expiresAt > now.UnixNano() {
			break
		}
		keys = append(keys, key)
	}
	return keys
}

// scanIDs collects the ids carried by index keys under prefix. limit <= 0 means no limit.
// Keys are collected before any write so that no iterator is open during mutation.
func scanIDs(txn *badger.Txn, prefix []byte, limit int) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, lastSegment(it.Item().Key()))
	}
	return ids
}

// removeMessage deletes a message and its index keys inside txn.
// With clearReplies, messages replying to it lose their replyToId.
func removeMessage(txn *badger.Txn, message domain.Message, clearReplies bool) error {
	keys := [][]byte{
		msgIDKey(message.ID),
		msgConvKey(message.ConversationID, message.CreatedAt, message.ID),
		msgExpKey(message.ExpiresAt, message.ID),
	}
	if message.ReplyToID != "" {
		keys = append(keys, msgReplyKey(message.ReplyToID, message.ID))
	}
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}

	for _, replyID := range scanIDs(txn, msgReplyScan(message.ID), 0) {
		if err := txn.Delete(msgReplyKey(message.ID, replyID)); err != nil {
			return err
		}
		if !clearReplies {
			continue
		}
		reply, err := getMessage(txn, replyID)
		if stdErrors.Is(err, errors.ErrMessageNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		reply.ReplyToID = ""
		data, err := encodeMessage(reply)
		if err != nil {
			return err
		}
		if err := txn.Set(msgIDKey(replyID), data); err != nil {
			return err
		}
	}
	return nil
}

func getMessage(txn *badger.Txn, id string) (domain.Message, error) {
	item, err := txn.Get(msgIDKey(id))
	if stdErrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	var message domain.Message
	err = item.Value(func(val []byte) error {
		message, err = decodeMessage(val)
		return err
	})
	return message, err
}

func encodeMessage(message domain.Message) ([]byte, error) {
	reactions := make(map[string]any, len(message.Reactions))
	for emoji, reactors := range message.Reactions {
		reactions[emoji] = anyList(reactors)
	}
	return encode(map[string]any{
		"id":             message.ID,
		"conversationId": message.ConversationID,
		"senderId":       message.SenderID,
		"content":        message.Content,
		"replyToId":      message.ReplyToID,
		"reactions":      reactions,
		"createdAt":      nanos(message.CreatedAt),
		"expiresAt":      nanos(message.ExpiresAt),
	})
}

func decodeMessage(data []byte) (domain.Message, error) {
	s, err := decode(data)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:             str(s, "id"),
		ConversationID: str(s, "conversationId"),
		SenderID:       str(s, "senderId"),
		Content:        str(s, "content"),
		ReplyToID:      str(s, "replyToId"),
		Reactions:      decodeReactions(s.GetFields()["reactions"].GetStructValue()),
		CreatedAt:      timestamp(s, "createdAt"),
		ExpiresAt:      timestamp(s, "expiresAt"),
	}, nil
}

func decodeReactions(s *structpb.Struct) domain.Reactions {
	reactions := domain.Reactions{}
	for emoji, v := range s.GetFields() {
		reactors := toStrings(v.GetListValue())
		if len(reactors) > 0 {
			reactions[emoji] = reactors
		}
	}
	return reactions
}
