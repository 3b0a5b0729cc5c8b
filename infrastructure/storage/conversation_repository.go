//go:generate go run go.uber.org/mock/mockgen -source=conversation_repository.go -destination=../../mocks/mock_conversation_repository.go -package=mocks
package storage

import (
	stdErrors "errors"
	"log/slog"
	"time"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	GetByID(id string) (domain.Conversation, error)
	GetByPair(userA, userB string) (domain.Conversation, bool, error)
	CreateIfAbsent(conversation domain.Conversation) (domain.Conversation, bool, error)
	ListByUser(userID string) ([]domain.Conversation, error)
	ListAll() ([]domain.Conversation, error)
	UpdateLastMessage(id string, at time.Time, preview string) error
	Delete(id string) (int, error)
}

// DeleteBatchSize bounds the messages removed per transaction when a conversation
// is deleted, keeping a long history under Badger's transaction size limit.
const DeleteBatchSize = 1000

type ConversationRepository struct {
	db          *badger.DB
	log         *slog.Logger
	deleteBatch int
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log, deleteBatch: DeleteBatchSize}
}

func (c ConversationRepository) GetByID(id string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = getConversation(txn, id)
		return err
	})
	return conversation, storageError("get conversation", err)
}

func (c ConversationRepository) GetByPair(userA, userB string) (domain.Conversation, bool, error) {
	var conversation domain.Conversation
	var found bool
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, found, err = getByPair(txn, userA, userB)
		return err
	})
	return conversation, found, storageError("get conversation by pair", err)
}

// CreateIfAbsent stores conversation unless one already exists for the unordered pair,
// in which case the existing record is returned with created=false.
// Two concurrent creations both read the pair key, so Badger rejects the second commit
// with ErrConflict: the loser then returns the winner's record.
func (c ConversationRepository) CreateIfAbsent(conversation domain.Conversation) (domain.Conversation, bool, error) {
	data, err := encodeConversation(conversation)
	if err != nil {
		return domain.Conversation{}, false, errors.Internal("encode conversation", err)
	}

	result := conversation
	created := false
	err = c.db.Update(func(txn *badger.Txn) error {
		existing, found, err := getByPair(txn, conversation.ParticipantA, conversation.ParticipantB)
		if err != nil {
			return err
		}
		if found {
			result = existing
			return nil
		}
		if err := txn.Set(convIDKey(conversation.ID), data); err != nil {
			return err
		}
		if err := txn.Set(convPairKey(conversation.ParticipantA, conversation.ParticipantB), []byte(conversation.ID)); err != nil {
			return err
		}
		for _, userID := range conversation.Participants() {
			if err := txn.Set(convUserKey(userID, conversation.ID), nil); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if stdErrors.Is(err, badger.ErrConflict) {
		c.log.Debug("Concurrent conversation creation, reading the winner",
			"user_a", conversation.ParticipantA, "user_b", conversation.ParticipantB)
		existing, found, err := c.GetByPair(conversation.ParticipantA, conversation.ParticipantB)
		if err != nil {
			return domain.Conversation{}, false, err
		}
		if !found {
			return domain.Conversation{}, false, errors.ErrConcurrentUpdate
		}
		return existing, false, nil
	}
	if err != nil {
		return domain.Conversation{}, false, storageError("create conversation", err)
	}
	return result, created, nil
}

// ListByUser returns the conversations a user takes part in, in no particular order.
func (c ConversationRepository) ListByUser(userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		for _, id := range scanIDs(txn, convUserScan(userID), 0) {
			conversation, err := getConversation(txn, id)
			if stdErrors.Is(err, errors.ErrConversationNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("list conversations", err)
	}
	return conversations, nil
}

// ListAll scans every conversation record, for the inspect command.
func (c ConversationRepository) ListAll() ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		for _, id := range scanIDs(txn, []byte(convIDPrefix), 0) {
			conversation, err := getConversation(txn, id)
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("list all conversations", err)
	}
	return conversations, nil
}

// UpdateLastMessage never moves lastMessageAt backwards: an older message
// leaves the current preview in place.
func (c ConversationRepository) UpdateLastMessage(id string, at time.Time, preview string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		conversation, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		if at.Before(conversation.LastMessageAt) {
			return nil
		}
		conversation.LastMessageAt = at
		conversation.LastMessagePreview = preview
		data, err := encodeConversation(conversation)
		if err != nil {
			return err
		}
		return txn.Set(convIDKey(id), data)
	})
	return storageError("update last message", err)
}

// Delete removes the conversation, its pair and listing keys and every message
// (with their indexes). It returns the number of messages removed.
// A conversation with at most deleteBatch messages goes in one transaction.
// Longer ones lose their oldest messages batch by batch, and the last transaction
// drops the remaining messages together with the conversation record, so a
// failure midway leaves a smaller conversation that can be deleted again.
func (c ConversationRepository) Delete(id string) (int, error) {
	removed := 0
	for {
		n, done, err := c.deleteBatchOf(id)
		removed += n
		if err != nil {
			return removed, storageError("delete conversation", err)
		}
		if done {
			return removed, nil
		}
		c.log.Debug("Conversation messages removed, continuing", "conversation_id", id, "removed", removed)
	}
}

func (c ConversationRepository) deleteBatchOf(id string) (int, bool, error) {
	removed, done := 0, false
	err := c.db.Update(func(txn *badger.Txn) error {
		removed = 0
		conversation, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		// One extra key tells whether this batch is the last one.
		keys := scanKeys(txn, msgConvScan(id), c.deleteBatch+1)
		done = len(keys) <= c.deleteBatch
		if !done {
			keys = keys[:c.deleteBatch]
		}
		for _, key := range keys {
			message, err := getMessage(txn, lastSegment(key))
			if stdErrors.Is(err, errors.ErrMessageNotFound) {
				// Dangling index entry.
				if err := txn.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			// Replies live in the same conversation and go away with it.
			if err := removeMessage(txn, message, false); err != nil {
				return err
			}
			removed++
		}
		if !done {
			return nil
		}
		for _, key := range [][]byte{
			convPairKey(conversation.ParticipantA, conversation.ParticipantB),
			convUserKey(conversation.ParticipantA, id),
			convUserKey(conversation.ParticipantB, id),
			convIDKey(id),
		} {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return removed, done, nil
}

func scanKeys(txn *badger.Txn, prefix []byte, limit int) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix) && len(keys) < limit; it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func getConversation(txn *badger.Txn, id string) (domain.Conversation, error) {
	item, err := txn.Get(convIDKey(id))
	if stdErrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	var conversation domain.Conversation
	err = item.Value(func(val []byte) error {
		conversation, err = decodeConversation(val)
		return err
	})
	return conversation, err
}

func getByPair(txn *badger.Txn, userA, userB string) (domain.Conversation, bool, error) {
	item, err := txn.Get(convPairKey(userA, userB))
	if stdErrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, false, nil
	}
	if err != nil {
		return domain.Conversation{}, false, err
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	conversation, err := getConversation(txn, string(id))
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return conversation, true, nil
}

func encodeConversation(conversation domain.Conversation) ([]byte, error) {
	return encode(map[string]any{
		"id":                 conversation.ID,
		"participantA":       conversation.ParticipantA,
		"participantB":       conversation.ParticipantB,
		"lastMessageAt":      nanos(conversation.LastMessageAt),
		"lastMessagePreview": conversation.LastMessagePreview,
		"createdAt":          nanos(conversation.CreatedAt),
	})
}

func decodeConversation(data []byte) (domain.Conversation, error) {
	s, err := decode(data)
	if err != nil {
		return domain.Conversation{}, err
	}
	return domain.Conversation{
		ID:                 str(s, "id"),
		ParticipantA:       str(s, "participantA"),
		ParticipantB:       str(s, "participantB"),
		LastMessageAt:      timestamp(s, "lastMessageAt"),
		LastMessagePreview: str(s, "lastMessagePreview"),
		CreatedAt:          timestamp(s, "createdAt"),
	}, nil
}
