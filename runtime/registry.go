package runtime

import (
	"sync"

	"ephemeral-chat/contract"
)

type Set[T comparable] map[T]struct{}

// Registry is the in-memory directory of live sessions.
// Rooms hold sessions rather than user ids: a session replaced by a newer
// connection of the same user stops receiving events at once.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink      // user -> live session
	owners   map[contract.EventSink]string      // session -> user
	rooms    map[string]Set[contract.EventSink] // conversation -> sessions
	joined   map[contract.EventSink]Set[string] // session -> conversations
}

var _ contract.IRegistry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		owners:   make(map[contract.EventSink]string),
		rooms:    make(map[string]Set[contract.EventSink]),
		joined:   make(map[contract.EventSink]Set[string]),
	}
}

// Attach makes sink the live session of userID, last writer wins.
// The session it replaces is evicted from every room and returned so that
// the transport can close it.
func (r *Registry) Attach(userID string, sink contract.EventSink) (contract.EventSink, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, replaced := r.sessions[userID]
	if replaced && previous == sink {
		replaced = false
	}
	if replaced {
		r.evict(previous)
		delete(r.owners, previous)
	}
	r.sessions[userID] = sink
	r.owners[sink] = userID
	return previous, replaced
}

// Detach always removes sink from its rooms, but only drops the user mapping
// when sink is still the live session. A stale disconnect never logs out
// the newer connection.
func (r *Registry) Detach(sink contract.EventSink) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evict(sink)
	userID, ok := r.owners[sink]
	if !ok {
		return "", false
	}
	delete(r.owners, sink)
	if current, exists := r.sessions[userID]; exists && current == sink {
		delete(r.sessions, userID)
		return userID, true
	}
	return userID, false
}

func (r *Registry) SessionFor(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

// Join adds an attached session to a conversation room.
// It returns false when sink was never attached or has been replaced.
func (r *Registry) Join(sink contract.EventSink, conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[sink]; !ok {
		return false
	}
	if _, ok := r.rooms[conversationID]; !ok {
		r.rooms[conversationID] = make(Set[contract.EventSink])
	}
	r.rooms[conversationID][sink] = struct{}{}
	if _, ok := r.joined[sink]; !ok {
		r.joined[sink] = make(Set[string])
	}
	r.joined[sink][conversationID] = struct{}{}
	return true
}

func (r *Registry) Leave(sink contract.EventSink, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(sink, conversationID)
}

// RemoveConversation empties a room and returns its former members.
func (r *Registry) RemoveConversation(conversationID string) []contract.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[conversationID]
	sinks := make([]contract.EventSink, 0, len(members))
	for sink := range members {
		sinks = append(sinks, sink)
	}
	for _, sink := range sinks {
		r.leave(sink, conversationID)
	}
	return sinks
}

// SinksFor returns a snapshot of the sessions joined to a conversation.
// Returns nil if the room doesn't exist.
func (r *Registry) SinksFor(conversationID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[conversationID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(members))
	for sink := range members {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// evict removes sink from every room it joined. Caller holds the write lock.
func (r *Registry) evict(sink contract.EventSink) {
	for conversationID := range r.joined[sink] {
		r.leave(sink, conversationID)
	}
	delete(r.joined, sink)
}

// leave never leaves an empty set behind, rooms come and go with conversations.
func (r *Registry) leave(sink contract.EventSink, conversationID string) {
	if members, ok := r.rooms[conversationID]; ok {
		delete(members, sink)
		if len(members) == 0 {
			delete(r.rooms, conversationID)
		}
	}
	if conversations, ok := r.joined[sink]; ok {
		delete(conversations, conversationID)
		if len(conversations) == 0 {
			delete(r.joined, sink)
		}
	}
}
