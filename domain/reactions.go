package domain

import (
	"github.com/samber/lo"
)

// Reactions maps an emoji to the ordered, duplicate-free list of users who applied it.
// An emoji with no reactor is never kept as a key.
type Reactions map[string][]string

// Add returns false when userID already reacted with emoji.
func (r Reactions) Add(emoji, userID string) bool {
	if lo.Contains(r[emoji], userID) {
		return false
	}
	r[emoji] = append(r[emoji], userID)
	return true
}

// Remove returns false when there was nothing to remove.
func (r Reactions) Remove(emoji, userID string) bool {
	reactors, ok := r[emoji]
	if !ok || !lo.Contains(reactors, userID) {
		return false
	}
	left := lo.Without(reactors, userID)
	if len(left) == 0 {
		delete(r, emoji)
		return true
	}
	r[emoji] = left
	return true
}

func (r Reactions) Clone() Reactions {
	out := make(Reactions, len(r))
	for emoji, reactors := range r {
		out[emoji] = append([]string(nil), reactors...)
	}
	return out
}
