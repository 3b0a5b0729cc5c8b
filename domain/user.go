// Package domain contains core concepts of the chat system.
// This file defines User entities and the blocking invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/samber/lo"
)

const (
	MinDisplayNameLength = 3
	MaxDisplayNameLength = 50
)

type User struct {
	ID             string
	Email          string
	PasswordHash   string
	DisplayName    string
	Bio            string
	ProfilePicture string
	BlockedUsers   []string
	CreatedAt      time.Time
}

// PublicProfile is what other participants are allowed to see.
type PublicProfile struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

func (u User) Profile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
	}
}

// HasBlocked is the one-directional check: did u block userID.
func (u User) HasBlocked(userID string) bool {
	return lo.Contains(u.BlockedUsers, userID)
}

// IsBlockedPair is symmetric: a block declared by either side gates both.
func IsBlockedPair(a, b User) bool {
	return a.HasBlocked(b.ID) || b.HasBlocked(a.ID)
}
