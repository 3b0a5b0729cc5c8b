//go:generate go run go.uber.org/mock/mockgen -source=block_service.go -destination=../mocks/mock_block_service.go -package=mocks
package services

import (
	"log/slog"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/storage"
	"github.com/samber/lo"
)

type IBlockService interface {
	Block(ownerID, targetID string) error
	Unblock(ownerID, targetID string) error
	ListBlocked(ownerID string) ([]domain.PublicProfile, error)
	HasBlocked(ownerID, targetID string) (bool, error)
	IsBlockedPair(userA, userB string) (bool, error)
}

// BlockService owns the blocked set of each user.
// Only the owner mutates it, the check gating conversations is symmetric.
type BlockService struct {
	userRepository storage.IUserRepository
	log            *slog.Logger
}

func NewBlockService(repo storage.IUserRepository, log *slog.Logger) *BlockService {
	return &BlockService{userRepository: repo, log: log}
}

func (s *BlockService) Block(ownerID, targetID string) error {
	if ownerID == targetID {
		return errors.ErrSelfBlock
	}
	if _, err := s.userRepository.GetUserByID(targetID); err != nil {
		return err
	}
	_, err := s.userRepository.UpdateBlockedUsers(ownerID, func(blocked []string) ([]string, error) {
		if lo.Contains(blocked, targetID) {
			return nil, errors.ErrAlreadyBlocked
		}
		return append(blocked, targetID), nil
	})
	if err != nil {
		return err
	}
	s.log.Info("User blocked", "user_id", ownerID, "target_id", targetID)
	return nil
}

func (s *BlockService) Unblock(ownerID, targetID string) error {
	if ownerID == targetID {
		return errors.ErrSelfUnblock
	}
	_, err := s.userRepository.UpdateBlockedUsers(ownerID, func(blocked []string) ([]string, error) {
		if !lo.Contains(blocked, targetID) {
			return nil, errors.ErrNotBlocked
		}
		return lo.Without(blocked, targetID), nil
	})
	if err != nil {
		return err
	}
	s.log.Info("User unblocked", "user_id", ownerID, "target_id", targetID)
	return nil
}

// ListBlocked returns the public profiles of the users blocked by owner, in blocking order.
func (s *BlockService) ListBlocked(ownerID string) ([]domain.PublicProfile, error) {
	owner, err := s.userRepository.GetUserByID(ownerID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepository.GetUsers(owner.BlockedUsers)
	if err != nil {
		return nil, err
	}
	profiles := lo.FilterMap(owner.BlockedUsers, func(id string, _ int) (domain.PublicProfile, bool) {
		user, ok := users[id]
		return user.Profile(), ok
	})
	return profiles, nil
}

// HasBlocked is the one-directional check: did owner block target.
func (s *BlockService) HasBlocked(ownerID, targetID string) (bool, error) {
	owner, err := s.userRepository.GetUserByID(ownerID)
	if err != nil {
		return false, err
	}
	return owner.HasBlocked(targetID), nil
}

// IsBlockedPair is true when either user blocked the other.
func (s *BlockService) IsBlockedPair(userA, userB string) (bool, error) {
	users, err := s.userRepository.GetUsers([]string{userA, userB})
	if err != nil {
		return false, err
	}
	a, okA := users[userA]
	b, okB := users[userB]
	if !okA || !okB {
		return false, errors.ErrUserNotFound
	}
	return domain.IsBlockedPair(a, b), nil
}
