//go:generate go run go.uber.org/mock/mockgen -source=user_repository.go -destination=../../mocks/mock_user_repository.go -package=mocks
package storage

import (
	stdErrors "errors"

	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUserByID(id string) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUsers(ids []string) (map[string]domain.User, error)
	UpdateBlockedUsers(ownerID string, mutate func(blocked []string) ([]string, error)) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists the record along with its email and display name indexes.
// Email and display name (case-insensitive) are unique.
func (u UserRepository) CreateUser(user domain.User) error {
	data, err := encodeUser(user)
	if err != nil {
		return errors.Internal("encode user", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if exists, err := keyExists(txn, userEmailKey(user.Email)); err != nil || exists {
			return orElse(err, errors.ErrUserAlreadyExists)
		}
		if exists, err := keyExists(txn, userNameKey(user.DisplayName)); err != nil || exists {
			return orElse(err, errors.ErrDisplayNameTaken)
		}
		if err := txn.Set(userIDKey(user.ID), data); err != nil {
			return err
		}
		if err := txn.Set(userEmailKey(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userNameKey(user.DisplayName), []byte(user.ID))
	})
	return storageError("create user", err)
}

func (u UserRepository) GetUserByID(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, storageError("get user", err)
}

func (u UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if stdErrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(id))
		return err
	})
	return user, storageError("get user by email", err)
}

// GetUsers loads several users in one read transaction. Unknown ids are skipped.
func (u UserRepository) GetUsers(ids []string) (map[string]domain.User, error) {
	users := make(map[string]domain.User, len(ids))
	err := u.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			if _, ok := users[id]; ok {
				continue
			}
			user, err := getUser(txn, id)
			if stdErrors.Is(err, errors.ErrUserNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users[id] = user
		}
		return nil
	})
	return users, storageError("get users", err)
}

// UpdateBlockedUsers runs mutate on the owner's blocked set inside one transaction.
// An error returned by mutate aborts the write and is returned as is.
func (u UserRepository) UpdateBlockedUsers(ownerID string, mutate func(blocked []string) ([]string, error)) (domain.User, error) {
	var user domain.User
	err := u.db.Update(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, ownerID)
		if err != nil {
			return err
		}
		blocked, err := mutate(append([]string(nil), user.BlockedUsers...))
		if err != nil {
			return err
		}
		user.BlockedUsers = blocked
		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return txn.Set(userIDKey(ownerID), data)
	})
	return user, storageError("update blocked users", err)
}

func getUser(txn *badger.Txn, id string) (domain.User, error) {
	item, err := txn.Get(userIDKey(id))
	if stdErrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

func encodeUser(user domain.User) ([]byte, error) {
	return encode(map[string]any{
		"id":             user.ID,
		"email":          user.Email,
		"passwordHash":   user.PasswordHash,
		"displayName":    user.DisplayName,
		"bio":            user.Bio,
		"profilePicture": user.ProfilePicture,
		"blockedUsers":   anyList(user.BlockedUsers),
		"createdAt":      nanos(user.CreatedAt),
	})
}

func decodeUser(data []byte) (domain.User, error) {
	s, err := decode(data)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:             str(s, "id"),
		Email:          str(s, "email"),
		PasswordHash:   str(s, "passwordHash"),
		DisplayName:    str(s, "displayName"),
		Bio:            str(s, "bio"),
		ProfilePicture: str(s, "profilePicture"),
		BlockedUsers:   strList(s, "blockedUsers"),
		CreatedAt:      timestamp(s, "createdAt"),
	}, nil
}
