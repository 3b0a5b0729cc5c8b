package storage

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"ephemeral-chat/errors"
	"github.com/dgraph-io/badger/v4"
)

// Open opens the Badger keyspace at path.
func Open(path string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{log: log}).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

// OpenReadOnly is used by operator tooling while the server may be stopped.
func OpenReadOnly(path string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(badgerLogger{log: log}).
		WithLoggingLevel(badger.ERROR)
	return badger.Open(opts)
}

// badgerLogger routes Badger's own logs into slog.
type badgerLogger struct {
	log *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Error("badger", "msg", sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.log.Warn("badger", "msg", sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.log.Info("badger", "msg", sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.log.Debug("badger", "msg", sprintf(format, args...))
}

func sprintf(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case stdErrors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// orElse returns err when set, fallback otherwise.
func orElse(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}

// storageError keeps domain errors untouched and turns anything raised by Badger
// into an internal error. A transaction conflict becomes ErrConcurrentUpdate.
func storageError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case stdErrors.Is(err, badger.ErrConflict):
		return errors.ErrConcurrentUpdate
	case errors.KindOf(err) != errors.ErrInternal:
		return err
	case stdErrors.Is(err, errors.ErrInternal):
		return err
	default:
		return errors.Internal(op, err)
	}
}
