package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kinds. Every error surfaced to a client wraps exactly one of them.
var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotFound        = fmt.Errorf("not found")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrConflict        = fmt.Errorf("conflict")
	ErrInternal        = fmt.Errorf("internal error")
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
)

var (
	ErrWorkerPanic    = newError(ErrInternal, "worker panic")
	ErrEmptyWords     = fmt.Errorf("no words have been found")
	ErrDispatchAbort  = newError(ErrInternal, "request aborted before completion")
	ErrSessionClosed  = fmt.Errorf("session closed")
	ErrSinkFull       = fmt.Errorf("session buffer full")
	ErrAlreadyStarted = fmt.Errorf("already started")

	ErrEmptyContent       = newError(ErrInvalidArgument, "message content is required")
	ErrEmptyEmoji         = newError(ErrInvalidArgument, "emoji is required")
	ErrSelfConversation   = newError(ErrInvalidArgument, "cannot create conversation with yourself")
	ErrSelfBlock          = newError(ErrInvalidArgument, "cannot block yourself")
	ErrSelfUnblock        = newError(ErrInvalidArgument, "cannot unblock yourself")
	ErrMissingField       = newError(ErrInvalidArgument, "missing or malformed field")
	ErrNotAuthenticated   = newError(ErrInvalidArgument, "not authenticated")
	ErrAlreadyAuthed      = newError(ErrInvalidArgument, "session already authenticated")
	ErrUnknownEvent       = newError(ErrInvalidArgument, "unknown event")
	ErrRateLimited        = newError(ErrInvalidArgument, "rate limit exceeded")
	ErrInvalidPassword    = newError(ErrInvalidArgument, "password does not meet requirements")
	ErrInvalidDisplayName = newError(ErrInvalidArgument, "display name must be between 3 and 50 characters")

	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrConversationNotFound = newError(ErrNotFound, "conversation not found")
	ErrMessageNotFound      = newError(ErrNotFound, "message not found")
	ErrReplyTargetNotFound  = newError(ErrNotFound, "replied message is no longer available")

	ErrNotParticipant = newError(ErrForbidden, "not a participant of this conversation")
	ErrNotSender      = newError(ErrForbidden, "you can only delete your own messages")
	ErrUserBlocked    = newError(ErrForbidden, "cannot interact - user blocked")

	ErrUserAlreadyExists = newError(ErrConflict, "user already exists")
	ErrDisplayNameTaken  = newError(ErrConflict, "display name is already taken")
	ErrAlreadyBlocked    = newError(ErrConflict, "user is already blocked")
	ErrNotBlocked        = newError(ErrConflict, "user is not blocked")
	ErrConcurrentUpdate  = newError(ErrConflict, "concurrent update, please retry")

	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthenticated, "invalid token")
	ErrTokenGeneration    = newError(ErrInternal, "token generation failed")
)

// kindError is a client-facing error bound to one kind.
type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Internal wraps an unexpected failure (storage, codec...) so that it reports as ErrInternal
// while keeping the cause for logs.
func Internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

// KindOf returns the kind sentinel carried by err, ErrInternal when none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidArgument, ErrNotFound, ErrForbidden,
		ErrConflict, ErrUnauthenticated, ErrInternal,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// PublicMessage is the text safe to show to a client.
// Internal failures never leak their cause.
func PublicMessage(err error) string {
	var ke *kindError
	if errors.As(err, &ke) && !errors.Is(ke.kind, ErrInternal) {
		return ke.msg
	}
	if KindOf(err) == ErrInternal {
		return "internal error"
	}
	return err.Error()
}

// Code is the stable identifier sent alongside error messages.
func Code(err error) string {
	switch KindOf(err) {
	case ErrInvalidArgument:
		return "INVALID_ARGUMENT"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrForbidden:
		return "FORBIDDEN"
	case ErrConflict:
		return "CONFLICT"
	case ErrUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL"
	}
}

func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	var c codes.Code
	switch KindOf(err) {
	case ErrInvalidArgument:
		c = codes.InvalidArgument
	case ErrNotFound:
		c = codes.NotFound
	case ErrForbidden:
		c = codes.PermissionDenied
	case ErrConflict:
		c = codes.AlreadyExists
	case ErrUnauthenticated:
		c = codes.Unauthenticated
	default:
		c = codes.Internal
	}
	return status.Error(c, PublicMessage(err))
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
