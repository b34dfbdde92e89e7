package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The HTTP layer maps each kind to a status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a classified failure with a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func ValidationError(msg string) error { return newError(KindValidation, msg, nil) }
func AuthError(msg string) error       { return newError(KindAuth, msg, nil) }
func ForbiddenError(msg string) error  { return newError(KindForbidden, msg, nil) }
func NotFoundError(msg string) error   { return newError(KindNotFound, msg, nil) }
func ConflictError(msg string) error   { return newError(KindConflict, msg, nil) }
func RateLimitedError(msg string) error {
	return newError(KindRateLimited, msg, nil)
}

// InternalError wraps an unexpected failure. Its message is never shown to callers.
func InternalError(msg string, err error) error {
	return newError(KindInternal, msg, err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// Messages shared across services.
const (
	msgInvalidCode     = "invalid or expired verification code"
	msgUserNotFound    = "user not found"
	msgRoleNotFound    = "role not found"
	msgEmailTaken      = "email already exists"
	msgUsernameTaken   = "username already exists"
	msgTitleTaken      = "role title already exists"
	msgWrongPassword   = "incorrect password"
	msgUnverified      = "email is not verified"
	msgTooManyRequests = "too many requests, try again later"
)
