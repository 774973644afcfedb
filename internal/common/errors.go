// Package common defines shared constants and errors used across the
// repository, service and transport layers. Callers should use errors.Is
// (or KindOf) to match these values.
package common

import (
	"errors"
	"net/http"
)

var (
	// Repository-level signals. Services translate them into a typed *Error.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
)

// Kind is the stable, machine-readable category of a domain error.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindTokenExpired       Kind = "token_expired"
	KindTokenInvalid       Kind = "token_invalid"
	KindSessionRevoked     Kind = "session_revoked"
	KindAccountBlocked     Kind = "account_blocked"
	KindUserNotFound       Kind = "user_not_found"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindNotFound           Kind = "not_found"
	KindCreateFailed       Kind = "create_failed"
	KindStoreFailure       Kind = "store_failure"
)

var kindStatus = map[Kind]int{
	KindInvalidInput:       http.StatusBadRequest,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindTokenExpired:       http.StatusUnauthorized,
	KindTokenInvalid:       http.StatusUnauthorized,
	KindSessionRevoked:     http.StatusUnauthorized,
	KindAccountBlocked:     http.StatusForbidden,
	KindUserNotFound:       http.StatusNotFound,
	KindDuplicateEmail:     http.StatusConflict,
	KindNotFound:           http.StatusNotFound,
	KindCreateFailed:       http.StatusInternalServerError,
	KindStoreFailure:       http.StatusInternalServerError,
}

// Status returns the HTTP status equivalent of the kind. Unknown kinds are
// reported as internal errors.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is the single error type returned by the service layer.
//
// Message is safe to show to clients. Err keeps the underlying cause for
// logging and is never part of Error().
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so sentinels such
// as ErrInvalidCredentials match any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds an *Error without an underlying cause.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError builds an *Error keeping err as the cause.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Sentinels for errors.Is checks. They are matched by kind, the message of
// the returned error may differ.
var (
	ErrInvalidInput       = NewError(KindInvalidInput, "invalid input")
	ErrInvalidCredentials = NewError(KindInvalidCredentials, "invalid email or password")
	ErrTokenExpired       = NewError(KindTokenExpired, "token expired")
	ErrTokenInvalid       = NewError(KindTokenInvalid, "invalid token")
	ErrSessionRevoked     = NewError(KindSessionRevoked, "session revoked")
	ErrAccountBlocked     = NewError(KindAccountBlocked, "account is blocked")
	ErrUserNotFound       = NewError(KindUserNotFound, "user not found")
	ErrDuplicateEmail     = NewError(KindDuplicateEmail, "email already exists")
	ErrNotFound           = NewError(KindNotFound, "not found")
	ErrCreateFailed       = NewError(KindCreateFailed, "unable to create user")
	ErrStoreFailure       = NewError(KindStoreFailure, "internal error")
)
