// Package common defines shared constants and sentinel errors used across
// server and client layers of gophauth. Callers should use errors.Is to
// match these values, or KindOf to classify an arbitrary error.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Service-level errors.
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("forbidden")
	ErrorInternal   = errors.New("internal error")

	// Token errors. Both classify as ErrUnauthorized.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error is a classified failure with a message that is safe to show to the
// party that made the request. Cause holds the underlying error, if any, and
// is only meant for logs.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

// NewError returns a classified error with a caller-safe message.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError is NewError with an attached cause.
func WrapError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// kinds lists the caller-visible taxonomy in match order.
var kinds = []error{ErrValidation, ErrConflict, ErrUnauthorized, ErrForbidden, ErrNotFound}

// KindOf classifies err into one of the taxonomy sentinels. Token errors are
// reported as ErrUnauthorized; anything unclassified is ErrorInternal.
// A nil error has no kind.
func KindOf(err error) error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		for _, k := range kinds {
			if errors.Is(ce.Kind, k) {
				return k
			}
		}
		if errors.Is(ce.Kind, ErrInvalidToken) || errors.Is(ce.Kind, ErrTokenExpired) {
			return ErrUnauthorized
		}
		return ErrorInternal
	}

	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) {
		return ErrUnauthorized
	}
	return ErrorInternal
}

// PublicMessage returns the text that may be shown to the caller. Internal
// failures always yield the generic "internal error".
func PublicMessage(err error) string {
	kind := KindOf(err)
	if kind == nil {
		return ""
	}
	if kind == ErrorInternal {
		return ErrorInternal.Error()
	}

	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return kind.Error()
}
