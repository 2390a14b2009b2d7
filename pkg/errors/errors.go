// Package errors defines the error taxonomy used across the print gateway.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types
const (
	// ErrInvalidArgument is returned when the caller supplied malformed input
	ErrInvalidArgument = "invalid_argument"

	// ErrUnauthenticated is returned when the request carries no valid identity
	ErrUnauthenticated = "unauthenticated"

	// ErrInsufficientScope is returned when the token lacks the delegated permission
	ErrInsufficientScope = "insufficient_scope"

	// ErrTokenExchange is returned when the on-behalf-of exchange fails
	ErrTokenExchange = "token_exchange"

	// ErrUpstream is returned when a call to the print API fails
	ErrUpstream = "upstream"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewUnauthenticatedError creates a new unauthenticated error
func NewUnauthenticatedError(message string, cause error) *Error {
	return NewError(ErrUnauthenticated, message, cause)
}

// NewInsufficientScopeError creates a new insufficient scope error
func NewInsufficientScopeError(message string, cause error) *Error {
	return NewError(ErrInsufficientScope, message, cause)
}

// NewTokenExchangeError creates a new token exchange error
func NewTokenExchangeError(message string, cause error) *Error {
	return NewError(ErrTokenExchange, message, cause)
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(message string, cause error) *Error {
	return NewError(ErrUpstream, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return typeOf(err) == ErrInvalidArgument
}

// IsUnauthenticated checks if the error is an unauthenticated error
func IsUnauthenticated(err error) bool {
	return typeOf(err) == ErrUnauthenticated
}

// IsInsufficientScope checks if the error is an insufficient scope error
func IsInsufficientScope(err error) bool {
	return typeOf(err) == ErrInsufficientScope
}

// IsTokenExchange checks if the error is a token exchange error
func IsTokenExchange(err error) bool {
	return typeOf(err) == ErrTokenExchange
}

// IsUpstream checks if the error is an upstream error
func IsUpstream(err error) bool {
	return typeOf(err) == ErrUpstream
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return typeOf(err) == ErrInternal
}

func typeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Code maps an error to the HTTP status code it should be surfaced as.
// Unrecognized errors map to 500.
func Code(err error) int {
	switch typeOf(err) {
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrInsufficientScope:
		return http.StatusForbidden
	case ErrTokenExchange, ErrUpstream, ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
