package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrInvalidArgument,
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			want: "invalid_argument: test message: underlying error",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrUpstream,
				Message: "test message",
				Cause:   nil,
			},
			want: "upstream: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{
		Type:    ErrTokenExchange,
		Message: "test message",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Error.Unwrap() = %v, want %v", got, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", NewInvalidArgumentError("bad", nil), http.StatusBadRequest},
		{"unauthenticated", NewUnauthenticatedError("no token", nil), http.StatusUnauthorized},
		{"insufficient scope", NewInsufficientScopeError("missing scope", nil), http.StatusForbidden},
		{"token exchange", NewTokenExchangeError("exchange failed", nil), http.StatusInternalServerError},
		{"upstream", NewUpstreamError("print API failed", nil), http.StatusInternalServerError},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped typed error", fmt.Errorf("wrapped: %w", NewInvalidArgumentError("bad", nil)), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTypePredicates(t *testing.T) {
	if !IsInsufficientScope(NewInsufficientScopeError("missing", nil)) {
		t.Error("IsInsufficientScope should match")
	}
	if IsUpstream(NewInternalError("boom", nil)) {
		t.Error("IsUpstream should not match internal error")
	}
	if !IsUnauthenticated(fmt.Errorf("wrap: %w", NewUnauthenticatedError("no", nil))) {
		t.Error("IsUnauthenticated should match a wrapped error")
	}
	if !IsTokenExchange(NewTokenExchangeError("no token", nil)) {
		t.Error("IsTokenExchange should match")
	}
	if !IsInvalidArgument(NewInvalidArgumentError("bad", nil)) {
		t.Error("IsInvalidArgument should match")
	}
	if !IsInternal(NewInternalError("boom", nil)) {
		t.Error("IsInternal should match")
	}
}
