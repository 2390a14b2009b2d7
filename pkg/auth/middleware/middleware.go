// Package middleware provides the HTTP authentication and authorization
// middleware for the gateway's API routes.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/printrelay/printgw/pkg/auth"
	"github.com/printrelay/printgw/pkg/logger"
)

// TokenValidator validates a raw bearer token and returns its claims.
// *token.Validator satisfies this; tests substitute a stub.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (jwt.MapClaims, error)
}

// errorResponse is the JSON body written for authentication and
// authorization failures.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}

// Authenticator returns middleware that validates the Authorization header
// and stores the resulting Identity in the request context.
//
// Requests without a syntactically valid `Bearer <token>` header are rejected
// before any key lookup happens. Token validation failures are reported to
// the caller without detail.
func Authenticator(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.Warnw("missing or invalid authorization header",
					"path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := validator.ValidateToken(r.Context(), tokenString)
			if err != nil {
				logger.Warnw("token validation failed", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			identity, err := auth.ClaimsToIdentity(claims, tokenString)
			if err != nil {
				logger.Warnw("token claims rejected", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			logger.Debugw("token validated", "subject", identity.Subject)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireScope returns middleware that rejects requests whose authenticated
// identity does not carry the given delegated scope. The response never
// enumerates the scopes the caller does hold.
func RequireScope(requiredScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			if !identity.HasScope(requiredScope) {
				logger.Warnw("insufficient scope",
					"required", requiredScope,
					"subject", identity.Subject)
				writeError(w, http.StatusForbidden, "Insufficient scope")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
