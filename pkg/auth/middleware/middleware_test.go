package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printrelay/printgw/pkg/auth"
)

// stubValidator records whether validation was attempted.
type stubValidator struct {
	claims jwt.MapClaims
	err    error
	called bool
}

func (s *stubValidator) ValidateToken(_ context.Context, _ string) (jwt.MapClaims, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestAuthenticator_MalformedHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong prefix", "Basic dXNlcjpwYXNz"},
		{"lowercase bearer", "bearer some-token"},
		{"token only", "some-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			validator := &stubValidator{}
			handler := Authenticator(validator)(okHandler(t))

			req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Missing or invalid authorization header"}`, rec.Body.String())
			// No key lookup or validation may happen for malformed headers.
			assert.False(t, validator.called)
		})
	}
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	t.Parallel()

	validator := &stubValidator{err: errors.New("signature verification failed: key not found")}
	handler := Authenticator(validator)(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// The response must not leak validation detail.
	assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
}

func TestAuthenticator_MissingSubject(t *testing.T) {
	t.Parallel()

	validator := &stubValidator{claims: jwt.MapClaims{"scp": "access_as_user"}}
	handler := Authenticator(validator)(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
	req.Header.Set("Authorization", "Bearer token-without-sub")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_StoresIdentity(t *testing.T) {
	t.Parallel()

	validator := &stubValidator{claims: jwt.MapClaims{
		"sub": "user-123",
		"upn": "alice@example.com",
		"scp": "access_as_user other_scope",
	}}

	var got *auth.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	Authenticator(validator)(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-123", got.Subject)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, []string{"access_as_user", "other_scope"}, got.Scopes)
	assert.Equal(t, "good-token", got.Token)
}

func TestRequireScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scp        string
		required   string
		wantStatus int
	}{
		{
			name:       "scope present among others",
			scp:        "access_as_user other_scope",
			required:   "access_as_user",
			wantStatus: http.StatusOK,
		},
		{
			name:       "scope absent",
			scp:        "other_scope",
			required:   "access_as_user",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no scopes at all",
			scp:        "",
			required:   "access_as_user",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			identity := &auth.Identity{Subject: "user-123"}
			if tt.scp != "" {
				identity, _ = auth.ClaimsToIdentity(jwt.MapClaims{
					"sub": "user-123",
					"scp": tt.scp,
				}, "token")
			}

			handler := RequireScope(tt.required)(okHandler(t))

			req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
			req = req.WithContext(auth.WithIdentity(req.Context(), identity))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				// Must not reveal which scopes the caller holds.
				assert.JSONEq(t, `{"error":"Insufficient scope"}`, rec.Body.String())
			}
		})
	}
}

func TestRequireScope_NoIdentity(t *testing.T) {
	t.Parallel()

	handler := RequireScope("access_as_user")(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"User not authenticated"}`, rec.Body.String())
}
