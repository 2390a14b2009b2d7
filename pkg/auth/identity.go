// Package auth provides authentication and authorization utilities.
package auth

import (
	"encoding/json"
	"fmt"
)

// Identity represents an authenticated user.
// This is the primary type for representing authenticated principals
// throughout the gateway.
type Identity struct {
	// Subject is the unique identifier for the principal (from 'sub' claim).
	Subject string

	// Name is the human-readable name (from 'name' claim).
	Name string

	// Email is the email address or user principal name
	// (from 'upn' or 'email' claim, if available).
	Email string

	// Scopes are the delegated permissions carried by the token,
	// derived by splitting the 'scp' claim on whitespace.
	Scopes []string

	// Claims contains all claims from the auth token. Claims the gateway
	// does not recognize stay reachable here instead of being dropped.
	Claims map[string]any

	// Token is the original bearer token. It is retained only to feed the
	// on-behalf-of exchange and is redacted in String() and MarshalJSON()
	// to prevent leakage.
	Token string

	// TokenType is the type of token (e.g., "Bearer").
	TokenType string
}

// HasScope reports whether the identity carries the given delegated scope.
func (i *Identity) HasScope(scope string) bool {
	if i == nil {
		return false
	}
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// String returns a string representation of the Identity with sensitive fields redacted.
func (i *Identity) String() string {
	if i == nil {
		return "<nil>"
	}

	return fmt.Sprintf("Identity{Subject:%q, Scopes:%v}", i.Subject, i.Scopes)
}

// MarshalJSON implements json.Marshaler to redact the token during JSON
// serialization. This prevents accidental leakage in structured logs or
// API responses.
func (i *Identity) MarshalJSON() ([]byte, error) {
	if i == nil {
		return []byte("null"), nil
	}

	type SafeIdentity struct {
		Subject   string         `json:"subject"`
		Name      string         `json:"name"`
		Email     string         `json:"email"`
		Scopes    []string       `json:"scopes"`
		Claims    map[string]any `json:"claims"`
		Token     string         `json:"token"`
		TokenType string         `json:"tokenType"`
	}

	token := i.Token
	if token != "" {
		token = "REDACTED"
	}

	return json.Marshal(&SafeIdentity{
		Subject:   i.Subject,
		Name:      i.Name,
		Email:     i.Email,
		Scopes:    i.Scopes,
		Claims:    i.Claims,
		Token:     token,
		TokenType: i.TokenType,
	})
}
