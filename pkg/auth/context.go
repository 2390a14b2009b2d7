package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityContextKey is the key used to store Identity in the request context.
//
// Using an empty struct as the key prevents collisions with other context
// keys, as each empty struct type is distinct even if they have the same name
// in different packages.
type IdentityContextKey struct{}

// WithIdentity stores an Identity in the context.
// If identity is nil, the original context is returned unchanged.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, IdentityContextKey{}, identity)
}

// IdentityFromContext retrieves an Identity from the context.
// Returns the identity and true if present, nil and false otherwise.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey{}).(*Identity)
	return identity, ok
}

// ClaimsToIdentity converts JWT claims to an Identity.
// It requires the 'sub' claim per OIDC Core 1.0 spec § 5.1.
// The original token is carried along for the on-behalf-of exchange.
func ClaimsToIdentity(claims jwt.MapClaims, token string) (*Identity, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("missing or invalid 'sub' claim (required by OIDC Core 1.0 § 5.1)")
	}

	identity := &Identity{
		Subject:   sub,
		Scopes:    scopesFromClaims(claims),
		Claims:    claims,
		Token:     token,
		TokenType: "Bearer",
	}

	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	// Azure AD tokens carry the user principal name in 'upn'; fall back to 'email'.
	if upn, ok := claims["upn"].(string); ok {
		identity.Email = upn
	} else if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}

	return identity, nil
}

// scopesFromClaims derives the delegated scope list by splitting the 'scp'
// claim on whitespace. A missing or non-string claim yields no scopes.
func scopesFromClaims(claims jwt.MapClaims) []string {
	scp, ok := claims["scp"].(string)
	if !ok {
		return nil
	}
	return strings.Fields(scp)
}
