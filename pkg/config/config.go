// Package config holds the runtime configuration for the print gateway.
//
// Values are resolved through viper so they can come from command line
// flags, environment variables (prefixed PRINTGW_), or defaults derived
// from the tenant identity.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultAddress is the listen address when none is configured.
	DefaultAddress = ":8080"

	// DefaultGraphBaseURL is the root of the upstream print API.
	DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultGraphScope is the downstream scope requested during the
	// on-behalf-of exchange.
	DefaultGraphScope = "https://graph.microsoft.com/Print.ReadWrite.All"

	// DefaultRequiredScope is the scope a caller's token must carry to use
	// the API.
	DefaultRequiredScope = "access_as_user"
)

// Config is the fully resolved gateway configuration.
type Config struct {
	// Address is the host:port the HTTP server binds to.
	Address string

	// TenantID identifies the identity tenant that issues caller tokens.
	TenantID string

	// ClientID is the application registration this gateway runs as.
	ClientID string

	// ClientSecret is the confidential client credential used during the
	// on-behalf-of exchange. Never logged.
	ClientSecret string

	// Issuer is the expected token issuer. Defaults to the tenant's v2.0
	// issuer when unset.
	Issuer string

	// Audience is the expected token audience. Defaults to ClientID.
	Audience string

	// JWKSURL is the signing key discovery endpoint. Defaults to the
	// tenant's discovery keys endpoint.
	JWKSURL string

	// TokenURL is the OAuth token endpoint used for the on-behalf-of
	// exchange. Defaults to the tenant's v2.0 token endpoint.
	TokenURL string

	// GraphBaseURL is the root of the upstream print API.
	GraphBaseURL string

	// GraphScopes are the scopes requested for the downstream token.
	GraphScopes []string

	// RequiredScope is the scope callers must present.
	RequiredScope string

	// CORSOrigins lists the origins allowed to call the API from a
	// browser. "*" allows any origin.
	CORSOrigins []string

	// Debug enables debug logging and verbose error responses.
	Debug bool
}

// SetDefaults registers the configuration defaults with viper. Call once
// before Load, typically during command initialization.
func SetDefaults() {
	viper.SetDefault("address", DefaultAddress)
	viper.SetDefault("graph-base-url", DefaultGraphBaseURL)
	viper.SetDefault("graph-scopes", []string{DefaultGraphScope})
	viper.SetDefault("required-scope", DefaultRequiredScope)
	viper.SetDefault("cors-origins", []string{"*"})

	viper.SetEnvPrefix("PRINTGW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Load resolves the configuration from viper and fills in the endpoints
// that can be derived from the tenant. It does not validate; call Validate
// before using the result.
func Load() *Config {
	cfg := &Config{
		Address:       viper.GetString("address"),
		TenantID:      viper.GetString("tenant-id"),
		ClientID:      viper.GetString("client-id"),
		ClientSecret:  viper.GetString("client-secret"),
		Issuer:        viper.GetString("issuer"),
		Audience:      viper.GetString("audience"),
		JWKSURL:       viper.GetString("jwks-url"),
		TokenURL:      viper.GetString("token-url"),
		GraphBaseURL:  viper.GetString("graph-base-url"),
		GraphScopes:   viper.GetStringSlice("graph-scopes"),
		RequiredScope: viper.GetString("required-scope"),
		CORSOrigins:   viper.GetStringSlice("cors-origins"),
		Debug:         viper.GetBool("debug"),
	}
	cfg.applyTenantDefaults()
	return cfg
}

// applyTenantDefaults derives the identity endpoints from the tenant when
// they were not configured explicitly.
func (c *Config) applyTenantDefaults() {
	if c.TenantID == "" {
		return
	}
	authority := "https://login.microsoftonline.com/" + c.TenantID
	if c.Issuer == "" {
		c.Issuer = authority + "/v2.0"
	}
	if c.JWKSURL == "" {
		c.JWKSURL = authority + "/discovery/v2.0/keys"
	}
	if c.TokenURL == "" {
		c.TokenURL = authority + "/oauth2/v2.0/token"
	}
	if c.Audience == "" {
		c.Audience = c.ClientID
	}
}

// Validate checks that every required value is present. The gateway fails
// fast at startup rather than rejecting every request later.
func (c *Config) Validate() error {
	var missing []string
	if c.TenantID == "" && (c.Issuer == "" || c.JWKSURL == "" || c.TokenURL == "") {
		missing = append(missing, "tenant-id")
	}
	if c.ClientID == "" {
		missing = append(missing, "client-id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client-secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Address == "" {
		return fmt.Errorf("address must not be empty")
	}
	if len(c.GraphScopes) == 0 {
		return fmt.Errorf("graph-scopes must not be empty")
	}
	return nil
}

// String returns a loggable form of the configuration with the client
// secret redacted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Address: %s, TenantID: %s, ClientID: %s, ClientSecret: [REDACTED], Issuer: %s, Audience: %s, JWKSURL: %s, TokenURL: %s, GraphBaseURL: %s, GraphScopes: %v, RequiredScope: %s, CORSOrigins: %v, Debug: %t}",
		c.Address, c.TenantID, c.ClientID, c.Issuer, c.Audience, c.JWKSURL, c.TokenURL,
		c.GraphBaseURL, c.GraphScopes, c.RequiredScope, c.CORSOrigins, c.Debug)
}
