// Package obo implements the OAuth 2.0 on-behalf-of token exchange: the
// gateway presents a user's bearer token as an assertion, together with its
// own confidential-client credential, and receives back an access token
// scoped to the downstream printing API.
package obo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/printrelay/printgw/pkg/logger"
)

const (
	// grantTypeJWTBearer is the assertion grant type used for the
	// on-behalf-of flow
	//nolint:gosec // G101: False positive - these are OAuth2 URN identifiers, not credentials
	grantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// requestedTokenUse marks the assertion grant as an on-behalf-of exchange
	requestedTokenUse = "on_behalf_of"

	// defaultHTTPTimeout is the timeout for HTTP requests
	defaultHTTPTimeout = 30 * time.Second

	// maxResponseBodySize is the maximum size for reading response bodies (1 MB)
	maxResponseBodySize = 1 << 20

	// redactedPlaceholder is used to redact sensitive values in string representations
	redactedPlaceholder = "[REDACTED]"

	// emptyPlaceholder is used to indicate empty/missing values in string representations
	emptyPlaceholder = "<empty>"
)

// ErrNoAccessToken is returned when the exchange response carried no access
// token, even if the provider reported success.
var ErrNoAccessToken = errors.New("on-behalf-of exchange: server returned no access token")

// defaultHTTPClient is the default HTTP client used for exchange requests.
var defaultHTTPClient = &http.Client{
	Timeout: defaultHTTPTimeout,
}

// oAuthError represents an OAuth 2.0 error response as defined in RFC 6749 Section 5.2.
type oAuthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
	StatusCode       int    `json:"-"`
}

func (e *oAuthError) String() string {
	if e.ErrorURI != "" {
		return fmt.Sprintf("OAuth error %q (status %d): see %s", e.Error, e.StatusCode, e.ErrorURI)
	}
	return fmt.Sprintf("OAuth error %q (status %d)", e.Error, e.StatusCode)
}

// parseOAuthError attempts to parse an OAuth error response from the given response body.
func parseOAuthError(statusCode int, body []byte) *oAuthError {
	var oauthErr oAuthError
	if err := json.Unmarshal(body, &oauthErr); err != nil {
		return nil
	}
	if oauthErr.Error == "" {
		return nil
	}
	oauthErr.StatusCode = statusCode
	return &oauthErr
}

// response is used to decode the token endpoint response.
type response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// String implements fmt.Stringer for response, redacting the token.
func (r response) String() string {
	accessToken := redactedPlaceholder
	if r.AccessToken == "" {
		accessToken = emptyPlaceholder
	}

	return fmt.Sprintf("response{AccessToken: %s, TokenType: %s, ExpiresIn: %d}",
		accessToken, r.TokenType, r.ExpiresIn)
}

// Config holds the confidential-client configuration for the on-behalf-of
// exchange. It is read-only after construction and safe to share across
// concurrent requests.
type Config struct {
	// TokenURL is the identity provider's token endpoint URL
	TokenURL string

	// ClientID is the gateway's OAuth 2.0 client identifier
	ClientID string

	// ClientSecret is the gateway's OAuth 2.0 client secret
	ClientSecret string

	// Scopes is the fixed downstream scope set to request
	// (e.g. https://graph.microsoft.com/Print.ReadWrite.All)
	Scopes []string

	// HTTPClient is the HTTP client to use for exchange requests.
	// If nil, defaultHTTPClient will be used.
	HTTPClient *http.Client
}

// String implements fmt.Stringer for Config, redacting the client secret.
func (c *Config) String() string {
	clientSecret := redactedPlaceholder
	if c.ClientSecret == "" {
		clientSecret = emptyPlaceholder
	}

	return fmt.Sprintf("Config{TokenURL: %s, ClientID: %s, ClientSecret: %s, Scopes: %v}",
		c.TokenURL, c.ClientID, clientSecret, c.Scopes)
}

// Validate checks if the Config contains all required fields.
func (c *Config) Validate() error {
	if c.TokenURL == "" {
		return fmt.Errorf("TokenURL is required")
	}

	if c.ClientID == "" {
		return fmt.Errorf("ClientID is required")
	}

	if c.ClientSecret == "" {
		return fmt.Errorf("ClientSecret is required")
	}

	if _, err := url.Parse(c.TokenURL); err != nil {
		return fmt.Errorf("TokenURL is not a valid URL: %w", err)
	}

	return nil
}

// tokenSource implements oauth2.TokenSource for the on-behalf-of exchange.
type tokenSource struct {
	ctx       context.Context
	conf      *Config
	assertion string
}

// Token performs the exchange and returns the downstream token.
// An exchange response lacking an access token is a hard failure even when
// the call itself returned success.
func (ts *tokenSource) Token() (*oauth2.Token, error) {
	conf := ts.conf

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if ts.assertion == "" {
		return nil, fmt.Errorf("assertion is required")
	}

	data := url.Values{}
	data.Set("grant_type", grantTypeJWTBearer)
	data.Set("assertion", ts.assertion)
	data.Set("requested_token_use", requestedTokenUse)
	data.Set("client_id", conf.ClientID)
	data.Set("client_secret", conf.ClientSecret)
	if len(conf.Scopes) > 0 {
		data.Set("scope", strings.Join(conf.Scopes, " "))
	}

	resp, err := exchangeToken(ts.ctx, conf.TokenURL, data, conf.HTTPClient)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	token := &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}

	if resp.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	return token, nil
}

// TokenSource returns an oauth2.TokenSource that exchanges the given user
// assertion for a downstream token. No caching happens behind it: every
// Token() call performs a fresh exchange.
func (c *Config) TokenSource(ctx context.Context, assertion string) oauth2.TokenSource {
	return &tokenSource{
		ctx:       ctx,
		conf:      c,
		assertion: assertion,
	}
}

// ExchangeOnBehalfOf trades the user's token for a downstream access token.
func (c *Config) ExchangeOnBehalfOf(ctx context.Context, userToken string) (string, error) {
	token, err := c.TokenSource(ctx, userToken).Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// exchangeToken performs the actual HTTP request against the token endpoint.
func exchangeToken(ctx context.Context, endpoint string, data url.Values, client *http.Client) (*response, error) {
	encodedData := data.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encodedData))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Content-Length", strconv.Itoa(len(encodedData)))

	if client == nil {
		client = defaultHTTPClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}

	if err := validateResponseStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var tokenResp response
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		logger.Debugf("Failed to parse exchange response: %v", err)
		return nil, errors.New("failed to parse exchange response")
	}

	return &tokenResp, nil
}

// validateResponseStatus checks the HTTP status code and returns an error if not successful.
func validateResponseStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode <= 299 {
		return nil
	}

	// Try to parse as OAuth error first
	if oauthErr := parseOAuthError(statusCode, body); oauthErr != nil {
		logger.Debugf("On-behalf-of exchange OAuth error: %s (description: %s)", oauthErr.Error, oauthErr.ErrorDescription)
		return errors.New(oauthErr.String())
	}

	logger.Debugf("On-behalf-of exchange failed with status %d: %s", statusCode, string(body))
	return fmt.Errorf("on-behalf-of exchange failed with status %d", statusCode)
}
