// Package oauth implements the authorization-code flow against an OAuth2
// authorization server.
//
// Token endpoint calls never fail on HTTP status: every response is returned
// as a Response so callers can branch on status (e.g., an inactive token on
// introspection). An error is only returned when no response was received.
package oauth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// Endpoint paths relative to the base URL.
const (
	AuthorizePath  = "/authorize"
	TokenPath      = "/token"
	IntrospectPath = "/introspect"
	UserInfoPath   = "/userinfo"
)

// Error is returned when a request could not be sent or its response read.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Response is the uniform result of every server call.
type Response struct {
	StatusCode int
	Body       any // Parsed JSON when the body is JSON, otherwise the raw string
}

// OK reports whether the call succeeded with a 2xx status.
func (r *Response) OK() bool {
	return r != nil && httpclient.Success(r.StatusCode)
}

// JSON returns the body as an object, or nil when it is not one.
func (r *Response) JSON() map[string]any {
	if r == nil {
		return nil
	}
	m, _ := r.Body.(map[string]any)
	return m
}

// Client is an OAuth2 client for a single registered application.
type Client struct {
	config     Config
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new OAuth client.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid oauth config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	return &Client{
		config: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.BaseURL + AuthorizePath,
				TokenURL: cfg.BaseURL + TokenPath,
			},
			RedirectURL: cfg.RedirectURI,
			Scopes:      strings.Fields(cfg.Scope),
		},
		httpClient: httpClient,
		logger:     logging.Named(cfg.Logger, "oauth", ""),
	}, nil
}

// AuthorizeURL builds the redirect to the authorization endpoint. redirectURI
// overrides the configured one when non-empty.
func (c *Client) AuthorizeURL(state, redirectURI string) string {
	conf := *c.oauth
	if redirectURI != "" {
		conf.RedirectURL = redirectURI
	}

	var opts []oauth2.AuthCodeOption
	if c.config.LoginMethod != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_method", c.config.LoginMethod))
	}
	return conf.AuthCodeURL(state, opts...)
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Response, error) {
	if redirectURI == "" {
		redirectURI = c.config.RedirectURI
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	return c.postForm(ctx, "exchange_code", TokenPath, form)
}

// RefreshToken trades a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Response, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.postForm(ctx, "refresh_token", TokenPath, form)
}

// Introspect asks the server whether token is active. tokenTypeHint is
// optional ("access_token" or "refresh_token").
func (c *Client) Introspect(ctx context.Context, token, tokenTypeHint string) (*Response, error) {
	form := url.Values{}
	form.Set("token", token)
	if tokenTypeHint != "" {
		form.Set("token_type_hint", tokenTypeHint)
	}
	return c.postForm(ctx, "introspect", IntrospectPath, form)
}

// UserInfo returns the claims of the user owning accessToken.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+UserInfoPath, nil)
	if err != nil {
		return nil, &Error{Op: "userinfo", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return c.send("userinfo", req)
}

// BasicAuthorization returns the value of the client authentication header.
func (c *Client) BasicAuthorization() string {
	return "Basic " + BasicCredential(c.config.ClientID, c.config.ClientSecret)
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Authorization", c.BasicAuthorization())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.send(op, req)
}

func (c *Client) send(op string, req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("oauth request failed", "op", op, "error", err)
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if !httpclient.Success(resp.StatusCode) {
		c.logger.Warn("oauth server returned an error", "op", op, "status", resp.StatusCode)
	}

	return &Response{StatusCode: resp.StatusCode, Body: parseBody(body)}, nil
}

func parseBody(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var parsed any
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return string(body)
	}
	return parsed
}

// base64Secret matches strings made only of the standard Base64 alphabet.
var base64Secret = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// BasicCredential returns the Basic-auth payload for a client. A secret of at
// least 20 characters, without ':' and made only of Base64 characters is
// assumed to be a pre-encoded "id:secret" pair and returned as is. A long raw
// secret that happens to match is misclassified the same way.
func BasicCredential(clientID, secret string) string {
	if len(secret) >= 20 && !strings.Contains(secret, ":") && base64Secret.MatchString(secret) {
		return secret
	}
	return base64.StdEncoding.EncodeToString([]byte(clientID + ":" + secret))
}
