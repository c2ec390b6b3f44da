// Package jira is a thin client for the Jira REST API.
//
// Read operations never fail loudly: transport, HTTP and decoding errors are
// logged and an empty value is returned. Writes performed with the service
// account return a typed *Error. Writes performed on behalf of an end user
// report success as a bool.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// Record is an untyped JSON object as returned by Jira.
type Record = map[string]any

// Issue is a single issue as returned by Jira.
type Issue = Record

// Credentials identify an end user acting through the client instead of the
// service account.
type Credentials struct {
	Username string
	Secret   string
}

// Error is returned by Jira write operations.
type Error struct {
	Op         string // Operation that failed (e.g., "create_issue")
	StatusCode int    // HTTP status, zero for transport failures
	Body       string // Truncated response body
	Err        error  // Underlying error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("jira %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("jira %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client talks to a single Jira instance.
type Client struct {
	baseURL    string
	username   string
	secret     string
	pageSize   int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new Jira client. Missing fields are resolved from the
// environment before validation.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jira config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		secret:     cfg.Secret(),
		pageSize:   cfg.PageSize,
		httpClient: httpClient,
		logger:     logging.Named(cfg.Logger, "jira", cfg.LogLevel),
	}
	if cfg.PagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.PagesPerSecond), 1)
	}

	return c, nil
}

// BaseURL returns the Jira base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a request and returns the raw body. Non-2xx statuses are
// returned as *Error. creds overrides the service account when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, creds *Credentials) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	username, secret := c.username, c.secret
	if creds != nil {
		username, secret = creds.Username, creds.Secret
	}
	req.SetBasicAuth(username, secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("sending request", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if !httpclient.Success(resp.StatusCode) {
		return nil, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       httpclient.Truncate(respBody, httpclient.MaxErrorBody),
		}
	}

	return respBody, nil
}

// get decodes a GET response into out. Failures are logged and reported as
// false so read operations can degrade to an empty value.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) bool {
	body, err := c.do(ctx, op, http.MethodGet, path, query, nil, nil)
	if err != nil {
		c.logger.Warn("jira read failed", "op", op, "path", path, "error", err)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("jira response could not be decoded", "op", op, "path", path, "error", err)
		return false
	}
	return true
}

// decodeRecord treats an empty body as an empty record.
func decodeRecord(body []byte) (Record, error) {
	out := Record{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
