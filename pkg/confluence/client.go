// Package confluence reads and writes Confluence pages and attachments.
package confluence

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

	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// Record is an untyped JSON object as returned by Confluence.
type Record = map[string]any

// Error is returned for every failed Confluence call.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("confluence %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("confluence %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("confluence %s failed", e.Op)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client talks to a single Confluence instance.
type Client struct {
	baseURL    string
	username   string
	secret     string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new Confluence client.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid confluence config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		secret:     cfg.Secret,
		httpClient: httpClient,
		logger:     logging.Named(cfg.Logger, "confluence", cfg.LogLevel),
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	switch {
	case c.username != "" && c.secret != "":
		req.SetBasicAuth(c.username, c.secret)
	case c.secret != "":
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}
}

// resolve turns a link returned by Confluence into an absolute URL.
func (c *Client) resolve(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return c.baseURL + link
}

// doRaw performs a request against an absolute URL and returns the raw body.
func (c *Client) doRaw(ctx context.Context, op, method, endpoint, accept string, body any) ([]byte, error) {
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
	c.authorize(req)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		c.logger.Warn("confluence request failed", "op", op, "status", resp.StatusCode)
		return nil, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       httpclient.Truncate(respBody, httpclient.MaxErrorBody),
		}
	}

	return respBody, nil
}

// doJSON performs a request against an API path and decodes the response.
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	c.logger.Debug("sending request", "op", op, "method", method, "path", path)

	respBody, err := c.doRaw(ctx, op, method, endpoint, "application/json", body)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
