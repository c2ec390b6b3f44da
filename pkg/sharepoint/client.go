// Package sharepoint is a client for a REST gateway exposing SharePoint lists.
//
// Every non-2xx response is returned as *Error, reads included.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// Headers sent with every request.
const (
	HeaderAPIKey           = "x-api-key"
	HeaderSiteURL          = "X-Site-Url"
	HeaderSiteClientID     = "X-Site-Client-Id"
	HeaderSiteClientSecret = "X-Site-Client-Secret"
)

// Record is an untyped JSON object.
type Record = map[string]any

// Error is returned for failed gateway calls.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sharepoint %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sharepoint %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ListOptions are the OData query options. Zero values are omitted, so an
// explicit $top=0 or $skip=0 cannot be sent; the service defaults apply.
type ListOptions struct {
	Top    int
	Skip   int
	Select []string
	Filter string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Top > 0 {
		q.Set("$top", strconv.Itoa(o.Top))
	}
	if o.Skip > 0 {
		q.Set("$skip", strconv.Itoa(o.Skip))
	}
	if len(o.Select) > 0 {
		q.Set("$select", strings.Join(o.Select, ","))
	}
	if o.Filter != "" {
		q.Set("$filter", o.Filter)
	}
	return q
}

// Client talks to the list gateway for a single site.
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new list client.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sharepoint config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	return &Client{
		config:     cfg,
		baseURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		httpClient: httpClient,
		logger:     logging.Named(cfg.Logger, "sharepoint", ""),
	}, nil
}

// Enabled reports whether the environment carries a complete configuration.
func Enabled() bool {
	return Config{}.Resolve().Complete()
}

// Enabled reports whether the client is fully configured.
func (c *Client) Enabled() bool {
	return c.config.Complete()
}

// Lists returns the lists of the site.
func (c *Client) Lists(ctx context.Context, opts ListOptions) (Record, error) {
	return c.do(ctx, "lists", http.MethodGet, "/lists", opts.values(), nil)
}

// ListItems returns the items of a list.
func (c *Client) ListItems(ctx context.Context, list string, opts ListOptions) (Record, error) {
	return c.do(ctx, "list_items", http.MethodGet, itemsPath(list), opts.values(), nil)
}

// Item returns a single list item.
func (c *Client) Item(ctx context.Context, list, id string) (Record, error) {
	return c.do(ctx, "item", http.MethodGet, itemPath(list, id), nil, nil)
}

// CreateItem creates a list item with fields.
func (c *Client) CreateItem(ctx context.Context, list string, fields Record) (Record, error) {
	return c.do(ctx, "create_item", http.MethodPost, itemsPath(list), nil, fields)
}

// UpdateItem updates fields of an existing list item.
func (c *Client) UpdateItem(ctx context.Context, list, id string, fields Record) (Record, error) {
	return c.do(ctx, "update_item", http.MethodPatch, itemPath(list, id), nil, fields)
}

// DeleteItem deletes a list item and reports whether the gateway accepted it.
func (c *Client) DeleteItem(ctx context.Context, list, id string) (bool, error) {
	if _, err := c.do(ctx, "delete_item", http.MethodDelete, itemPath(list, id), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Values extracts the "value" array of an OData collection response.
func Values(r Record) []Record {
	raw, _ := r["value"].([]any)
	out := make([]Record, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func itemsPath(list string) string {
	return "/lists/" + url.PathEscape(list) + "/items"
}

func itemPath(list, id string) string {
	return itemsPath(list) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (Record, error) {
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
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAPIKey, c.config.APIKey)
	req.Header.Set(HeaderSiteURL, c.config.SiteURL)
	req.Header.Set(HeaderSiteClientID, c.config.ClientID)
	req.Header.Set(HeaderSiteClientSecret, c.config.ClientSecret)

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
		c.logger.Warn("gateway returned an error", "op", op, "status", resp.StatusCode)
		return nil, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       httpclient.Truncate(respBody, httpclient.MaxErrorBody),
		}
	}

	out := Record{}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return out, nil
}
