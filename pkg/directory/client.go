// Package directory is a client for a Graph-style user directory proxy.
//
// All operations are reads and degrade to nil on failure.
package directory

import (
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

// HeaderAPIKey carries the proxy API key.
const HeaderAPIKey = "x-api-key"

// Photo is the result of a photo lookup. StatusCode is zero when the request
// never produced a response.
type Photo struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Found reports whether the photo was returned.
func (p *Photo) Found() bool {
	return p != nil && p.StatusCode == http.StatusOK && len(p.Body) > 0
}

// Client talks to the directory proxy.
type Client struct {
	baseURL       string
	apiKey        string
	defaultDomain string
	httpClient    *http.Client
	logger        hclog.Logger
}

// NewClient creates a new directory client.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid directory config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		defaultDomain: cfg.DefaultDomain,
		httpClient:    httpClient,
		logger:        logging.Named(cfg.Logger, "directory", ""),
	}, nil
}

// User looks up a user by id, email or principal name.
func (c *Client) User(ctx context.Context, id string) *Profile {
	var raw map[string]any
	if !c.getJSON(ctx, "user", userPath(id), nil, &raw) {
		return nil
	}
	p, err := decodeProfile(raw)
	if err != nil {
		c.logger.Warn("error decoding user", "id", id, "error", err)
		return nil
	}
	return p
}

// Manager returns the manager of a user.
func (c *Client) Manager(ctx context.Context, id string) *Profile {
	var raw map[string]any
	if !c.getJSON(ctx, "manager", userPath(id)+"/manager", nil, &raw) {
		return nil
	}
	p, err := decodeProfile(raw)
	if err != nil {
		c.logger.Warn("error decoding manager", "id", id, "error", err)
		return nil
	}
	return p
}

// DirectReports returns the users reporting to id. sel restricts the
// returned properties.
func (c *Client) DirectReports(ctx context.Context, id string, sel ...string) []*Profile {
	query := url.Values{}
	if len(sel) > 0 {
		query.Set("$select", strings.Join(sel, ","))
	}

	var resp struct {
		Value []map[string]any `json:"value"`
	}
	if !c.getJSON(ctx, "direct_reports", userPath(id)+"/directReports", query, &resp) {
		return nil
	}

	reports := make([]*Profile, 0, len(resp.Value))
	for _, raw := range resp.Value {
		p, err := decodeProfile(raw)
		if err != nil {
			c.logger.Warn("skipping undecodable report", "manager", id, "error", err)
			continue
		}
		reports = append(reports, p)
	}
	return reports
}

// UserPhotoRaw fetches the photo stored for a single identifier.
func (c *Client) UserPhotoRaw(ctx context.Context, id string) *Photo {
	resp, err := c.get(ctx, userPath(id)+"/photo/$value", nil, "image/*")
	if err != nil {
		c.logger.Warn("photo request failed", "id", id, "error", err)
		return &Photo{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("error reading photo", "id", id, "error", err)
		return &Photo{StatusCode: resp.StatusCode}
	}
	return &Photo{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}
}

// UserPhoto tries every identifier derivable from p and returns the first
// photo found. When none is found it returns the last response, or a 404 when
// p yields no identifier at all.
func (c *Client) UserPhoto(ctx context.Context, p *Profile) *Photo {
	var candidates []string
	if p != nil {
		candidates = photoCandidates(p, c.defaultDomain)
	}

	last := &Photo{StatusCode: http.StatusNotFound}
	for _, id := range candidates {
		last = c.UserPhotoRaw(ctx, id)
		if last.Found() {
			return last
		}
		c.logger.Debug("photo not found", "candidate", id, "status", last.StatusCode)
	}
	return last
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, accept string) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set("Accept", accept)
	return c.httpClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) bool {
	resp, err := c.get(ctx, path, query, "application/json")
	if err != nil {
		c.logger.Warn("directory request failed", "op", op, "error", err)
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("error reading directory response", "op", op, "error", err)
		return false
	}
	if !httpclient.Success(resp.StatusCode) {
		c.logger.Warn("directory returned an error",
			"op", op,
			"status", resp.StatusCode,
			"body", httpclient.Truncate(body, httpclient.MaxErrorBody),
		)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("error decoding directory response", "op", op, "error", err)
		return false
	}
	return true
}
