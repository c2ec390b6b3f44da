package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

const (
	DefaultGatewayBaseURL    = "http://localhost:4000"
	DefaultGatewayAPIVersion = "2024-06-01"
	DefaultGatewayModel      = "gpt-4o"
	DefaultGatewayHeader     = "api-key"
)

// gatewayPrefixes are the path prefixes a deployment may be mounted under,
// in the order they are tried.
var gatewayPrefixes = []string{"/openai/deployments", "/deployments", ""}

var (
	envGatewayAPIKey     = envchain.Chain{"LLM_GATEWAY_API_KEY", "MERCK_GPT_API_KEY"}
	envGatewayBaseURL    = envchain.Chain{"LLM_GATEWAY_BASE_URL"}
	envGatewayAPIVersion = envchain.Chain{"LLM_GATEWAY_API_VERSION"}
	envGatewayModel      = envchain.Chain{"LLM_GATEWAY_MODEL"}
	envGatewayHeader     = envchain.Chain{"LLM_GATEWAY_HEADER"}
	envGatewayTimeout    = envchain.Chain{"LLM_GATEWAY_TIMEOUT"}
)

// GatewayConfig holds configuration for the gateway client.
type GatewayConfig struct {
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url"`
	APIVersion string `json:"api_version"`
	Model      string `json:"model"`

	// Header carries the API key. "Authorization" sends it as a bearer token.
	Header string `json:"header"`

	Timeout time.Duration `json:"timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment and defaults.
func (c GatewayConfig) Resolve() GatewayConfig {
	c.APIKey = envchain.String(c.APIKey, envGatewayAPIKey...)
	c.BaseURL = envchain.StringDefault(c.BaseURL, DefaultGatewayBaseURL, envGatewayBaseURL...)
	c.APIVersion = envchain.StringDefault(c.APIVersion, DefaultGatewayAPIVersion, envGatewayAPIVersion...)
	c.Model = envchain.StringDefault(c.Model, DefaultGatewayModel, envGatewayModel...)
	c.Header = envchain.StringDefault(c.Header, DefaultGatewayHeader, envGatewayHeader...)
	c.Timeout = envchain.Seconds(c.Timeout, 0, envGatewayTimeout...)
	return c
}

// Validate checks that the resolved configuration is usable.
func (c GatewayConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

// GatewayClient talks to a chat gateway that mounts model deployments under
// one of several path conventions. Every call probes the candidate URLs in
// order, moving on only when a candidate answers 404.
type GatewayClient struct {
	config     GatewayConfig
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewGatewayClient creates a new gateway client.
func NewGatewayClient(config GatewayConfig) (*GatewayClient, error) {
	config = config.Resolve()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(0, config.Timeout)
	}

	return &GatewayClient{
		config:     config,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logging.Named(config.Logger, "gateway-client", ""),
	}, nil
}

func (c *GatewayClient) Name() string {
	return "gateway"
}

// CandidateURLs returns the de-duplicated endpoint URLs tried for model.
func (c *GatewayClient) CandidateURLs(model string) []string {
	query := url.Values{"api-version": []string{c.config.APIVersion}}.Encode()

	var urls []string
	seen := map[string]bool{}
	for _, prefix := range gatewayPrefixes {
		u := c.baseURL + prefix + "/" + url.PathEscape(model) + "/chat/completions?" + query
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// Generate returns the completion for messages.
func (c *GatewayClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := NewOptions(opts...)
	model := o.Model
	if model == "" {
		model = c.config.Model
	}

	payload, err := json.Marshal(chatRequest("", Normalize(messages), o, tokenFieldFor(model), false))
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	urls := c.CandidateURLs(model)
	attempt := 0
	var text string

	probe := func() error {
		endpoint := urls[attempt]
		attempt++

		result, err := c.post(ctx, endpoint, payload)
		if err == nil {
			text = result
			return nil
		}

		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && attempt < len(urls) {
			c.logger.Debug("deployment not found, trying next URL shape", "url", endpoint)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(len(urls)-1)),
		ctx,
	)
	if err := backoff.Retry(probe, policy); err != nil {
		return "", err
	}
	return text, nil
}

// Stream delivers the full completion as a single chunk.
func (c *GatewayClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	return streamOnce(ctx, c, messages, onChunk, opts...)
}

func (c *GatewayClient) post(ctx context.Context, endpoint string, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if strings.EqualFold(c.config.Header, "Authorization") {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	} else {
		req.Header.Set(c.config.Header, c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: c.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if !httpclient.Success(resp.StatusCode) {
		return "", &Error{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       httpclient.Truncate([]byte(errorMessage(body)), httpclient.MaxErrorBody),
		}
	}

	text, err := parseChatResponse(body)
	if err != nil {
		return "", &Error{Provider: c.Name(), StatusCode: resp.StatusCode, Err: err}
	}
	return text, nil
}
