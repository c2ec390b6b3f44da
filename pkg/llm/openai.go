package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

var (
	envOpenAIAPIKey  = envchain.Chain{"OPENAI_API_KEY"}
	envOpenAIBaseURL = envchain.Chain{"OPENAI_BASE_URL"}
	envOpenAIModel   = envchain.Chain{"OPENAI_MODEL"}
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"` // Default: https://api.openai.com/v1
	Model   string `json:"model"`    // Default: gpt-4o-mini

	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment and defaults.
func (c OpenAIConfig) Resolve() OpenAIConfig {
	c.APIKey = envchain.String(c.APIKey, envOpenAIAPIKey...)
	c.BaseURL = envchain.StringDefault(c.BaseURL, DefaultOpenAIBaseURL, envOpenAIBaseURL...)
	c.Model = envchain.StringDefault(c.Model, DefaultOpenAIModel, envOpenAIModel...)
	return c
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
//
// When the server rejects the token limit field and names the one it wants
// instead, the client retries once with that field and keeps using it for
// the rest of its lifetime.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     hclog.Logger

	mu         sync.Mutex
	tokenField string // Learned override, empty until a rejection is seen
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	config = config.Resolve()
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(config.ConnectTimeout, config.ReadTimeout)
	}

	return &OpenAIClient{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      config.Model,
		httpClient: httpClient,
		logger:     logging.Named(config.Logger, "openai-client", ""),
	}, nil
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

// Generate returns the completion for messages.
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	resp, err := c.send(ctx, messages, NewOptions(opts...), false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	text, err := parseChatResponse(body)
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: err}
	}
	return text, nil
}

// Stream requests a server-sent event stream and delivers each content delta
// as it is parsed.
func (c *OpenAIClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	resp, err := c.send(ctx, messages, NewOptions(opts...), true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text, err := readEventStream(resp.Body, onChunk, c.logger)
	if err != nil {
		return text, &Error{Provider: c.Name(), Err: err}
	}
	return text, nil
}

// TokenField returns the token limit field the next request for model uses.
func (c *OpenAIClient) TokenField(model string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokenField != "" {
		return c.tokenField
	}
	return tokenFieldFor(model)
}

// send posts the request and returns the successful response, retrying once
// when the token limit field is rejected.
func (c *OpenAIClient) send(ctx context.Context, messages []Message, o Options, stream bool) (*http.Response, error) {
	model := o.Model
	if model == "" {
		model = c.model
	}
	messages = Normalize(messages)

	field := c.TokenField(model)
	resp, err := c.post(ctx, chatRequest(model, messages, o, field, stream))
	if err == nil {
		return resp, nil
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return nil, err
	}
	replacement, ok := replacementField(apiErr.Body, field)
	if !ok {
		return nil, err
	}

	c.logger.Info("server rejected token limit field, switching",
		"model", model,
		"rejected", field,
		"using", replacement,
	)
	c.mu.Lock()
	c.tokenField = replacement
	c.mu.Unlock()

	return c.post(ctx, chatRequest(model, messages, o, replacement, stream))
}

func (c *OpenAIClient) post(ctx context.Context, payload map[string]any) (*http.Response, error) {
	reqJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("sending request to OpenAI", "model", payload["model"])

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Err: fmt.Errorf("failed to send request: %w", err)}
	}

	if !httpclient.Success(resp.StatusCode) {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &Error{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       httpclient.Truncate([]byte(errorMessage(body)), httpclient.MaxErrorBody),
		}
	}
	return resp, nil
}
