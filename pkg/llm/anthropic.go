package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string // Overrides the SDK default
	Model   string // Model used when a call names none
	Logger  hclog.Logger

	HTTPClient *http.Client
}

// AnthropicClient generates completions with the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
	logger hclog.Logger
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		logger: logging.Named(cfg.Logger, "anthropic-client", ""),
	}, nil
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Generate returns the completion for messages.
func (c *AnthropicClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := NewOptions(opts...)
	model := o.Model
	if model == "" {
		model = c.model
	}

	system, conversation := splitSystem(Normalize(messages))
	if o.JSONMode {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(o.MaxTokens),
		Messages:    make([]anthropic.MessageParam, 0, len(conversation)),
		Temperature: anthropic.Float(o.Temperature),
	}
	for _, m := range conversation {
		if strings.EqualFold(m.Role, "assistant") {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	c.logger.Debug("sending request to Anthropic", "model", model, "messages", len(params.Messages))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		out := &Error{Provider: c.Name(), Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			out.StatusCode = apiErr.StatusCode
		}
		return "", out
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("no text in Anthropic response")}
	}
	return text.String(), nil
}

// Stream delivers the full completion as a single chunk.
func (c *AnthropicClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	return streamOnce(ctx, c, messages, onChunk, opts...)
}
