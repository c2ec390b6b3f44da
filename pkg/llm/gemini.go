package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/genai"

	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string // Defaults to the public Gemini API endpoint
	Model      string // Model used when a call names none
	Logger     hclog.Logger
	HTTPClient *http.Client
}

// GeminiClient generates completions with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger hclog.Logger
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		logger: logging.Named(cfg.Logger, "gemini-client", ""),
	}, nil
}

func (c *GeminiClient) Name() string {
	return "gemini"
}

// Generate returns the completion for messages.
func (c *GeminiClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := NewOptions(opts...)
	model := o.Model
	if model == "" {
		model = c.model
	}

	system, conversation := splitSystem(Normalize(messages))
	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := genai.RoleUser
		if strings.EqualFold(m.Role, "assistant") || strings.EqualFold(m.Role, "model") {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(m.Content)},
		})
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(o.Temperature)),
		MaxOutputTokens: int32(o.MaxTokens),
	}
	if o.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	c.logger.Debug("sending request to Gemini", "model", model, "messages", len(contents))

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		genErr := &Error{Provider: c.Name(), Err: fmt.Errorf("chat generation failed: %w", err)}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			genErr.StatusCode = apiErr.Code
			genErr.Body = httpclient.Truncate([]byte(apiErr.Message), httpclient.MaxErrorBody)
		}
		return "", genErr
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				text.WriteString(part.Text)
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("no response generated from Gemini")}
	}
	return text.String(), nil
}

// Stream delivers the full completion as a single chunk.
func (c *GeminiClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	return streamOnce(ctx, c, messages, onChunk, opts...)
}
