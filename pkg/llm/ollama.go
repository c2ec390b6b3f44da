package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/httpclient"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// DefaultOllamaURL is the local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient talks to Ollama's /api/chat endpoint.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     hclog.Logger
}

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL string        // Default: http://localhost:11434
	Model   string        // Model used when a call names none
	Timeout time.Duration // Default: 300s, local generation is slow
	Logger  hclog.Logger

	HTTPClient *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(config OllamaConfig) *OllamaClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultOllamaURL
	}
	if config.Timeout == 0 {
		config.Timeout = 300 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(0, config.Timeout)
	}

	return &OllamaClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      config.Model,
		httpClient: httpClient,
		logger:     logging.Named(config.Logger, "ollama-client", ""),
	}
}

func (c *OllamaClient) Name() string {
	return "ollama"
}

// Generate returns the completion for messages.
func (c *OllamaClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	resp, err := c.send(ctx, messages, NewOptions(opts...), false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp OllamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if chatResp.Message.Content == "" {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("empty response from Ollama")}
	}
	return chatResp.Message.Content, nil
}

// Stream reads Ollama's newline-delimited JSON stream.
func (c *OllamaClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	resp, err := c.send(ctx, messages, NewOptions(opts...), true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk OllamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.logger.Debug("skipping malformed stream line", "error", err)
			continue
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if onChunk != nil {
				onChunk(chunk.Message.Content)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), &Error{Provider: c.Name(), Err: fmt.Errorf("error reading stream: %w", err)}
	}
	return full.String(), nil
}

func (c *OllamaClient) send(ctx context.Context, messages []Message, o Options, stream bool) (*http.Response, error) {
	model := o.Model
	if model == "" {
		model = c.model
	}

	reqBody := OllamaChatRequest{
		Model:    model,
		Messages: Normalize(messages),
		Stream:   stream,
		Options: &OllamaOptions{
			Temperature: o.Temperature,
			NumPredict:  o.MaxTokens,
		},
	}
	if o.JSONMode {
		reqBody.Format = "json"
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending request to Ollama", "model", model, "stream", stream)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Err: fmt.Errorf("failed to send request: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		var errResp OllamaErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &Error{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       httpclient.Truncate([]byte(msg), httpclient.MaxErrorBody),
		}
	}
	return resp, nil
}

// Ollama API types

type OllamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  *OllamaOptions `json:"options,omitempty"`
}

type OllamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens to generate
}

type OllamaChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
}

type OllamaErrorResponse struct {
	Error string `json:"error"`
}
