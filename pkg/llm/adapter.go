package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// Routes of the adapter client.
const (
	RouteOpenAI    = "openai"
	RouteAnthropic = "anthropic"
	RouteGemini    = "gemini"
	RouteBedrock   = "bedrock"
	RouteOllama    = "ollama"
)

var (
	envAdapterModel = envchain.Chain{"LLM_MODEL"}
	envAnthropicKey = envchain.Chain{"ANTHROPIC_API_KEY"}
	envGeminiKey    = envchain.Chain{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	envAWSRegion    = envchain.Chain{"AWS_REGION", "AWS_DEFAULT_REGION"}
	envOllamaURL    = envchain.Chain{"OLLAMA_URL", "OLLAMA_HOST"}
)

// AdapterConfig holds configuration for the multi-vendor client.
type AdapterConfig struct {
	// Model picks the vendor unless a call overrides it. Default: gpt-4o-mini.
	Model string `json:"model"`

	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"`
	GeminiAPIKey     string `json:"gemini_api_key"`
	GeminiBaseURL    string `json:"gemini_base_url"`
	AWSRegion        string `json:"aws_region"`
	AWSAccessKey     string `json:"aws_access_key"`
	AWSSecretKey     string `json:"aws_secret_key"`
	OllamaURL        string `json:"ollama_url"`

	// OpenAI configures the fallback route.
	OpenAI OpenAIConfig `json:"openai"`

	// Bedrock replaces the Bedrock SDK client, mainly for tests.
	Bedrock BedrockConverseAPI `json:"-"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment and defaults.
func (c AdapterConfig) Resolve() AdapterConfig {
	c.Model = envchain.StringDefault(c.Model, DefaultOpenAIModel, envAdapterModel...)
	c.AnthropicAPIKey = envchain.String(c.AnthropicAPIKey, envAnthropicKey...)
	c.GeminiAPIKey = envchain.String(c.GeminiAPIKey, envGeminiKey...)
	c.AWSRegion = envchain.StringDefault(c.AWSRegion, DefaultBedrockRegion, envAWSRegion...)
	c.OllamaURL = envchain.StringDefault(c.OllamaURL, DefaultOllamaURL, envOllamaURL...)
	return c
}

// AdapterClient routes each call to a vendor chosen from the model name.
// Vendor clients are built on first use, so only the vendors actually called
// need credentials.
type AdapterClient struct {
	config AdapterConfig
	logger hclog.Logger

	mu      sync.Mutex
	clients map[string]Client
}

// NewAdapterClient creates a new multi-vendor client.
func NewAdapterClient(config AdapterConfig) *AdapterClient {
	config = config.Resolve()
	logger := logging.Named(config.Logger, "adapter-client", "")
	if config.Logger == nil {
		config.Logger = logger
	}
	return &AdapterClient{
		config:  config,
		logger:  logger,
		clients: map[string]Client{},
	}
}

func (c *AdapterClient) Name() string {
	return "adapter"
}

// Generate routes the call by model.
func (c *AdapterClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	client, opts, err := c.resolve(ctx, opts)
	if err != nil {
		return "", err
	}
	return client.Generate(ctx, messages, opts...)
}

// Stream routes the call by model. Routes with native streaming deliver
// fragments as they arrive.
func (c *AdapterClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	client, opts, err := c.resolve(ctx, opts)
	if err != nil {
		return "", err
	}
	return client.Stream(ctx, messages, onChunk, opts...)
}

// resolve returns the route client and the options with the vendor's own
// model name.
func (c *AdapterClient) resolve(ctx context.Context, opts []Option) (Client, []Option, error) {
	model := NewOptions(opts...).Model
	if model == "" {
		model = c.config.Model
	}
	route := RouteFor(model)

	client, err := c.client(ctx, route)
	if err != nil {
		return nil, nil, err
	}

	c.logger.Debug("routing chat request", "model", model, "route", route)
	routed := append(append([]Option{}, opts...), WithModel(vendorModel(model)))
	return client, routed, nil
}

func (c *AdapterClient) client(ctx context.Context, route string) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[route]; ok {
		return client, nil
	}

	var client Client
	var err error
	switch route {
	case RouteAnthropic:
		client, err = NewAnthropicClient(AnthropicConfig{
			APIKey:     c.config.AnthropicAPIKey,
			BaseURL:    c.config.AnthropicBaseURL,
			Logger:     c.config.Logger,
			HTTPClient: c.config.HTTPClient,
		})
	case RouteGemini:
		client, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:     c.config.GeminiAPIKey,
			BaseURL:    c.config.GeminiBaseURL,
			Logger:     c.config.Logger,
			HTTPClient: c.config.HTTPClient,
		})
	case RouteBedrock:
		client, err = NewBedrockClient(ctx, BedrockConfig{
			Region:    c.config.AWSRegion,
			AccessKey: c.config.AWSAccessKey,
			SecretKey: c.config.AWSSecretKey,
			Client:    c.config.Bedrock,
			Logger:    c.config.Logger,
		})
	case RouteOllama:
		client = NewOllamaClient(OllamaConfig{
			BaseURL:    c.config.OllamaURL,
			Logger:     c.config.Logger,
			HTTPClient: c.config.HTTPClient,
		})
	default:
		cfg := c.config.OpenAI
		if cfg.Logger == nil {
			cfg.Logger = c.config.Logger
		}
		if cfg.HTTPClient == nil {
			cfg.HTTPClient = c.config.HTTPClient
		}
		client, err = NewOpenAIClient(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating %s client: %w", route, err)
	}

	c.clients[route] = client
	return client, nil
}

// RouteFor picks the vendor for a model name:
//   - Bedrock model ids ("us.anthropic.claude-...", "amazon.titan-...")
//   - "claude-*" or "anthropic/*" → Anthropic
//   - "gemini-*" or "google/*" → Gemini
//   - "llama*", "mistral*", "qwen*" and other local families → Ollama
//   - anything else → OpenAI
func RouteFor(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case hasAnyPrefix(m, "us.", "eu.", "apac.", "anthropic.", "amazon.", "meta.", "cohere.", "mistral.") ||
		strings.Contains(m, "titan"):
		return RouteBedrock
	case hasAnyPrefix(m, "claude", "anthropic/"):
		return RouteAnthropic
	case hasAnyPrefix(m, "gemini", "google/"):
		return RouteGemini
	case hasAnyPrefix(m, "ollama/", "llama", "codellama", "mistral", "phi", "qwen", "gemma"):
		return RouteOllama
	default:
		return RouteOpenAI
	}
}

// vendorPrefixes are routing hints stripped before the model reaches the
// vendor.
var vendorPrefixes = []string{"anthropic/", "claude/", "google/", "gemini/", "ollama/", "openai/"}

func vendorModel(model string) string {
	for _, prefix := range vendorPrefixes {
		if len(model) > len(prefix) && strings.EqualFold(model[:len(prefix)], prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
