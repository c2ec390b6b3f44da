package llm

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// Provider names understood by NewClient.
const (
	ProviderMock    = "mock"
	ProviderGateway = "gateway"
	ProviderOpenAI  = "openai"
	ProviderAdapter = "adapter"
)

var envProvider = envchain.Chain{"LLM_PROVIDER"}

// providerAliases maps accepted provider names to providers.
var providerAliases = map[string]string{
	"gateway":  ProviderGateway,
	"merck":    ProviderGateway,
	"openai":   ProviderOpenAI,
	"adapter":  ProviderAdapter,
	"ruby_llm": ProviderAdapter,
	"multi":    ProviderAdapter,
	"mock":     ProviderMock,
}

// FactoryConfig holds configuration for NewClient.
type FactoryConfig struct {
	// Provider overrides LLM_PROVIDER.
	Provider string `json:"provider"`

	Gateway GatewayConfig `json:"gateway"`
	OpenAI  OpenAIConfig  `json:"openai"`
	Adapter AdapterConfig `json:"adapter"`

	Logger hclog.Logger `json:"-"`
}

// ProviderName returns the provider NewClient selects for c. Blank and
// unknown names select the mock.
func (c FactoryConfig) ProviderName() string {
	name := strings.ToLower(envchain.String(c.Provider, envProvider...))
	if p, ok := providerAliases[name]; ok {
		return p
	}
	return ProviderMock
}

// NewClient returns the chat client for the configured provider. A known
// provider that is missing required settings is an error; it does not fall
// back to the mock.
func NewClient(config FactoryConfig) (Client, error) {
	logger := logging.Named(config.Logger, "llm", "")
	provider := config.ProviderName()

	raw := strings.ToLower(envchain.String(config.Provider, envProvider...))
	if _, ok := providerAliases[raw]; raw != "" && !ok {
		logger.Warn("unknown chat provider, using mock", "provider", raw)
	}
	logger.Debug("selecting chat client", "provider", provider)

	switch provider {
	case ProviderGateway:
		cfg := config.Gateway
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		return wrap(NewGatewayClient(cfg))
	case ProviderOpenAI:
		cfg := config.OpenAI
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		return wrap(NewOpenAIClient(cfg))
	case ProviderAdapter:
		cfg := config.Adapter
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		return NewAdapterClient(cfg), nil
	default:
		return NewMockClient(), nil
	}
}

// wrap avoids returning a typed nil inside the Client interface.
func wrap[T Client](client T, err error) (Client, error) {
	if err != nil {
		return nil, fmt.Errorf("error creating chat client: %w", err)
	}
	return client, nil
}
