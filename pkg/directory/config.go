package directory

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
)

var (
	envBaseURL       = envchain.Chain{"DIRECTORY_API_URL", "GRAPH_PROXY_URL"}
	envAPIKey        = envchain.Chain{"DIRECTORY_API_KEY", "GRAPH_PROXY_API_KEY"}
	envDefaultDomain = envchain.Chain{"DIRECTORY_DEFAULT_DOMAIN"}
	envOpenTimeout   = envchain.Chain{"DIRECTORY_OPEN_TIMEOUT"}
	envReadTimeout   = envchain.Chain{"DIRECTORY_READ_TIMEOUT"}
)

// Config holds configuration for the directory client.
type Config struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`

	// DefaultDomain completes principal names for users whose profile
	// carries no email or principal name domain.
	DefaultDomain string `json:"default_domain"`

	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment.
func (c Config) Resolve() Config {
	c.BaseURL = envchain.String(c.BaseURL, envBaseURL...)
	c.APIKey = envchain.String(c.APIKey, envAPIKey...)
	c.DefaultDomain = envchain.String(c.DefaultDomain, envDefaultDomain...)
	c.ConnectTimeout = envchain.Seconds(c.ConnectTimeout, 0, envOpenTimeout...)
	c.ReadTimeout = envchain.Seconds(c.ReadTimeout, 0, envReadTimeout...)
	return c
}

// Validate checks that the resolved configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.APIKey, validation.Required),
	)
}
