package confluence

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
)

var (
	envBaseURL  = envchain.Chain{"CONFLUENCE_BASE_URL", "CONFLUENCE_URL", "WIKI_BASE_URL"}
	envUsername = envchain.Chain{"CONFLUENCE_USERNAME", "CONFLUENCE_EMAIL", "JIRA_USERNAME", "JIRA_EMAIL"}
	envSecret   = envchain.Chain{"CONFLUENCE_API_TOKEN", "CONFLUENCE_TOKEN", "CONFLUENCE_PASSWORD", "JIRA_API_TOKEN"}
	envLogLevel = envchain.Chain{"CONFLUENCE_LOG_LEVEL"}
)

// Config holds configuration for the Confluence client. Only BaseURL is
// required; without a username the secret is sent as a bearer token.
type Config struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Secret   string `json:"secret"`

	LogLevel       string        `json:"log_level"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment.
func (c Config) Resolve() Config {
	c.BaseURL = envchain.String(c.BaseURL, envBaseURL...)
	c.Username = envchain.String(c.Username, envUsername...)
	c.Secret = envchain.String(c.Secret, envSecret...)
	c.LogLevel = envchain.String(c.LogLevel, envLogLevel...)
	return c
}

// Validate checks that the resolved configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}
