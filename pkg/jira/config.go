package jira

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
)

// DefaultPageSize is the search page size when none is configured.
const DefaultPageSize = 50

// Environment fallbacks, highest priority first.
var (
	envBaseURL  = envchain.Chain{"JIRA_BASE_URL", "JIRA_URL"}
	envUsername = envchain.Chain{"JIRA_USERNAME", "JIRA_EMAIL", "JIRA_USER"}
	envAPIToken = envchain.Chain{"JIRA_API_TOKEN", "JIRA_TOKEN"}
	envPassword = envchain.Chain{"JIRA_PASSWORD"}
	envPageSize = envchain.Chain{"JIRA_PAGE_SIZE"}
	envLogLevel = envchain.Chain{"JIRA_LOG_LEVEL"}
)

// Config holds configuration for the Jira client.
//
// Example configuration (HCL):
//
//	jira {
//	  base_url  = "https://jira.example.com"
//	  username  = "svc-automation"
//	  page_size = 100
//	}
type Config struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`

	// APIToken takes priority over Password when both are present.
	APIToken string `json:"api_token"`
	Password string `json:"password"`

	PageSize int `json:"page_size"`

	// PagesPerSecond paces search pagination. Zero disables pacing.
	PagesPerSecond float64 `json:"pages_per_second"`

	LogLevel       string        `json:"log_level"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment. Explicit values always win,
// and an explicit token or password wins over any environment secret.
func (c Config) Resolve() Config {
	c.BaseURL = envchain.String(c.BaseURL, envBaseURL...)
	c.Username = envchain.String(c.Username, envUsername...)
	if c.APIToken == "" && c.Password == "" {
		c.APIToken = envchain.String("", envAPIToken...)
		if c.APIToken == "" {
			c.Password = envchain.String("", envPassword...)
		}
	}
	c.PageSize = envchain.Int(c.PageSize, DefaultPageSize, envPageSize...)
	c.LogLevel = envchain.String(c.LogLevel, envLogLevel...)
	return c
}

// Secret returns the credential used for Basic auth.
func (c Config) Secret() string {
	if c.APIToken != "" {
		return c.APIToken
	}
	return c.Password
}

// Validate checks that the resolved configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.APIToken,
			validation.When(c.Password == "", validation.Required.Error("api_token or password is required"))),
		validation.Field(&c.PageSize, validation.Min(1)),
	)
}
