package sharepoint

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
)

var (
	envGatewayURL   = envchain.Chain{"SHAREPOINT_GATEWAY_URL"}
	envAPIKey       = envchain.Chain{"SHAREPOINT_API_KEY"}
	envSiteURL      = envchain.Chain{"SHAREPOINT_SITE_URL"}
	envClientID     = envchain.Chain{"SHAREPOINT_CLIENT_ID"}
	envClientSecret = envchain.Chain{"SHAREPOINT_CLIENT_SECRET"}
	envOpenTimeout  = envchain.Chain{"SHAREPOINT_OPEN_TIMEOUT"}
	envReadTimeout  = envchain.Chain{"SHAREPOINT_READ_TIMEOUT"}
)

// Config holds configuration for the list-storage gateway client.
type Config struct {
	// GatewayURL is the base URL of the gateway fronting the site.
	GatewayURL string `json:"gateway_url"`
	APIKey     string `json:"api_key"`

	// Site routing credentials forwarded to the gateway.
	SiteURL      string `json:"site_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment.
func (c Config) Resolve() Config {
	c.GatewayURL = envchain.String(c.GatewayURL, envGatewayURL...)
	c.APIKey = envchain.String(c.APIKey, envAPIKey...)
	c.SiteURL = envchain.String(c.SiteURL, envSiteURL...)
	c.ClientID = envchain.String(c.ClientID, envClientID...)
	c.ClientSecret = envchain.String(c.ClientSecret, envClientSecret...)
	c.ConnectTimeout = envchain.Seconds(c.ConnectTimeout, 0, envOpenTimeout...)
	c.ReadTimeout = envchain.Seconds(c.ReadTimeout, 0, envReadTimeout...)
	return c
}

// Complete reports whether every required field is set.
func (c Config) Complete() bool {
	return c.GatewayURL != "" && c.APIKey != "" && c.SiteURL != "" &&
		c.ClientID != "" && c.ClientSecret != ""
}

// Validate checks that the resolved configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.GatewayURL, validation.Required, is.URL),
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.SiteURL, validation.Required, is.URL),
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
	)
}
