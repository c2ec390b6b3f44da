package oauth

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
)

const (
	// DefaultBaseURL is the authorization server used when none is configured.
	DefaultBaseURL = "https://auth.pingone.com/as"

	// DefaultScope is requested when no scope is configured.
	DefaultScope = "openid profile email"
)

var (
	envClientID     = envchain.Chain{"OAUTH_CLIENT_ID", "PING_CLIENT_ID"}
	envClientSecret = envchain.Chain{"OAUTH_CLIENT_SECRET", "PING_CLIENT_SECRET"}
	envBaseURL      = envchain.Chain{"OAUTH_BASE_URL", "PING_BASE_URL"}
	envRedirectURI  = envchain.Chain{"OAUTH_REDIRECT_URI"}
	envScope        = envchain.Chain{"OAUTH_SCOPE"}
	envLoginMethod  = envchain.Chain{"OAUTH_LOGIN_METHOD"}
)

// Config holds configuration for the OAuth client.
type Config struct {
	ClientID string `json:"client_id"`

	// ClientSecret is either the raw secret or, as some deployments supply
	// it, the already Base64-encoded "id:secret" pair.
	ClientSecret string `json:"client_secret"`

	BaseURL     string `json:"base_url"`
	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope"`
	LoginMethod string `json:"login_method"`

	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`

	Logger     hclog.Logger `json:"-"`
	HTTPClient *http.Client `json:"-"`
}

// Resolve fills empty fields from the environment and defaults.
func (c Config) Resolve() Config {
	c.ClientID = envchain.String(c.ClientID, envClientID...)
	c.ClientSecret = envchain.String(c.ClientSecret, envClientSecret...)
	c.BaseURL = envchain.StringDefault(c.BaseURL, DefaultBaseURL, envBaseURL...)
	c.RedirectURI = envchain.String(c.RedirectURI, envRedirectURI...)
	c.Scope = envchain.StringDefault(c.Scope, DefaultScope, envScope...)
	c.LoginMethod = envchain.String(c.LoginMethod, envLoginMethod...)
	return c
}

// Validate checks that the resolved configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.RedirectURI, is.URL),
	)
}
