// Package config loads the optional HCL configuration file of the CLI and
// turns it into connector options. Anything the file leaves out is resolved
// from the environment by the connectors themselves.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/hermes-connectors/pkg/confluence"
	"github.com/hashicorp-forge/hermes-connectors/pkg/connectors"
	"github.com/hashicorp-forge/hermes-connectors/pkg/devauth"
	"github.com/hashicorp-forge/hermes-connectors/pkg/directory"
	"github.com/hashicorp-forge/hermes-connectors/pkg/jira"
	"github.com/hashicorp-forge/hermes-connectors/pkg/llm"
	"github.com/hashicorp-forge/hermes-connectors/pkg/oauth"
	"github.com/hashicorp-forge/hermes-connectors/pkg/sharepoint"
)

// Config is the root of the configuration file.
//
// Example:
//
//	log_level   = "debug"
//	environment = "development"
//
//	jira {
//	  base_url  = "https://jira.example.com"
//	  username  = "svc-automation"
//	  page_size = 100
//	}
//
//	chat {
//	  provider = "gateway"
//	  gateway {
//	    base_url = "https://llm-gateway.example.com"
//	    model    = "gpt-4o"
//	  }
//	}
type Config struct {
	LogLevel    string `hcl:"log_level,optional"`
	Environment string `hcl:"environment,optional"`

	Jira       *Jira       `hcl:"jira,block"`
	Confluence *Confluence `hcl:"confluence,block"`
	OAuth      *OAuth      `hcl:"oauth,block"`
	DevAuth    *DevAuth    `hcl:"dev_auth,block"`
	SharePoint *SharePoint `hcl:"sharepoint,block"`
	Directory  *Directory  `hcl:"directory,block"`
	Chat       *Chat       `hcl:"chat,block"`
}

type Jira struct {
	BaseURL        string  `hcl:"base_url,optional"`
	Username       string  `hcl:"username,optional"`
	APIToken       string  `hcl:"api_token,optional"`
	Password       string  `hcl:"password,optional"`
	PageSize       int     `hcl:"page_size,optional"`
	PagesPerSecond float64 `hcl:"pages_per_second,optional"`
	LogLevel       string  `hcl:"log_level,optional"`

	// Go durations, e.g. "30s".
	ConnectTimeout string `hcl:"connect_timeout,optional"`
	ReadTimeout    string `hcl:"read_timeout,optional"`
}

type Confluence struct {
	BaseURL  string `hcl:"base_url,optional"`
	Username string `hcl:"username,optional"`
	Secret   string `hcl:"secret,optional"`
	LogLevel string `hcl:"log_level,optional"`

	ConnectTimeout string `hcl:"connect_timeout,optional"`
	ReadTimeout    string `hcl:"read_timeout,optional"`
}

type OAuth struct {
	ClientID     string `hcl:"client_id,optional"`
	ClientSecret string `hcl:"client_secret,optional"`
	BaseURL      string `hcl:"base_url,optional"`
	RedirectURI  string `hcl:"redirect_uri,optional"`
	Scope        string `hcl:"scope,optional"`
	LoginMethod  string `hcl:"login_method,optional"`

	ConnectTimeout string `hcl:"connect_timeout,optional"`
	ReadTimeout    string `hcl:"read_timeout,optional"`
}

type DevAuth struct {
	Enabled    bool   `hcl:"enabled,optional"`
	Passphrase string `hcl:"passphrase,optional"`
}

type SharePoint struct {
	GatewayURL   string `hcl:"gateway_url,optional"`
	APIKey       string `hcl:"api_key,optional"`
	SiteURL      string `hcl:"site_url,optional"`
	ClientID     string `hcl:"client_id,optional"`
	ClientSecret string `hcl:"client_secret,optional"`

	ConnectTimeout string `hcl:"connect_timeout,optional"`
	ReadTimeout    string `hcl:"read_timeout,optional"`
}

type Directory struct {
	BaseURL       string `hcl:"base_url,optional"`
	APIKey        string `hcl:"api_key,optional"`
	DefaultDomain string `hcl:"default_domain,optional"`

	ConnectTimeout string `hcl:"connect_timeout,optional"`
	ReadTimeout    string `hcl:"read_timeout,optional"`
}

type Chat struct {
	Provider string   `hcl:"provider,optional"`
	Gateway  *Gateway `hcl:"gateway,block"`
	OpenAI   *OpenAI  `hcl:"openai,block"`
	Adapter  *Adapter `hcl:"adapter,block"`
}

type Gateway struct {
	APIKey     string `hcl:"api_key,optional"`
	BaseURL    string `hcl:"base_url,optional"`
	APIVersion string `hcl:"api_version,optional"`
	Model      string `hcl:"model,optional"`
	Header     string `hcl:"header,optional"`
	Timeout    string `hcl:"timeout,optional"`
}

type OpenAI struct {
	APIKey  string `hcl:"api_key,optional"`
	BaseURL string `hcl:"base_url,optional"`
	Model   string `hcl:"model,optional"`

	ConnectTimeout string `hcl:"connect_timeout,optional"`
	ReadTimeout    string `hcl:"read_timeout,optional"`
}

type Adapter struct {
	Model           string `hcl:"model,optional"`
	AnthropicAPIKey string `hcl:"anthropic_api_key,optional"`
	GeminiAPIKey    string `hcl:"gemini_api_key,optional"`
	AWSRegion       string `hcl:"aws_region,optional"`
	AWSAccessKey    string `hcl:"aws_access_key,optional"`
	AWSSecretKey    string `hcl:"aws_secret_key,optional"`
	OllamaURL       string `hcl:"ollama_url,optional"`
}

// Load decodes the configuration file at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file %q: %w", path, err)
	}
	return cfg, nil
}

// Options converts the file into connector options. Invalid durations are
// reported together.
func (c *Config) Options() (connectors.Options, error) {
	var opts connectors.Options
	if c == nil {
		return opts, nil
	}

	var result *multierror.Error
	duration := func(field, raw string) time.Duration {
		if raw == "" {
			return 0
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", field, err))
		}
		return d
	}

	if b := c.Jira; b != nil {
		opts.Jira = jira.Config{
			BaseURL:        b.BaseURL,
			Username:       b.Username,
			APIToken:       b.APIToken,
			Password:       b.Password,
			PageSize:       b.PageSize,
			PagesPerSecond: b.PagesPerSecond,
			LogLevel:       b.LogLevel,
			ConnectTimeout: duration("jira.connect_timeout", b.ConnectTimeout),
			ReadTimeout:    duration("jira.read_timeout", b.ReadTimeout),
		}
	}

	if b := c.Confluence; b != nil {
		opts.Confluence = confluence.Config{
			BaseURL:        b.BaseURL,
			Username:       b.Username,
			Secret:         b.Secret,
			LogLevel:       b.LogLevel,
			ConnectTimeout: duration("confluence.connect_timeout", b.ConnectTimeout),
			ReadTimeout:    duration("confluence.read_timeout", b.ReadTimeout),
		}
	}

	if b := c.OAuth; b != nil {
		opts.OAuth = oauth.Config{
			ClientID:       b.ClientID,
			ClientSecret:   b.ClientSecret,
			BaseURL:        b.BaseURL,
			RedirectURI:    b.RedirectURI,
			Scope:          b.Scope,
			LoginMethod:    b.LoginMethod,
			ConnectTimeout: duration("oauth.connect_timeout", b.ConnectTimeout),
			ReadTimeout:    duration("oauth.read_timeout", b.ReadTimeout),
		}
	}

	if b := c.DevAuth; b != nil {
		opts.DevAuth = devauth.Config{
			Enabled:    b.Enabled,
			Passphrase: b.Passphrase,
		}
	}

	if b := c.SharePoint; b != nil {
		opts.SharePoint = sharepoint.Config{
			GatewayURL:     b.GatewayURL,
			APIKey:         b.APIKey,
			SiteURL:        b.SiteURL,
			ClientID:       b.ClientID,
			ClientSecret:   b.ClientSecret,
			ConnectTimeout: duration("sharepoint.connect_timeout", b.ConnectTimeout),
			ReadTimeout:    duration("sharepoint.read_timeout", b.ReadTimeout),
		}
	}

	if b := c.Directory; b != nil {
		opts.Directory = directory.Config{
			BaseURL:        b.BaseURL,
			APIKey:         b.APIKey,
			DefaultDomain:  b.DefaultDomain,
			ConnectTimeout: duration("directory.connect_timeout", b.ConnectTimeout),
			ReadTimeout:    duration("directory.read_timeout", b.ReadTimeout),
		}
	}

	if b := c.Chat; b != nil {
		opts.Chat.Provider = b.Provider
		if g := b.Gateway; g != nil {
			opts.Chat.Gateway = llm.GatewayConfig{
				APIKey:     g.APIKey,
				BaseURL:    g.BaseURL,
				APIVersion: g.APIVersion,
				Model:      g.Model,
				Header:     g.Header,
				Timeout:    duration("chat.gateway.timeout", g.Timeout),
			}
		}
		if o := b.OpenAI; o != nil {
			opts.Chat.OpenAI = llm.OpenAIConfig{
				APIKey:         o.APIKey,
				BaseURL:        o.BaseURL,
				Model:          o.Model,
				ConnectTimeout: duration("chat.openai.connect_timeout", o.ConnectTimeout),
				ReadTimeout:    duration("chat.openai.read_timeout", o.ReadTimeout),
			}
		}
		if a := b.Adapter; a != nil {
			opts.Chat.Adapter = llm.AdapterConfig{
				Model:           a.Model,
				AnthropicAPIKey: a.AnthropicAPIKey,
				GeminiAPIKey:    a.GeminiAPIKey,
				AWSRegion:       a.AWSRegion,
				AWSAccessKey:    a.AWSAccessKey,
				AWSSecretKey:    a.AWSSecretKey,
				OllamaURL:       a.OllamaURL,
				OpenAI:          opts.Chat.OpenAI,
			}
		}
	}

	return opts, result.ErrorOrNil()
}
