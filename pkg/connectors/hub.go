// Package connectors wires every connector from one set of options and
// builds each client the first time it is asked for.
package connectors

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/hermes-connectors/pkg/confluence"
	"github.com/hashicorp-forge/hermes-connectors/pkg/devauth"
	"github.com/hashicorp-forge/hermes-connectors/pkg/directory"
	"github.com/hashicorp-forge/hermes-connectors/pkg/jira"
	"github.com/hashicorp-forge/hermes-connectors/pkg/llm"
	"github.com/hashicorp-forge/hermes-connectors/pkg/oauth"
	"github.com/hashicorp-forge/hermes-connectors/pkg/sharepoint"
)

// Component names.
const (
	ComponentJira       = "jira"
	ComponentConfluence = "confluence"
	ComponentOAuth      = "oauth"
	ComponentSharePoint = "sharepoint"
	ComponentDirectory  = "directory"
	ComponentChat       = "chat"
)

// Components lists every validated component in a stable order.
var Components = []string{
	ComponentJira,
	ComponentConfluence,
	ComponentOAuth,
	ComponentSharePoint,
	ComponentDirectory,
	ComponentChat,
}

// Options configure a Hub. Empty fields are resolved from the environment by
// each connector.
type Options struct {
	Jira       jira.Config
	Confluence confluence.Config
	OAuth      oauth.Config
	DevAuth    devauth.Config
	SharePoint sharepoint.Config
	Directory  directory.Config
	Chat       llm.FactoryConfig

	Logger hclog.Logger
}

// lazy memoizes the construction of one client, error included.
type lazy[T any] struct {
	once   sync.Once
	client T
	err    error
}

func (l *lazy[T]) get(build func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.client, l.err = build()
	})
	return l.client, l.err
}

// Hub hands out connector clients. It is safe for concurrent use.
type Hub struct {
	opts   Options
	logger hclog.Logger

	jira       lazy[*jira.Client]
	confluence lazy[*confluence.Client]
	oauth      lazy[*oauth.Client]
	devauth    lazy[*devauth.Bypass]
	sharepoint lazy[*sharepoint.Client]
	directory  lazy[*directory.Client]
	chat       lazy[llm.Client]
}

// New returns a Hub for opts. No client is built until requested.
func New(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Hub{
		opts:   opts,
		logger: opts.Logger,
	}
}

// Jira returns the issue tracker client.
func (h *Hub) Jira() (*jira.Client, error) {
	return h.jira.get(func() (*jira.Client, error) {
		cfg := h.opts.Jira
		cfg.Logger = h.childLogger(cfg.Logger)
		return jira.NewClient(cfg)
	})
}

// Confluence returns the wiki client.
func (h *Hub) Confluence() (*confluence.Client, error) {
	return h.confluence.get(func() (*confluence.Client, error) {
		cfg := h.opts.Confluence
		cfg.Logger = h.childLogger(cfg.Logger)
		return confluence.NewClient(cfg)
	})
}

// OAuth returns the identity provider client.
func (h *Hub) OAuth() (*oauth.Client, error) {
	return h.oauth.get(func() (*oauth.Client, error) {
		cfg := h.opts.OAuth
		cfg.Logger = h.childLogger(cfg.Logger)
		return oauth.NewClient(cfg)
	})
}

// DevAuth returns the development auth bypass.
func (h *Hub) DevAuth() *devauth.Bypass {
	b, _ := h.devauth.get(func() (*devauth.Bypass, error) {
		cfg := h.opts.DevAuth
		cfg.Logger = h.childLogger(cfg.Logger)
		return devauth.New(cfg), nil
	})
	return b
}

// SharePoint returns the list storage client.
func (h *Hub) SharePoint() (*sharepoint.Client, error) {
	return h.sharepoint.get(func() (*sharepoint.Client, error) {
		cfg := h.opts.SharePoint
		cfg.Logger = h.childLogger(cfg.Logger)
		return sharepoint.NewClient(cfg)
	})
}

// Directory returns the directory client.
func (h *Hub) Directory() (*directory.Client, error) {
	return h.directory.get(func() (*directory.Client, error) {
		cfg := h.opts.Directory
		cfg.Logger = h.childLogger(cfg.Logger)
		return directory.NewClient(cfg)
	})
}

// Chat returns the chat client chosen by the provider setting.
func (h *Hub) Chat() (llm.Client, error) {
	return h.chat.get(func() (llm.Client, error) {
		cfg := h.opts.Chat
		cfg.Logger = h.childLogger(cfg.Logger)
		return llm.NewClient(cfg)
	})
}

func (h *Hub) childLogger(l hclog.Logger) hclog.Logger {
	if l != nil {
		return l
	}
	return h.logger
}

// Check resolves and validates the configuration of each named component
// (all of them when none are named) without contacting any service. The
// result maps component names to their error, nil when valid.
func (h *Hub) Check(components ...string) map[string]error {
	if len(components) == 0 {
		components = Components
	}

	results := make(map[string]error, len(components))
	for _, c := range components {
		switch c {
		case ComponentJira:
			results[c] = h.opts.Jira.Resolve().Validate()
		case ComponentConfluence:
			results[c] = h.opts.Confluence.Resolve().Validate()
		case ComponentOAuth:
			results[c] = h.opts.OAuth.Resolve().Validate()
		case ComponentSharePoint:
			results[c] = h.opts.SharePoint.Resolve().Validate()
		case ComponentDirectory:
			results[c] = h.opts.Directory.Resolve().Validate()
		case ComponentChat:
			results[c] = h.checkChat()
		default:
			results[c] = fmt.Errorf("unknown component %q", c)
		}
	}
	return results
}

func (h *Hub) checkChat() error {
	cfg := h.opts.Chat
	switch cfg.ProviderName() {
	case llm.ProviderGateway:
		return cfg.Gateway.Resolve().Validate()
	case llm.ProviderOpenAI:
		if cfg.OpenAI.Resolve().APIKey == "" {
			return fmt.Errorf("OpenAI API key is required")
		}
	}
	return nil
}

// Validate is Check folded into a single error.
func (h *Hub) Validate(components ...string) error {
	if len(components) == 0 {
		components = Components
	}
	results := h.Check(components...)

	var result *multierror.Error
	for _, c := range components {
		if err := results[c]; err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", c, err))
		}
	}
	return result.ErrorOrNil()
}
