// Package devauth builds a user profile from trusted request headers so local
// development can run without a real identity provider.
//
// The bypass is only active when DEV_AUTH_BYPASS is set and the environment
// is "development" (or unspecified). It must never be enabled in front of
// untrusted clients.
package devauth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/envchain"
	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// DevelopmentEnvironment is the only named environment the bypass runs in.
const DevelopmentEnvironment = "development"

// Request headers read by the bypass.
const (
	HeaderUserEmail   = "X-Dev-User-Email"
	HeaderForwarded   = "X-Forwarded-Email"
	HeaderAuthRequest = "X-Auth-Request-Email"
	HeaderUserName    = "X-Dev-User-Name"
	HeaderUserRoles   = "X-Dev-User-Roles"
	HeaderUserID      = "X-Dev-User-Id"
	HeaderPassphrase  = "X-Dev-Auth-Passphrase"
)

const (
	envBypassFlag       = "DEV_AUTH_BYPASS"
	envBypassPassphrase = "DEV_AUTH_PASSPHRASE"
)

// emailHeaders are consulted in order; the first value containing '@' wins.
var emailHeaders = []string{HeaderUserEmail, HeaderForwarded, HeaderAuthRequest}

// Profile is the identity asserted by the development headers.
type Profile struct {
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Roles      []string `json:"roles"`
	ExternalID string   `json:"external_id,omitempty"`
}

// Config configures a Bypass.
type Config struct {
	// Enabled turns the bypass on. DEV_AUTH_BYPASS also turns it on.
	Enabled bool `json:"enabled"`

	// Passphrase, when set, must be echoed in the X-Dev-Auth-Passphrase
	// header for a profile to be produced.
	Passphrase string `json:"passphrase"`

	Logger hclog.Logger `json:"-"`
}

// Resolve fills empty fields from the environment.
func (c Config) Resolve() Config {
	c.Enabled = c.Enabled || envchain.Truthy(envBypassFlag)
	c.Passphrase = envchain.String(c.Passphrase, envBypassPassphrase)
	return c
}

// Bypass turns development headers into profiles.
type Bypass struct {
	enabled    bool
	passphrase []byte
	logger     hclog.Logger
}

// New returns a Bypass for cfg after resolving it against the environment.
func New(cfg Config) *Bypass {
	cfg = cfg.Resolve()
	b := &Bypass{
		enabled: cfg.Enabled,
		logger:  logging.Named(cfg.Logger, "devauth", ""),
	}
	if cfg.Passphrase != "" {
		b.passphrase = []byte(cfg.Passphrase)
	}
	return b
}

// Enabled reports whether the bypass applies in environment. An empty
// environment counts as development.
func (b *Bypass) Enabled(environment string) bool {
	if !b.enabled {
		return false
	}
	return environment == "" || environment == DevelopmentEnvironment
}

// ProfileFromHeaders returns the profile asserted by h, or nil when the
// bypass is disabled, the passphrase does not match, or no header carries an
// email address.
func (b *Bypass) ProfileFromHeaders(h http.Header, environment string) *Profile {
	if !b.Enabled(environment) {
		return nil
	}

	if b.passphrase != nil {
		got := []byte(h.Get(HeaderPassphrase))
		if subtle.ConstantTimeCompare(got, b.passphrase) != 1 {
			b.logger.Warn("rejected development identity with bad passphrase")
			return nil
		}
	}

	email := ""
	for _, name := range emailHeaders {
		if v := strings.TrimSpace(h.Get(name)); strings.Contains(v, "@") {
			email = v
			break
		}
	}
	if email == "" {
		return nil
	}

	name := strings.TrimSpace(h.Get(HeaderUserName))
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	given, family, _ := strings.Cut(name, " ")

	return &Profile{
		Email:      email,
		Name:       name,
		GivenName:  given,
		FamilyName: strings.TrimSpace(family),
		Roles:      splitRoles(h.Get(HeaderUserRoles)),
		ExternalID: strings.TrimSpace(h.Get(HeaderUserID)),
	}
}

func splitRoles(raw string) []string {
	roles := []string{}
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

type contextKey struct{}

// Middleware attaches the development profile, when there is one, to the
// request context. Requests without a profile pass through untouched.
func (b *Bypass) Middleware(environment string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := b.ProfileFromHeaders(r.Header, environment); p != nil {
			b.logger.Debug("using development identity", "email", p.Email)
			r = r.WithContext(NewContext(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the profile stored by Middleware, if any.
func FromContext(ctx context.Context) (*Profile, bool) {
	p, ok := ctx.Value(contextKey{}).(*Profile)
	return p, ok && p != nil
}

// Enabled reports whether the environment-configured bypass applies.
func Enabled(environment string) bool {
	return New(Config{}).Enabled(environment)
}

// ProfileFromHeaders uses the environment-configured bypass.
func ProfileFromHeaders(h http.Header, environment string) *Profile {
	return New(Config{}).ProfileFromHeaders(h, environment)
}
