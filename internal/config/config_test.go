package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

jira {
  base_url         = "https://jira.example.com"
  username         = "svc"
  api_token        = "tok"
  page_size        = 25
  pages_per_second = 2.5
  read_timeout     = "45s"
}

directory {
  base_url       = "https://graph.example.com"
  default_domain = "example.com"
}

dev_auth {
  enabled = true
}

chat {
  provider = "gateway"
  gateway {
    api_key = "k"
    model   = "gpt-4o"
    timeout = "2m"
  }
  adapter {
    model = "claude-3-5-sonnet"
  }
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Nil(t, cfg.Confluence)

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, "https://jira.example.com", opts.Jira.BaseURL)
	assert.Equal(t, "tok", opts.Jira.APIToken)
	assert.Equal(t, 25, opts.Jira.PageSize)
	assert.Equal(t, 2.5, opts.Jira.PagesPerSecond)
	assert.Equal(t, 45*time.Second, opts.Jira.ReadTimeout)
	assert.Zero(t, opts.Jira.ConnectTimeout)

	assert.Equal(t, "example.com", opts.Directory.DefaultDomain)
	assert.True(t, opts.DevAuth.Enabled)

	assert.Equal(t, "gateway", opts.Chat.Provider)
	assert.Equal(t, "k", opts.Chat.Gateway.APIKey)
	assert.Equal(t, 2*time.Minute, opts.Chat.Gateway.Timeout)
	assert.Equal(t, "claude-3-5-sonnet", opts.Chat.Adapter.Model)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `jira { unknown_field = 1 }`))
	assert.Error(t, err)
}

func TestOptionsInvalidDurations(t *testing.T) {
	path := writeConfig(t, `
jira {
  connect_timeout = "soon"
}

oauth {
  read_timeout = "10"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.Options()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira.connect_timeout")
	assert.Contains(t, err.Error(), "oauth.read_timeout")
}

func TestOptionsNilConfig(t *testing.T) {
	var cfg *Config
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Empty(t, opts.Jira.BaseURL)
}
