// Package base holds what every CLI command shares: the logger, the UI, the
// flag set wrapper and the connector hub built from the -config flag.
package base

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hermes-connectors/internal/config"
	"github.com/hashicorp-forge/hermes-connectors/pkg/connectors"
)

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// Stdout receives unbuffered output such as streamed completions.
	Stdout io.Writer

	// FS receives downloaded files.
	FS afero.Fs

	flagConfig string
	loaded     *config.Config
}

// NewCommand returns a base command writing to ui.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log:    log,
		UI:     ui,
		Stdout: os.Stdout,
		FS:     afero.NewOsFs(),
	}
}

// ConfigFlag registers the shared -config flag on f.
func (c *Command) ConfigFlag(f *FlagSet) {
	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL config file. Unset values come from the environment.",
	)
}

// Hub builds a connector hub from the -config file, if one was given.
func (c *Command) Hub() (*connectors.Hub, error) {
	cfg := &config.Config{}
	if c.flagConfig != "" {
		var err error
		if cfg, err = config.Load(c.flagConfig); err != nil {
			return nil, err
		}
	}

	c.loaded = cfg

	opts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := c.Log
	if cfg.LogLevel != "" {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:  logger.Name(),
			Level: hclog.LevelFromString(cfg.LogLevel),
		})
	}
	opts.Logger = logger

	return connectors.New(opts), nil
}

// Environment is the deployment environment named by the config file. It is
// empty until Hub has been called.
func (c *Command) Environment() string {
	if c.loaded == nil {
		return ""
	}
	return c.loaded.Environment
}

// Output writes v to the UI as indented JSON.
func (c *Command) Output(v any) int {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding output: %v", err))
		return 1
	}
	c.UI.Output(string(b))
	return 0
}

// Fail reports err prefixed with msg and returns the failing exit code.
func (c *Command) Fail(msg string, err error) int {
	c.UI.Error(fmt.Sprintf("%s: %v", msg, err))
	return 1
}

// Context returns a context canceled on interrupt.
func (c *Command) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
