package doctor

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/pkg/connectors"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Check connector configuration"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors doctor [options] [component...]

  Resolves the configuration of each component from the config file and the
  environment and reports what is missing. No service is contacted.

  Components: jira, confluence, oauth, sharepoint, directory, chat.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("doctor", flag.ContinueOnError))
	c.ConfigFlag(f)
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}

	components := f.Args()
	if len(components) == 0 {
		components = connectors.Components
	}

	results := hub.Check(components...)
	failed := 0
	for _, name := range components {
		if err := results[name]; err != nil {
			failed++
			c.UI.Error(fmt.Sprintf("%-12s %v", name, err))
			continue
		}
		c.UI.Info(fmt.Sprintf("%-12s ok", name))
	}

	if len(f.Args()) == 0 {
		if hub.DevAuth().Enabled(c.Environment()) {
			c.UI.Warn("dev auth bypass is enabled; requests can assert any identity")
		}
		if chat, err := hub.Chat(); err == nil {
			c.UI.Info(fmt.Sprintf("%-12s %s", "chat client", chat.Name()))
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
