package people

import (
	"flag"
	"fmt"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Look up people in the directory"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors people <subcommand> [options] [args]

  This command groups subcommands for reading directory profiles.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type UserCommand struct {
	*base.Command

	flagManager bool
}

func (c *UserCommand) Synopsis() string {
	return "Show a user profile"
}

func (c *UserCommand) Help() string {
	return `Usage: hermes-connectors people user [options] <id-or-email>

  Prints the directory profile of a user.` +
		c.Flags().Help()
}

func (c *UserCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("people user", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.BoolVar(
		&c.flagManager, "manager", false,
		"Print the user's manager instead.",
	)

	return f
}

func (c *UserCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one user is required")
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Directory()
	if err != nil {
		return c.Fail("error creating directory client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	lookup := client.User
	if c.flagManager {
		lookup = client.Manager
	}
	p := lookup(ctx, f.Arg(0))
	if p == nil {
		c.UI.Error(fmt.Sprintf("no profile found for %q", f.Arg(0)))
		return 1
	}
	return c.Output(p)
}

type PhotoCommand struct {
	*base.Command

	flagOut string
}

func (c *PhotoCommand) Synopsis() string {
	return "Download a user photo"
}

func (c *PhotoCommand) Help() string {
	return `Usage: hermes-connectors people photo [options] <id-or-email>

  Looks up the user and saves the first photo found among the user's
  identifiers.` +
		c.Flags().Help()
}

func (c *PhotoCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("people photo", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagOut, "out", "photo.jpg",
		"Where to save the photo.",
	)

	return f
}

func (c *PhotoCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one user is required")
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Directory()
	if err != nil {
		return c.Fail("error creating directory client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	p := client.User(ctx, f.Arg(0))
	if p == nil {
		c.UI.Error(fmt.Sprintf("no profile found for %q", f.Arg(0)))
		return 1
	}

	photo := client.UserPhoto(ctx, p)
	if !photo.Found() {
		c.UI.Error(fmt.Sprintf("no photo found for %q (status %d)", f.Arg(0), photo.StatusCode))
		return 1
	}
	if err := afero.WriteFile(c.FS, c.flagOut, photo.Body, 0o644); err != nil {
		return c.Fail("error writing photo", err)
	}
	c.UI.Info(fmt.Sprintf("Saved %s (%d bytes) to %s", photo.ContentType, len(photo.Body), c.flagOut))
	return 0
}

type ReportsCommand struct {
	*base.Command

	flagSelect string
}

func (c *ReportsCommand) Synopsis() string {
	return "List a user's direct reports"
}

func (c *ReportsCommand) Help() string {
	return `Usage: hermes-connectors people reports [options] <id-or-email>

  Prints the direct reports of a user.` +
		c.Flags().Help()
}

func (c *ReportsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("people reports", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagSelect, "select", "",
		"Comma-separated profile fields to request.",
	)

	return f
}

func (c *ReportsCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one user is required")
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Directory()
	if err != nil {
		return c.Fail("error creating directory client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	return c.Output(client.DirectReports(ctx, f.Arg(0), base.SplitList(c.flagSelect)...))
}
