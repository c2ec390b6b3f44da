package lists

import (
	"flag"
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/pkg/sharepoint"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Read SharePoint lists"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors lists <subcommand> [options] [args]

  This command groups subcommands for reading lists through the SharePoint
  gateway.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// queryFlags are the OData options shared by the list subcommands.
type queryFlags struct {
	top    int
	skip   int
	sel    string
	filter string
}

func (q *queryFlags) register(f *base.FlagSet) {
	f.IntVar(&q.top, "top", 0, "Maximum number of records.")
	f.IntVar(&q.skip, "skip", 0, "Number of records to skip.")
	f.StringVar(&q.sel, "select", "", "Comma-separated fields to return.")
	f.StringVar(&q.filter, "filter", "", "OData filter expression.")
}

func (q *queryFlags) options() sharepoint.ListOptions {
	return sharepoint.ListOptions{
		Top:    q.top,
		Skip:   q.skip,
		Select: base.SplitList(q.sel),
		Filter: q.filter,
	}
}

type ListsCommand struct {
	*base.Command

	query queryFlags
}

func (c *ListsCommand) Synopsis() string {
	return "List the site's lists"
}

func (c *ListsCommand) Help() string {
	return `Usage: hermes-connectors lists lists [options]

  Prints the lists of the configured site.` +
		c.Flags().Help()
}

func (c *ListsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("lists lists", flag.ContinueOnError))
	c.ConfigFlag(f)
	c.query.register(f)
	return f
}

func (c *ListsCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	client, ok := newClient(c.Command)
	if !ok {
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	resp, err := client.Lists(ctx, c.query.options())
	if err != nil {
		return c.Fail("error fetching lists", err)
	}
	return c.Output(sharepoint.Values(resp))
}

type ItemsCommand struct {
	*base.Command

	query queryFlags
}

func (c *ItemsCommand) Synopsis() string {
	return "Show list items"
}

func (c *ItemsCommand) Help() string {
	return `Usage: hermes-connectors lists items [options] <list> [item-id]

  Prints the items of a list, or a single item when an ID is given.` +
		c.Flags().Help()
}

func (c *ItemsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("lists items", flag.ContinueOnError))
	c.ConfigFlag(f)
	c.query.register(f)
	return f
}

func (c *ItemsCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() < 1 || f.NArg() > 2 {
		c.UI.Error("a list name and an optional item ID are required")
		return 1
	}

	client, ok := newClient(c.Command)
	if !ok {
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	if f.NArg() == 2 {
		item, err := client.Item(ctx, f.Arg(0), f.Arg(1))
		if err != nil {
			return c.Fail("error fetching item", err)
		}
		return c.Output(item)
	}

	resp, err := client.ListItems(ctx, f.Arg(0), c.query.options())
	if err != nil {
		return c.Fail("error fetching items", err)
	}
	return c.Output(sharepoint.Values(resp))
}

func newClient(c *base.Command) (*sharepoint.Client, bool) {
	hub, err := c.Hub()
	if err != nil {
		c.Fail("error loading config", err)
		return nil, false
	}
	client, err := hub.SharePoint()
	if err != nil {
		c.Fail("error creating SharePoint client", err)
		return nil, false
	}
	if !client.Enabled() {
		c.UI.Error("the SharePoint gateway is not configured")
		return nil, false
	}
	return client, true
}
