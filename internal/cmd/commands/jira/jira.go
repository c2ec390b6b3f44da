package jira

import (
	"flag"
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/pkg/jira"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Query the issue tracker"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors jira <subcommand> [options] [args]

  This command groups subcommands for reading issues from Jira.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type SearchCommand struct {
	*base.Command

	flagFields string
	flagExpand string
	flagMax    int
	flagSince  string
}

func (c *SearchCommand) Synopsis() string {
	return "Search issues with JQL"
}

func (c *SearchCommand) Help() string {
	return `Usage: hermes-connectors jira search [options] <jql>

  Runs a JQL query, following pagination, and prints the matching issues.` +
		c.Flags().Help()
}

func (c *SearchCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("jira search", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagFields, "fields", "",
		"Comma-separated issue fields to return.",
	)
	f.StringVar(
		&c.flagExpand, "expand", "",
		"Comma-separated entities to expand (e.g., changelog).",
	)
	f.IntVar(
		&c.flagMax, "max", 0,
		"Maximum number of issues to return. Zero returns every match.",
	)
	f.StringVar(
		&c.flagSince, "updated-since", "",
		"Only issues updated at or after this date, in any common format.",
	)

	return f
}

func (c *SearchCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() == 0 && c.flagSince == "" {
		c.UI.Error("a JQL query is required")
		return 1
	}

	jql := strings.Join(f.Args(), " ")
	if c.flagSince != "" {
		since, err := dateparse.ParseLocal(c.flagSince)
		if err != nil {
			return c.Fail("error parsing -updated-since", err)
		}
		jql = jira.UpdatedSince(jql, since)
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Jira()
	if err != nil {
		return c.Fail("error creating Jira client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	issues := client.Search(ctx, jql, jira.SearchOptions{
		Fields:     base.SplitList(c.flagFields),
		Expand:     base.SplitList(c.flagExpand),
		MaxResults: c.flagMax,
	})
	if issues == nil {
		c.UI.Error("search failed, see logs for details")
		return 1
	}
	return c.Output(issues)
}

type IssueCommand struct {
	*base.Command

	flagComments bool
}

func (c *IssueCommand) Synopsis() string {
	return "Show one issue"
}

func (c *IssueCommand) Help() string {
	return `Usage: hermes-connectors jira issue [options] <key>

  Prints the issue with the given key.` +
		c.Flags().Help()
}

func (c *IssueCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("jira issue", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.BoolVar(
		&c.flagComments, "comments", false,
		"Also print the issue's comments.",
	)

	return f
}

func (c *IssueCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one issue key is required")
		return 1
	}
	key := f.Arg(0)

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Jira()
	if err != nil {
		return c.Fail("error creating Jira client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	issue := client.Issue(ctx, key)
	if issue == nil {
		c.UI.Error(fmt.Sprintf("issue %q not found", key))
		return 1
	}
	if !c.flagComments {
		return c.Output(issue)
	}
	return c.Output(map[string]any{
		"issue":    issue,
		"comments": client.Comments(ctx, key),
	})
}
