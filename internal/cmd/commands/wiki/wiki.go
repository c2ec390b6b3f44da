package wiki

import (
	"flag"
	"fmt"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Read and search wiki pages"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors wiki <subcommand> [options] [args]

  This command groups subcommands for reading Confluence pages.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type ReadCommand struct {
	*base.Command

	flagMarkdown bool
}

func (c *ReadCommand) Synopsis() string {
	return "Print a page"
}

func (c *ReadCommand) Help() string {
	return `Usage: hermes-connectors wiki read [options] <page-id>

  Prints a page with its storage-format body, or the body as Markdown.` +
		c.Flags().Help()
}

func (c *ReadCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("wiki read", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.BoolVar(
		&c.flagMarkdown, "markdown", false,
		"Print only the body, converted to Markdown.",
	)

	return f
}

func (c *ReadCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one page ID is required")
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Confluence()
	if err != nil {
		return c.Fail("error creating Confluence client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	if c.flagMarkdown {
		markdown, err := client.ReadMarkdown(ctx, f.Arg(0))
		if err != nil {
			return c.Fail("error reading page", err)
		}
		c.UI.Output(markdown)
		return 0
	}

	page, err := client.Read(ctx, f.Arg(0))
	if err != nil {
		return c.Fail("error reading page", err)
	}
	return c.Output(map[string]any{
		"id":      page.ID,
		"type":    page.Type,
		"title":   page.Title,
		"version": page.Version,
		"body":    page.Body,
	})
}

type SearchCommand struct {
	*base.Command

	flagLimit int
}

func (c *SearchCommand) Synopsis() string {
	return "Search pages with CQL"
}

func (c *SearchCommand) Help() string {
	return `Usage: hermes-connectors wiki search [options] <cql>

  Runs a CQL query and prints the raw results.` +
		c.Flags().Help()
}

func (c *SearchCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("wiki search", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.IntVar(
		&c.flagLimit, "limit", 25,
		"Maximum number of results.",
	)

	return f
}

func (c *SearchCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() == 0 {
		c.UI.Error("a CQL query is required")
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Confluence()
	if err != nil {
		return c.Fail("error creating Confluence client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	results, err := client.Search(ctx, strings.Join(f.Args(), " "), c.flagLimit)
	if err != nil {
		return c.Fail("error searching pages", err)
	}
	return c.Output(results)
}

type AttachmentsCommand struct {
	*base.Command

	flagDownload string
	flagOut      string
}

func (c *AttachmentsCommand) Synopsis() string {
	return "List or download page attachments"
}

func (c *AttachmentsCommand) Help() string {
	return `Usage: hermes-connectors wiki attachments [options] <page-id>

  Lists the attachments of a page. With -download, saves the attachment
  with that exact title instead.` +
		c.Flags().Help()
}

func (c *AttachmentsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("wiki attachments", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagDownload, "download", "",
		"Title of the attachment to download.",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Where to save the download. Defaults to the attachment title.",
	)

	return f
}

func (c *AttachmentsCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one page ID is required")
		return 1
	}
	pageID := f.Arg(0)

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Confluence()
	if err != nil {
		return c.Fail("error creating Confluence client", err)
	}

	ctx, cancel := c.Context()
	defer cancel()

	if c.flagDownload == "" {
		attachments, err := client.Attachments(ctx, pageID)
		if err != nil {
			return c.Fail("error listing attachments", err)
		}
		out := make([]map[string]any, 0, len(attachments))
		for _, a := range attachments {
			out = append(out, map[string]any{
				"id":         a.ID,
				"title":      a.Title,
				"media_type": a.MediaType,
				"file_size":  a.FileSize,
				"download":   a.DownloadLink,
			})
		}
		return c.Output(out)
	}

	data, err := client.DownloadAttachment(ctx, pageID, c.flagDownload)
	if err != nil {
		return c.Fail("error downloading attachment", err)
	}
	if data == nil {
		c.UI.Error(fmt.Sprintf("attachment %q not found on page %s", c.flagDownload, pageID))
		return 1
	}

	path := c.flagOut
	if path == "" {
		path = c.flagDownload
	}
	if err := afero.WriteFile(c.FS, path, data, 0o644); err != nil {
		return c.Fail("error writing attachment", err)
	}
	c.UI.Info(fmt.Sprintf("Saved %d bytes to %s", len(data), path))
	return 0
}
