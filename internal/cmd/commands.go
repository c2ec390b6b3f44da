package cmd

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/chat"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/doctor"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/jira"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/lists"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/oauth"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/people"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/version"
	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/commands/wiki"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(b *base.Command) {
	Commands = map[string]cli.CommandFactory{
		"chat": func() (cli.Command, error) {
			return &chat.Command{Command: b}, nil
		},
		"doctor": func() (cli.Command, error) {
			return &doctor.Command{Command: b}, nil
		},
		"jira": func() (cli.Command, error) {
			return &jira.Command{Command: b}, nil
		},
		"jira issue": func() (cli.Command, error) {
			return &jira.IssueCommand{Command: b}, nil
		},
		"jira search": func() (cli.Command, error) {
			return &jira.SearchCommand{Command: b}, nil
		},
		"lists": func() (cli.Command, error) {
			return &lists.Command{Command: b}, nil
		},
		"lists items": func() (cli.Command, error) {
			return &lists.ItemsCommand{Command: b}, nil
		},
		"lists lists": func() (cli.Command, error) {
			return &lists.ListsCommand{Command: b}, nil
		},
		"oauth": func() (cli.Command, error) {
			return &oauth.Command{Command: b}, nil
		},
		"oauth authorize-url": func() (cli.Command, error) {
			return &oauth.AuthorizeURLCommand{Command: b}, nil
		},
		"oauth exchange": func() (cli.Command, error) {
			return &oauth.ExchangeCommand{Command: b}, nil
		},
		"oauth userinfo": func() (cli.Command, error) {
			return &oauth.UserInfoCommand{Command: b}, nil
		},
		"people": func() (cli.Command, error) {
			return &people.Command{Command: b}, nil
		},
		"people photo": func() (cli.Command, error) {
			return &people.PhotoCommand{Command: b}, nil
		},
		"people reports": func() (cli.Command, error) {
			return &people.ReportsCommand{Command: b}, nil
		},
		"people user": func() (cli.Command, error) {
			return &people.UserCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
		"wiki": func() (cli.Command, error) {
			return &wiki.Command{Command: b}, nil
		},
		"wiki attachments": func() (cli.Command, error) {
			return &wiki.AttachmentsCommand{Command: b}, nil
		},
		"wiki read": func() (cli.Command, error) {
			return &wiki.ReadCommand{Command: b}, nil
		},
		"wiki search": func() (cli.Command, error) {
			return &wiki.SearchCommand{Command: b}, nil
		},
	}
}
