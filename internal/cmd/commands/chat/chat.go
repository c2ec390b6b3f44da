package chat

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/pkg/llm"
)

type Command struct {
	*base.Command

	flagSystem      string
	flagModel       string
	flagTemperature float64
	flagMaxTokens   int
	flagJSON        bool
	flagStream      bool
}

func (c *Command) Synopsis() string {
	return "Send a prompt to the configured chat provider"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors chat [options] <prompt>

  Sends the prompt to the chat provider selected by LLM_PROVIDER (or the
  config file) and prints the reply.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("chat", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagSystem, "system", "",
		"System prompt.",
	)
	f.StringVar(
		&c.flagModel, "model", "",
		"Model to use instead of the provider's default.",
	)
	f.Float64Var(
		&c.flagTemperature, "temperature", llm.DefaultTemperature,
		"Sampling temperature.",
	)
	f.IntVar(
		&c.flagMaxTokens, "max-tokens", llm.DefaultMaxTokens,
		"Output token limit.",
	)
	f.BoolVar(
		&c.flagJSON, "json", false,
		"Ask for a JSON object.",
	)
	f.BoolVar(
		&c.flagStream, "stream", false,
		"Print the reply as it arrives.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	prompt := strings.TrimSpace(strings.Join(f.Args(), " "))
	if prompt == "" {
		c.UI.Error("a prompt is required")
		return 1
	}

	hub, err := c.Hub()
	if err != nil {
		return c.Fail("error loading config", err)
	}
	client, err := hub.Chat()
	if err != nil {
		return c.Fail("error creating chat client", err)
	}

	var messages []llm.Message
	if c.flagSystem != "" {
		messages = append(messages, llm.Message{Role: "system", Content: c.flagSystem})
	}
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	opts := []llm.Option{
		llm.WithTemperature(c.flagTemperature),
		llm.WithMaxTokens(c.flagMaxTokens),
		llm.WithJSONMode(c.flagJSON),
	}
	if c.flagModel != "" {
		opts = append(opts, llm.WithModel(c.flagModel))
	}

	ctx, cancel := c.Context()
	defer cancel()

	c.Log.Debug("sending prompt", "provider", client.Name(), "stream", c.flagStream)

	if c.flagStream {
		_, err := client.Stream(ctx, messages, func(chunk string) {
			fmt.Fprint(c.Stdout, chunk)
		}, opts...)
		fmt.Fprintln(c.Stdout)
		if err != nil {
			return c.Fail("error streaming completion", err)
		}
		return 0
	}

	reply, err := client.Generate(ctx, messages, opts...)
	if err != nil {
		return c.Fail("error generating completion", err)
	}
	c.UI.Output(reply)
	return 0
}
