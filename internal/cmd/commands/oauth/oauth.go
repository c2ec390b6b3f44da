package oauth

import (
	"flag"
	"fmt"

	"github.com/mitchellh/cli"
	"github.com/pkg/browser"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/pkg/oauth"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Walk through the OAuth authorization code flow"
}

func (c *Command) Help() string {
	return `Usage: hermes-connectors oauth <subcommand> [options] [args]

  This command groups subcommands for testing the identity provider
  registration.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type AuthorizeURLCommand struct {
	*base.Command

	flagState       string
	flagRedirectURI string
	flagOpen        bool
}

func (c *AuthorizeURLCommand) Synopsis() string {
	return "Print the authorization URL"
}

func (c *AuthorizeURLCommand) Help() string {
	return `Usage: hermes-connectors oauth authorize-url [options]

  Prints the URL a browser is sent to for login. A random state is used
  unless -state is given.` +
		c.Flags().Help()
}

func (c *AuthorizeURLCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("oauth authorize-url", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagState, "state", "",
		"State parameter to send.",
	)
	f.StringVar(
		&c.flagRedirectURI, "redirect-uri", "",
		"[OAUTH_REDIRECT_URI] Redirect URI to send.",
	)
	f.BoolVar(
		&c.flagOpen, "open", false,
		"Also open the URL in the default browser.",
	)

	return f
}

func (c *AuthorizeURLCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	client, ok := newClient(c.Command)
	if !ok {
		return 1
	}

	state := c.flagState
	if state == "" {
		state = oauth.NewState()
	}
	authURL := client.AuthorizeURL(state, c.flagRedirectURI)
	c.UI.Output(authURL)

	if c.flagOpen {
		if err := browser.OpenURL(authURL); err != nil {
			c.UI.Warn(fmt.Sprintf("Could not open browser: %v", err))
		}
	}
	return 0
}

type ExchangeCommand struct {
	*base.Command

	flagRedirectURI string
	flagVerify      bool
}

func (c *ExchangeCommand) Synopsis() string {
	return "Exchange an authorization code for tokens"
}

func (c *ExchangeCommand) Help() string {
	return `Usage: hermes-connectors oauth exchange [options] <code>

  Exchanges the code returned to the redirect URI and prints the token
  response together with the ID token claims. Claims are not verified
  unless -verify is given.` +
		c.Flags().Help()
}

func (c *ExchangeCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("oauth exchange", flag.ContinueOnError))
	c.ConfigFlag(f)

	f.StringVar(
		&c.flagRedirectURI, "redirect-uri", "",
		"[OAUTH_REDIRECT_URI] Redirect URI the code was issued for.",
	)
	f.BoolVar(
		&c.flagVerify, "verify", false,
		"Verify the ID token against the issuer's published keys.",
	)

	return f
}

func (c *ExchangeCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one authorization code is required")
		return 1
	}

	client, ok := newClient(c.Command)
	if !ok {
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	resp, err := client.ExchangeCode(ctx, f.Arg(0), c.flagRedirectURI)
	if err != nil {
		return c.Fail("error exchanging code", err)
	}
	if !resp.OK() {
		c.UI.Error(fmt.Sprintf("token endpoint returned status %d", resp.StatusCode))
		c.Output(resp.Body)
		return 1
	}

	out := map[string]any{"token": resp.Body}
	tok, err := oauth.Token(resp)
	if err != nil {
		return c.Fail("error reading token response", err)
	}

	if c.flagVerify {
		raw, _ := tok.Extra("id_token").(string)
		claims, err := client.VerifyIDToken(ctx, raw)
		if err != nil {
			return c.Fail("error verifying ID token", err)
		}
		out["id_token_claims"] = claims
	} else if claims, err := oauth.IDTokenClaims(tok); err == nil {
		out["id_token_claims"] = claims
	}
	return c.Output(out)
}

type UserInfoCommand struct {
	*base.Command
}

func (c *UserInfoCommand) Synopsis() string {
	return "Show the user behind an access token"
}

func (c *UserInfoCommand) Help() string {
	return `Usage: hermes-connectors oauth userinfo [options] <access-token>

  Prints the user info endpoint response for the access token.` +
		c.Flags().Help()
}

func (c *UserInfoCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("oauth userinfo", flag.ContinueOnError))
	c.ConfigFlag(f)
	return f
}

func (c *UserInfoCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one access token is required")
		return 1
	}

	client, ok := newClient(c.Command)
	if !ok {
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	resp, err := client.UserInfo(ctx, f.Arg(0))
	if err != nil {
		return c.Fail("error fetching user info", err)
	}
	if code := c.Output(resp.Body); code != 0 || !resp.OK() {
		return 1
	}
	return 0
}

func newClient(c *base.Command) (*oauth.Client, bool) {
	hub, err := c.Hub()
	if err != nil {
		c.Fail("error loading config", err)
		return nil, false
	}
	client, err := hub.OAuth()
	if err != nil {
		c.Fail("error creating OAuth client", err)
		return nil, false
	}
	return client, true
}
