package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoAccessToken is returned by Token when a response carries no token.
var ErrNoAccessToken = errors.New("response has no access_token")

// NewState returns a random value for the state parameter of AuthorizeURL.
func NewState() string {
	return uuid.NewString()
}

// Token converts a successful token endpoint response into an oauth2.Token.
// Fields other than the standard ones are kept as extras (e.g., id_token).
func Token(resp *Response) (*oauth2.Token, error) {
	if !resp.OK() {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("token request failed with status %d", status)
	}
	body := resp.JSON()
	access, _ := body["access_token"].(string)
	if access == "" {
		return nil, ErrNoAccessToken
	}

	tok := &oauth2.Token{AccessToken: access}
	tok.TokenType, _ = body["token_type"].(string)
	tok.RefreshToken, _ = body["refresh_token"].(string)
	if expiresIn, ok := body["expires_in"].(float64); ok && expiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return tok.WithExtra(body), nil
}

// IDTokenClaims returns the claims of the id_token carried by tok, if any.
func IDTokenClaims(tok *oauth2.Token) (jwt.MapClaims, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, errors.New("token has no id_token")
	}
	return ParseIDToken(raw)
}

// ParseIDToken decodes the claims of an ID token without verifying its
// signature. The token must have come straight from the token endpoint over
// TLS.
func ParseIDToken(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("error parsing id token: %w", err)
	}
	return claims, nil
}

// HTTPClient returns a client that sends tok as a bearer token.
func (c *Client) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
}
