package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// VerifyIDToken checks the signature, issuer, audience and expiry of an ID
// token and returns its claims. The base URL is the issuer; its discovery
// document and keys are fetched on every call.
func (c *Client) VerifyIDToken(ctx context.Context, raw string) (map[string]any, error) {
	ctx = oidc.ClientContext(ctx, c.httpClient)

	provider, err := oidc.NewProvider(ctx, c.config.BaseURL)
	if err != nil {
		return nil, &Error{Op: "verify_id_token", Err: fmt.Errorf("error discovering issuer: %w", err)}
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: c.config.ClientID}).Verify(ctx, raw)
	if err != nil {
		return nil, &Error{Op: "verify_id_token", Err: err}
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &Error{Op: "verify_id_token", Err: fmt.Errorf("error decoding claims: %w", err)}
	}
	c.logger.Debug("verified id token", "subject", idToken.Subject)
	return claims, nil
}
