package oauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"
)

// TokenProvider hands out Gmail clients backed by the bearer tokens saved
// by ValidateGoogleToken. Accounts are the callers' email addresses.
type TokenProvider struct {
	store storage.TokenStore
}

// NewTokenProvider creates a token provider reading from store.
func NewTokenProvider(store storage.TokenStore) *TokenProvider {
	return &TokenProvider{store: store}
}

// HTTPClientForAccount returns a client that always sends the most recent
// token presented by account, so cached Gmail clients follow token renewal
// done by the MCP client.
func (p *TokenProvider) HTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	if _, err := p.store.GetToken(ctx, account); err != nil {
		return nil, fmt.Errorf("no Google token for %s, authenticate through your MCP client: %w", account, err)
	}
	// oauth2.Transport asks the source on every request, unlike
	// oauth2.NewClient which caches tokens without an expiry forever.
	return &http.Client{Transport: &oauth2.Transport{
		Source: &storeTokenSource{ctx: ctx, store: p.store, account: account},
	}}, nil
}

// HasTokenForAccount reports whether account presented a token.
func (p *TokenProvider) HasTokenForAccount(account string) bool {
	_, err := p.store.GetToken(context.Background(), account)
	return err == nil
}

type storeTokenSource struct {
	ctx     context.Context
	store   storage.TokenStore
	account string
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	return s.store.GetToken(s.ctx, s.account)
}
