package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenProvider supplies authorized HTTP clients per account.
// This abstraction lets the server build Gmail clients without knowing where
// tokens are stored.
type TokenProvider interface {
	// HTTPClientForAccount returns a client authorized as account.
	HTTPClientForAccount(ctx context.Context, account string) (*http.Client, error)

	// HasTokenForAccount checks if a token exists for the specified account.
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides clients backed by token files in the user cache
// directory.
type FileTokenProvider struct {
	config *oauth2.Config
}

// NewFileTokenProvider creates a new file-based token provider.
func NewFileTokenProvider(config *oauth2.Config) *FileTokenProvider {
	return &FileTokenProvider{config: config}
}

// HTTPClientForAccount returns a client using the stored token of account.
func (p *FileTokenProvider) HTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	return GetHTTPClientForAccount(ctx, p.config, account)
}

// HasTokenForAccount checks if a token file exists for the specified account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// Authorizer completes the OAuth consent flow for an account.
type Authorizer interface {
	// AuthURL returns the consent URL for account.
	AuthURL(account string) string

	// SaveToken exchanges authCode and stores the token of account.
	SaveToken(ctx context.Context, account, authCode string) error
}

// AuthURL returns the consent URL for account.
func (p *FileTokenProvider) AuthURL(account string) string {
	return GetAuthURL(p.config, account)
}

// SaveToken exchanges authCode and writes the token file of account.
func (p *FileTokenProvider) SaveToken(ctx context.Context, account, authCode string) error {
	return SaveToken(ctx, p.config, account, authCode)
}
