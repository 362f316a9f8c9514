package server

import (
	"context"
	"net/http"
	"testing"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxdigest/internal/gmail"
	"github.com/teemow/inboxdigest/internal/google"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

type fakeTokens struct {
	accounts map[string]bool
	calls    int
}

func (f *fakeTokens) HTTPClientForAccount(context.Context, string) (*http.Client, error) {
	f.calls++
	return http.DefaultClient, nil
}

func (f *fakeTokens) HasTokenForAccount(account string) bool {
	return f.accounts[account]
}

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	sc, err := NewServerContext(context.Background(), Config{Extractor: e})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext(t *testing.T) {
	_, err := NewServerContext(context.Background(), Config{})
	assert.Error(t, err)

	sc := newTestServerContext(t)
	assert.NotNil(t, sc.Extractor())
	assert.NotNil(t, sc.Metrics())
	assert.NotNil(t, sc.Logger())
	assert.Equal(t, market.NoDataQuoter{}, sc.Quoter())
}

func TestServerContext_GmailClientForAccount(t *testing.T) {
	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	tokens := &fakeTokens{accounts: map[string]bool{"default": true}}
	sc, err := NewServerContext(context.Background(), Config{Extractor: e, Tokens: tokens})
	require.NoError(t, err)

	client, err := sc.GmailClientForAccount("")
	require.NoError(t, err)
	assert.Equal(t, "default", client.Account())

	again, err := sc.GmailClientForAccount("default")
	require.NoError(t, err)
	assert.Same(t, client, again)
	assert.Equal(t, 1, tokens.calls)

	_, err = sc.GmailClientForAccount("work")
	assert.ErrorIs(t, err, google.ErrNoToken)

	injected, err := gmail.NewClient(context.Background(), http.DefaultClient, "work")
	require.NoError(t, err)
	sc.SetGmailClientForAccount("work", injected)
	got, err := sc.GmailClientForAccount("work")
	require.NoError(t, err)
	assert.Same(t, injected, got)

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)
	_, err = sc.GmailClientForAccount("default")
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestServerContext_ResolveAccount(t *testing.T) {
	sc := newTestServerContext(t)

	account, err := sc.ResolveAccount(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, google.DefaultAccount, account)

	account, err = sc.ResolveAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "work", account)

	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	authed, err := NewServerContext(context.Background(), Config{Extractor: e, RequireUser: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = authed.Shutdown() })

	_, err = authed.ResolveAccount(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ctx := mcpoauth.ContextWithUserInfo(context.Background(), &providers.UserInfo{Email: "jane@example.com"})
	for _, requested := range []string{"", google.DefaultAccount, "Jane@Example.com"} {
		account, err = authed.ResolveAccount(ctx, requested)
		require.NoError(t, err, requested)
		assert.Equal(t, "jane@example.com", account)
	}

	_, err = authed.ResolveAccount(ctx, "bob@example.com")
	assert.Error(t, err)
}

func TestServerContext_ReportDir(t *testing.T) {
	_, err := newTestServerContext(t).ReportDir()
	assert.ErrorIs(t, err, ErrReportsDisabled)

	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	sc, err := NewServerContext(context.Background(), Config{Extractor: e, ReportDir: "reports"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	dir, err := sc.ReportDir()
	require.NoError(t, err)
	assert.Equal(t, "reports", dir)
}
