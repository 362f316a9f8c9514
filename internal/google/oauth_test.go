package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// useTempCache points the token directory at a fresh temporary directory.
func useTempCache(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	return filepath.Join(dir, cacheSubdir)
}

// newTokenServer serves the OAuth token endpoint and counts requests.
func newTokenServer(t *testing.T, accessToken string) (*oauth2.Config, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		RedirectURL:  DefaultRedirectURL,
		Scopes:       DefaultOAuthScopes,
	}, &calls
}

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountName(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccountName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetTokenFilePath(t *testing.T) {
	dir := useTempCache(t)

	assert.Equal(t, filepath.Join(dir, "google-default.token"), getTokenFilePath("default"))
	assert.Equal(t, filepath.Join(dir, "google-work.token"), getTokenFilePath("work"))
}

func TestNewOAuthConfig(t *testing.T) {
	t.Setenv(EnvClientID, "")
	t.Setenv(EnvClientSecret, "")

	_, err := NewOAuthConfig("", "")
	assert.ErrorIs(t, err, ErrMissingClientCredentials)

	t.Setenv(EnvClientID, "env-id")
	t.Setenv(EnvClientSecret, "env-secret")
	conf, err := NewOAuthConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "env-id", conf.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/gmail.readonly"}, conf.Scopes)

	conf, err = NewOAuthConfig("flag-id", "flag-secret")
	require.NoError(t, err)
	assert.Equal(t, "flag-id", conf.ClientID)
	assert.Equal(t, "flag-secret", conf.ClientSecret)
}

func TestGetAuthURL(t *testing.T) {
	conf, _ := newTokenServer(t, "unused")

	u := GetAuthURL(conf, "work")

	assert.True(t, strings.HasPrefix(u, conf.Endpoint.AuthURL))
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "client_id=client")
	assert.Contains(t, u, "state=inboxdigest-work")
}

func TestSaveTokenAndHasToken(t *testing.T) {
	dir := useTempCache(t)
	conf, calls := newTokenServer(t, "access-1")
	ctx := context.Background()

	assert.False(t, HasTokenForAccount("work"))

	require.NoError(t, SaveToken(ctx, conf, "work", "  the-code "))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.True(t, HasTokenForAccount("work"))

	info, err := os.Stat(filepath.Join(dir, "google-work.token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveTokenValidation(t *testing.T) {
	useTempCache(t)
	conf, calls := newTokenServer(t, "access-1")
	ctx := context.Background()

	assert.Error(t, SaveToken(ctx, conf, "bad name", "code"))
	assert.Error(t, SaveToken(ctx, conf, "work", "   "))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestHasTokenForAccount_InvalidNames(t *testing.T) {
	useTempCache(t)
	assert.False(t, HasTokenForAccount("invalid account"))
	assert.False(t, HasTokenForAccount(""))
}

func TestGetTokenSourceForAccount_NoToken(t *testing.T) {
	useTempCache(t)
	conf, _ := newTokenServer(t, "unused")

	_, err := GetTokenSourceForAccount(context.Background(), conf, DefaultAccount)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGetTokenSourceForAccount_InvalidFile(t *testing.T) {
	dir := useTempCache(t)
	conf, _ := newTokenServer(t, "unused")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "google-default.token"), []byte("not json"), 0o600))

	_, err := GetTokenSourceForAccount(context.Background(), conf, DefaultAccount)
	assert.ErrorContains(t, err, "invalid token file")
}

func TestTokenSource_ValidTokenIsNotRefreshed(t *testing.T) {
	useTempCache(t)
	conf, calls := newTokenServer(t, "refreshed")
	require.NoError(t, writeToken("work", &oauth2.Token{
		AccessToken:  "still-valid",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))

	ts, err := GetTokenSourceForAccount(context.Background(), conf, "work")
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)

	assert.Equal(t, "still-valid", tok.AccessToken)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestTokenSource_RefreshIsPersisted(t *testing.T) {
	useTempCache(t)
	conf, calls := newTokenServer(t, "refreshed")
	require.NoError(t, writeToken("work", &oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	ts, err := GetTokenSourceForAccount(context.Background(), conf, "work")
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok.AccessToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	stored, err := readToken("work")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.AccessToken)
}

func TestGetHTTPClientForAccount(t *testing.T) {
	useTempCache(t)
	conf, _ := newTokenServer(t, "unused")
	require.NoError(t, writeToken(DefaultAccount, &oauth2.Token{
		AccessToken: "abc",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}))

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer api.Close()

	client, err := GetHTTPClientForAccount(context.Background(), conf, DefaultAccount)
	require.NoError(t, err)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestFileTokenProvider(t *testing.T) {
	useTempCache(t)
	conf, _ := newTokenServer(t, "unused")
	p := NewFileTokenProvider(conf)

	assert.False(t, p.HasTokenForAccount("work"))
	_, err := p.HTTPClientForAccount(context.Background(), "work")
	assert.ErrorIs(t, err, ErrNoToken)

	var _ TokenProvider = p
	var _ Authorizer = p
}

func TestFileTokenProvider_Authorize(t *testing.T) {
	useTempCache(t)
	conf, calls := newTokenServer(t, "access-2")
	p := NewFileTokenProvider(conf)

	assert.Contains(t, p.AuthURL("work"), "state=inboxdigest-work")
	require.NoError(t, p.SaveToken(context.Background(), "work", "code"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.True(t, p.HasTokenForAccount("work"))
}

func TestGetAuthenticationErrorMessage(t *testing.T) {
	for _, account := range []string{"default", "work", "personal"} {
		t.Run(account, func(t *testing.T) {
			msg := GetAuthenticationErrorMessage(account)
			assert.Contains(t, msg, account)
			assert.Contains(t, msg, "OAuth")
			assert.Contains(t, msg, "inboxdigest auth")
		})
	}
}
