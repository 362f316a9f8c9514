package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultAccount is used when no account name is given.
	DefaultAccount = "default"

	// DefaultRedirectURL is the loopback redirect registered for desktop
	// OAuth clients. The browser lands on a page that fails to load; the
	// "code" query parameter of that URL is what the auth command expects.
	DefaultRedirectURL = "http://localhost"

	// EnvClientID and EnvClientSecret hold the OAuth client credentials.
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"

	cacheSubdir = "inboxdigest"
)

var (
	// ErrNoToken is returned when no token is stored for an account.
	ErrNoToken = errors.New("no Google OAuth token found")

	// ErrMissingClientCredentials is returned when the OAuth client ID or
	// secret is not configured.
	ErrMissingClientCredentials = errors.New("google OAuth client credentials are not configured (set " + EnvClientID + " and " + EnvClientSecret + ")")

	accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// NewOAuthConfig returns the OAuth2 configuration for read-only Gmail
// access. Empty arguments fall back to the GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET environment variables.
func NewOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID == "" {
		clientID = os.Getenv(EnvClientID)
	}
	if clientSecret == "" {
		clientSecret = os.Getenv(EnvClientSecret)
	}
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingClientCredentials
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  DefaultRedirectURL,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// GetAuthURL returns the URL the user visits to authorize account.
func GetAuthURL(conf *oauth2.Config, account string) string {
	return conf.AuthCodeURL("inboxdigest-"+account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveToken exchanges an authorization code for a token and stores it for
// account.
func SaveToken(ctx context.Context, conf *oauth2.Config, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	authCode = strings.TrimSpace(authCode)
	if authCode == "" {
		return errors.New("authorization code is required")
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return writeToken(account, t)
}

// HasTokenForAccount reports whether a token file exists for account.
func HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// GetTokenSourceForAccount returns a token source for the stored token of
// account. Refreshed tokens are written back to disk.
func GetTokenSourceForAccount(ctx context.Context, conf *oauth2.Config, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	t, err := readToken(account)
	if err != nil {
		return nil, err
	}

	return &savingTokenSource{
		account: account,
		last:    t.AccessToken,
		src:     conf.TokenSource(ctx, t),
	}, nil
}

// GetHTTPClientForAccount returns an HTTP client authorized as account.
// The client uses HTTP/1.1 to avoid HTTP/2 stream errors from the Gmail API.
func GetHTTPClientForAccount(ctx context.Context, conf *oauth2.Config, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, conf, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client, nil
}

// GetAuthenticationErrorMessage explains how to authorize account.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google OAuth token missing or invalid for account %q. "+
		"Run 'inboxdigest auth --account %s' to complete the OAuth flow.", account, account)
}

// savingTokenSource persists the token whenever the access token changes.
type savingTokenSource struct {
	account string
	src     oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.AccessToken != s.last {
		if err := writeToken(s.account, t); err != nil {
			return nil, err
		}
		s.last = t.AccessToken
	}
	return t, nil
}

func validateAccountName(account string) error {
	if account == "" {
		return errors.New("account name is required")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: use letters, digits, '-' or '_'", account)
	}
	return nil
}

func getTokenFilePath(account string) string {
	return filepath.Join(tokenDir(), "google-"+account+".token")
}

func tokenDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, cacheSubdir)
}

func readToken(account string) (*oauth2.Token, error) {
	b, err := os.ReadFile(getTokenFilePath(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %q", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var t oauth2.Token
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("invalid token file for account %q: %w", account, err)
	}
	if t.RefreshToken == "" && t.AccessToken == "" {
		return nil, fmt.Errorf("%w for account %q", ErrNoToken, account)
	}
	return &t, nil
}

func writeToken(account string, t *oauth2.Token) error {
	if err := os.MkdirAll(tokenDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(getTokenFilePath(account), b, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
