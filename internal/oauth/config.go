package oauth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/time/rate"

	"github.com/teemow/inboxdigest/internal/google"
)

const (
	// GoogleIssuer is the authorization server advertised to clients.
	GoogleIssuer = "https://accounts.google.com"

	// DefaultUserInfoURL validates access tokens.
	DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	// ProtectedResourceMetadataPath is the RFC 9728 discovery path.
	ProtectedResourceMetadataPath = "/.well-known/oauth-protected-resource"

	defaultRateLimit = 10
	defaultRateBurst = 20
)

// Config holds the settings of a Handler.
type Config struct {
	// Resource is the public base URL of the server, e.g.
	// "https://mcp.example.com". Plain http is only accepted for loopback
	// hosts.
	Resource string

	// Scopes advertised in the resource metadata. Defaults to the read-only
	// Gmail scope plus the email scope userinfo needs.
	Scopes []string

	// UserInfoURL overrides the token validation endpoint.
	UserInfoURL string

	// Store keeps validated tokens per user. A memory store is created and
	// owned by the handler when nil.
	Store storage.TokenStore

	// RateLimit and RateBurst limit requests per client IP.
	RateLimit rate.Limit
	RateBurst int

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	c.Resource = strings.TrimRight(c.Resource, "/")
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string{"openid", "email"}, google.DefaultOAuthScopes...)
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = DefaultUserInfoURL
	}
	if c.RateLimit == 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.RateBurst == 0 {
		c.RateBurst = defaultRateBurst
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ValidateResource ensures the base URL is https, or http on a loopback
// host.
func ValidateResource(baseURL string) error {
	if baseURL == "" {
		return errors.New("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopbackHost(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("OAuth requires HTTPS outside of localhost (got: %s)", baseURL)
	default:
		return fmt.Errorf("invalid URL scheme: %q. Must be http (localhost only) or https", u.Scheme)
	}
}
