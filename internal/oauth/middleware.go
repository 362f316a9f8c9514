package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

// Google access tokens live for an hour; the exact expiry is not sent with
// the bearer token.
const accessTokenLifetime = time.Hour

// ErrTokenRejected is returned when Google does not accept a bearer token.
var ErrTokenRejected = errors.New("token rejected by Google")

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ValidateGoogleToken requires a Google bearer token. On success the
// caller is added to the request context and the token is saved under the
// caller's email.
func (h *Handler) ValidateGoogleToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.challenge(w, "missing_token", "Missing Authorization header")
			return
		}

		scheme, accessToken, ok := strings.Cut(authHeader, " ")
		accessToken = strings.TrimSpace(accessToken)
		if !ok || !strings.EqualFold(scheme, "bearer") || accessToken == "" {
			h.challenge(w, "invalid_token", "Invalid Authorization header format")
			return
		}

		token := &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			Expiry:      time.Now().Add(accessTokenLifetime),
		}
		info, err := h.userInfo(r.Context(), token)
		if err != nil {
			h.config.Logger.Debug("bearer token rejected", logging.Err(err))
			h.challenge(w, "invalid_token", "Google token is invalid or expired. Re-authenticate through your MCP client.")
			return
		}

		if err := h.store.SaveToken(r.Context(), info.Email, token); err != nil {
			h.config.Logger.Warn("failed to store Google token",
				logging.SenderDomain(newsletter.SenderDomain(info.Email)), logging.Err(err))
		}

		ctx := mcpoauth.ContextWithUserInfo(r.Context(), &providers.UserInfo{
			Email: info.Email,
			Name:  info.Name,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) userInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.config.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", ErrTokenRejected, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("%w: no email in user info, request the email scope", ErrTokenRejected)
	}
	return &info, nil
}

// UserFromContext returns the authenticated caller of the request.
func UserFromContext(ctx context.Context) (*providers.UserInfo, bool) {
	info, ok := mcpoauth.UserInfoFromContext(ctx)
	if !ok || info == nil || info.Email == "" {
		return nil, false
	}
	return info, true
}
