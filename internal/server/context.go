package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teemow/inboxdigest/internal/gmail"
	"github.com/teemow/inboxdigest/internal/google"
	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/newsletter"
	"github.com/teemow/inboxdigest/internal/oauth"
)

var (
	// ErrShutdown is returned once the server context has been shut down.
	ErrShutdown = errors.New("server is shutting down")

	// ErrUnauthenticated is returned when a request reaches a Gmail tool
	// without an authenticated caller while authentication is required.
	ErrUnauthenticated = errors.New("request is not authenticated")

	// ErrReportsDisabled is returned when a report should be saved but no
	// report directory is configured.
	ErrReportsDisabled = errors.New("saving reports is disabled: start the server with --report-dir")
)

// Config holds the dependencies of a ServerContext. Only Extractor is required.
type Config struct {
	Extractor *newsletter.Extractor
	Tokens    google.TokenProvider
	Auth      google.Authorizer
	Metrics   *instrumentation.Metrics
	Logger    *slog.Logger
	Quoter    market.Quoter

	// ReportDir confines reports saved by tools. Empty disables saving.
	ReportDir string

	// RequireUser binds Gmail access to the caller authenticated by the
	// OAuth middleware instead of the requested account name.
	RequireUser bool
}

// ServerContext holds the shared state of the MCP server.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	extractor    *newsletter.Extractor
	tokens       google.TokenProvider
	auth         google.Authorizer
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
	quoter       market.Quoter
	reportDir    string
	requireUser  bool
	gmailClients map[string]*gmail.Client // account name -> client
	mu           sync.RWMutex
	shutdown     bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	if cfg.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Quoter == nil {
		cfg.Quoter = market.NoDataQuoter{}
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		extractor:    cfg.Extractor,
		tokens:       cfg.Tokens,
		auth:         cfg.Auth,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		quoter:       cfg.Quoter,
		reportDir:    cfg.ReportDir,
		requireUser:  cfg.RequireUser,
		gmailClients: make(map[string]*gmail.Client),
	}, nil
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Extractor returns the newsletter extractor.
func (sc *ServerContext) Extractor() *newsletter.Extractor {
	return sc.extractor
}

// Metrics returns the metrics recorder. It is never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Authorizer returns the OAuth authorizer, or nil when none is configured.
func (sc *ServerContext) Authorizer() google.Authorizer {
	return sc.auth
}

// Quoter returns the market data quoter.
func (sc *ServerContext) Quoter() market.Quoter {
	return sc.quoter
}

// ReportDir returns the directory tools save reports in.
func (sc *ServerContext) ReportDir() (string, error) {
	if sc.reportDir == "" {
		return "", ErrReportsDisabled
	}
	return sc.reportDir, nil
}

// ResolveAccount maps the requested account to the one a tool may use.
// With RequireUser set the authenticated caller's email is returned, and
// naming any other account is an error.
func (sc *ServerContext) ResolveAccount(ctx context.Context, requested string) (string, error) {
	if !sc.requireUser {
		if requested == "" {
			return google.DefaultAccount, nil
		}
		return requested, nil
	}

	user, ok := oauth.UserFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	if requested != "" && requested != google.DefaultAccount && !strings.EqualFold(requested, user.Email) {
		return "", fmt.Errorf("account %q does not belong to the authenticated user", requested)
	}
	return user.Email, nil
}

// GmailClientForAccount returns the Gmail client for account, creating and
// caching it on first use.
func (sc *ServerContext) GmailClientForAccount(account string) (*gmail.Client, error) {
	if account == "" {
		account = google.DefaultAccount
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}
	if sc.tokens == nil || !sc.tokens.HasTokenForAccount(account) {
		return nil, fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(account), google.ErrNoToken)
	}

	client, err := gmail.NewClientForAccount(sc.ctx, sc.tokens, account)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client", logging.Account(account), logging.Err(err))
		return nil, err
	}
	client.SetMetrics(sc.metrics)

	sc.gmailClients[account] = client
	return client, nil
}

// SetGmailClientForAccount sets the Gmail client for a specific account.
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
