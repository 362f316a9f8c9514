package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdigest/internal/google"
	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/oauth"
	"github.com/teemow/inboxdigest/internal/server"
	"github.com/teemow/inboxdigest/internal/tools/google_tools"
	"github.com/teemow/inboxdigest/internal/tools/newsletter_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	transport          string
	httpAddr           string
	disableStreaming   bool
	baseURL            string
	reportDir          string
	googleClientID     string
	googleClientSecret string
	metrics            MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide newsletter
classification, story extraction and digest tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Gmail access uses tokens stored by "inboxdigest auth" or the
google_save_auth_code tool. Token refresh needs the OAuth client:
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
Without them only the classify and extract tools are usable.

The streamable-http transport serves only loopback addresses unless
--base-url (or MCP_BASE_URL) is set. With a base URL every request to /mcp
needs a Google bearer token with read-only Gmail access, and Gmail tools
read the mailbox of the authenticated caller.

Reports saved by newsletter_digest are confined to --report-dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadMetricsEnv(cmd, &opts.metrics)
			loadServeEnv(cmd, &opts)
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "127.0.0.1:8080", "HTTP server address (for streamable-http transport). Non-loopback addresses require --base-url.")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Answer streamable-http requests with plain JSON instead of SSE")
	cmd.Flags().StringVar(&opts.googleClientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.googleClientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL; enables Google OAuth on the HTTP transport. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "reports", "Directory newsletter_digest saves reports in; empty disables saving. Can also use REPORT_DIR env var.")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadMetricsEnv applies METRICS_ENABLED and METRICS_ADDR for flags that
// were not set explicitly.
func loadMetricsEnv(cmd *cobra.Command, config *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				config.Enabled = enabled
			} else {
				logger.Warn("invalid METRICS_ENABLED value, keeping default", "value", v)
			}
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Addr = addr
		}
	}
}

// loadServeEnv applies MCP_BASE_URL and REPORT_DIR for flags that were
// not set explicitly.
func loadServeEnv(cmd *cobra.Command, opts *serveOptions) {
	if !cmd.Flags().Changed("base-url") {
		if v := os.Getenv("MCP_BASE_URL"); v != "" {
			opts.baseURL = v
		}
	}
	if !cmd.Flags().Changed("report-dir") {
		if v, ok := os.LookupEnv("REPORT_DIR"); ok {
			opts.reportDir = v
		}
	}
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", opts.transport, transportStdio, transportStreamableHTTP)
	}

	var oauthHandler *oauth.Handler
	if opts.transport == transportStreamableHTTP {
		if err := oauth.CheckListenAddr(opts.httpAddr, opts.baseURL != ""); err != nil {
			return err
		}
		if opts.baseURL != "" {
			h, err := oauth.NewHandler(oauth.Config{Resource: opts.baseURL, Logger: logger})
			if err != nil {
				return fmt.Errorf("failed to create OAuth handler: %w", err)
			}
			defer h.Stop()
			oauthHandler = h
		}
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext, err := newServerContext(shutdownCtx, opts, provider, oauthHandler)
	if err != nil {
		return err
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxdigest", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	health := server.NewHealthChecker(serverContext)

	// stdout belongs to the protocol in stdio mode.
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.Enabled() && instrConfig.MetricsExporter == instrumentation.ExporterPrometheus {
		metricsServer, err := startMetricsServer(opts.metrics.Addr, provider, health)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	health.SetReady(true)

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		logger.Info("starting inboxdigest MCP server", "transport", opts.transport, "addr", opts.httpAddr, "oauth", oauthHandler != nil)
		return runStreamableHTTPServer(shutdownCtx, server.NewHTTPServer(mcpSrv, serverContext, server.HTTPServerConfig{
			Addr:             opts.httpAddr,
			DisableStreaming: opts.disableStreaming,
			Health:           health,
			OAuth:            oauthHandler,
		}))
	}
}

// newServerContext wires the extractor, the token store and the market
// quoter. Missing OAuth client credentials leave Gmail tools unavailable.
// With an OAuth handler Gmail uses the callers' bearer tokens and the
// token-saving tools are not offered.
func newServerContext(ctx context.Context, opts serveOptions, provider *instrumentation.Provider, oauthHandler *oauth.Handler) (*server.ServerContext, error) {
	extractor, err := loadExtractor()
	if err != nil {
		return nil, err
	}

	config := server.Config{
		Extractor: extractor,
		Metrics:   provider.Metrics(),
		Logger:    logger,
		Quoter:    market.NewYahooQuoter(market.WithLogger(logging.FromSlog(logging.WithService(logger, instrumentation.ServiceMarket)))),
		ReportDir: opts.reportDir,
	}

	if oauthHandler != nil {
		config.Tokens = oauth.NewTokenProvider(oauthHandler.Store())
		config.RequireUser = true
		return newContext(ctx, config)
	}

	conf, err := google.NewOAuthConfig(opts.googleClientID, opts.googleClientSecret)
	switch {
	case err == nil:
		tokens := google.NewFileTokenProvider(conf)
		config.Tokens = tokens
		config.Auth = tokens
	case errors.Is(err, google.ErrMissingClientCredentials):
		logger.Warn("Google OAuth client not configured, Gmail tools are disabled")
	default:
		return nil, err
	}

	return newContext(ctx, config)
}

func newContext(ctx context.Context, config server.Config) (*server.ServerContext, error) {
	serverContext, err := server.NewServerContext(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return serverContext, nil
}

// registerAllTools registers all MCP tool groups.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{name: "Newsletter", register: func() error { return newsletter_tools.RegisterNewsletterTools(mcpSrv, sc) }},
		{name: "Google", register: func() error { return google_tools.RegisterGoogleTools(mcpSrv, sc) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	ready := make(chan string, 1)
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case bound := <-ready:
		logger.Info("metrics server started", "addr", bound)
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, srv *server.HTTPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
