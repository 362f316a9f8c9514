package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/teemow/inboxdigest/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// InstrumentationProvider provides the Prometheus metrics handler.
	InstrumentationProvider *instrumentation.Provider

	// Health adds /healthz, /readyz and /healthz/detailed. A nil checker
	// serves a plain liveness endpoint.
	Health *HealthChecker
}

// MetricsServer serves Prometheus metrics on a dedicated port, separate from
// the MCP transport.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
}

// NewMetricsServer creates a metrics server. The provider must be enabled
// and use the Prometheus exporter.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}

	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}

	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	metrics := config.InstrumentationProvider.PrometheusHandler()
	if metrics == nil {
		return nil, fmt.Errorf("instrumentation provider does not export prometheus metrics")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics)
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	} else {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	}

	return &MetricsServer{
		addr: config.Addr,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: DefaultMetricsReadTimeout,
			WriteTimeout:      DefaultMetricsWriteTimeout,
			IdleTimeout:       DefaultMetricsIdleTimeout,
		},
	}, nil
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal is Start, but sends the bound address on ready once
// the listener is open. This resolves ":0" to the actual port.
func (s *MetricsServer) StartWithReadySignal(ready chan<- string) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	slog.Info("starting metrics server", "addr", s.addr)
	if ready != nil {
		ready <- s.addr
	}

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	slog.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address. After start it is the bound address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Handler returns the HTTP handler of the server.
func (s *MetricsServer) Handler() http.Handler {
	return s.httpServer.Handler
}
