package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdigest/internal/oauth"
)

// MCPEndpointPath is where the streamable HTTP transport is served.
const MCPEndpointPath = "/mcp"

// HTTPServer serves the MCP streamable HTTP transport together with the
// health endpoints.
type HTTPServer struct {
	httpServer *http.Server
}

// HTTPServerConfig holds configuration for the MCP HTTP server.
type HTTPServerConfig struct {
	Addr string
	// DisableStreaming answers with plain JSON instead of SSE streams.
	DisableStreaming bool
	// Health is optional; a nil checker registers no health endpoints.
	Health *HealthChecker
	// OAuth requires Google bearer tokens on the MCP endpoint. Without it
	// the server must only listen on loopback addresses.
	OAuth *oauth.Handler
}

// NewHTTPServer wraps mcpSrv in an HTTP server. Requests to the MCP
// endpoint are recorded through the metrics of sc.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) *HTTPServer {
	opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpointPath)}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv, opts...)

	var mcpHandler http.Handler = streamable
	mux := http.NewServeMux()
	if config.OAuth != nil {
		config.OAuth.RegisterEndpoints(mux)
		mcpHandler = config.OAuth.Protect(streamable)
	}
	mux.Handle(MCPEndpointPath, instrumentHTTP(sc, MCPEndpointPath, mcpHandler))
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start listens and serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	slog.Info("starting MCP HTTP server", "addr", s.httpServer.Addr, "endpoint", MCPEndpointPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func instrumentHTTP(sc *ServerContext, path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}
