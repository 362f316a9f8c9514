package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxdigest/internal/newsletter"
	"github.com/teemow/inboxdigest/internal/oauth"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`

func TestHTTPServer_ServesMCPAndRecordsRequests(t *testing.T) {
	provider := createTestProvider(t)
	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	sc, err := NewServerContext(context.Background(), Config{Extractor: e, Metrics: provider.Metrics()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv := mcpserver.NewMCPServer("inboxdigest-test", "1.0.0", mcpserver.WithToolCapabilities(true))
	srv := NewHTTPServer(mcpSrv, sc, HTTPServerConfig{
		Addr:             ":0",
		DisableStreaming: true,
		Health:           NewHealthChecker(sc),
	})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+MCPEndpointPath, strings.NewReader(initializeRequest))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "inboxdigest-test")

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `path="/mcp"`)
}

func TestHTTPServer_WithoutHealth(t *testing.T) {
	sc := newTestServerContext(t)
	mcpSrv := mcpserver.NewMCPServer("inboxdigest-test", "1.0.0")
	srv := NewHTTPServer(mcpSrv, sc, HTTPServerConfig{Addr: ":0"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_OAuthProtectsMCP(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"email":"jane@example.com"}`))
	}))
	defer userinfo.Close()

	handler, err := oauth.NewHandler(oauth.Config{Resource: "http://localhost:8080", UserInfoURL: userinfo.URL})
	require.NoError(t, err)
	defer handler.Stop()

	sc := newTestServerContext(t)
	mcpSrv := mcpserver.NewMCPServer("inboxdigest-test", "1.0.0", mcpserver.WithToolCapabilities(true))
	srv := NewHTTPServer(mcpSrv, sc, HTTPServerConfig{Addr: ":0", DisableStreaming: true, OAuth: handler})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	post := func(token string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, ts.URL+MCPEndpointPath, strings.NewReader(initializeRequest))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp
	}

	resp := post("")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), oauth.ProtectedResourceMetadataPath)

	assert.Equal(t, http.StatusUnauthorized, post("bad").StatusCode)
	assert.Equal(t, http.StatusOK, post("good").StatusCode)

	md, err := http.Get(ts.URL + oauth.ProtectedResourceMetadataPath)
	require.NoError(t, err)
	_ = md.Body.Close()
	assert.Equal(t, http.StatusOK, md.StatusCode)
}
