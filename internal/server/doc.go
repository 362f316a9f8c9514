// Package server provides the MCP server context and the auxiliary HTTP
// servers of the inboxdigest application.
//
// ServerContext owns the newsletter extractor and lazily creates one Gmail
// client per account from a google.TokenProvider. Tools receive it instead
// of global state, so tests can inject clients pointing at a fake API.
//
// MetricsServer exposes the Prometheus registry of an instrumentation
// provider on a dedicated port together with the health endpoints of a
// HealthChecker.
package server
