// Package oauth protects the streamable HTTP transport with Google OAuth
// bearer tokens.
//
// Clients present a Google access token carrying the read-only Gmail scope.
// The token is validated against Google's userinfo endpoint, the caller is
// put into the request context the way github.com/giantswarm/mcp-oauth
// does, and the token is kept in an mcp-oauth token store so Gmail tools
// read the caller's own mailbox.
//
// The protected resource metadata endpoint (RFC 9728) tells MCP clients
// that Google is the authorization server.
package oauth
