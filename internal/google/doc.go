// Package google handles OAuth2 authorization for read-only Gmail access.
//
// Tokens are stored per account as JSON files under the user cache
// directory (inboxdigest/google-<account>.token) and refreshed tokens are
// written back. The OAuth client ID and secret come from flags or the
// GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables.
package google
