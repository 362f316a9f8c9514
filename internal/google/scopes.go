package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the scopes requested during authorization.
// Digests only read mail, so nothing beyond read-only Gmail access is needed.
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
}
