package common

import (
	"github.com/teemow/inboxdigest/internal/google"
)

// GetAccountFromArgs returns the "account" argument, or "default".
func GetAccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return google.DefaultAccount
}

// GetStringArg returns a string argument, or def when it is missing or not
// a string.
func GetStringArg(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

// GetStringMapArg returns an object argument whose values are strings.
// Non-string values are skipped.
func GetStringMapArg(args map[string]interface{}, key string) map[string]string {
	raw, ok := args[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
