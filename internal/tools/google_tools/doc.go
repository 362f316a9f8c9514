// Package google_tools provides the MCP tools that authorize Gmail access
// for an account: fetching the consent URL and saving the returned code.
package google_tools
