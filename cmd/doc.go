// Package cmd implements the command-line interface for inboxdigest.
//
// This package provides the following commands:
//   - digest: Collect newsletters from Gmail or an mbox file and write a Markdown news report
//   - extract: Segment a single HTML or plain-text body into stories
//   - classify: Decide whether a message is a newsletter
//   - auth: Authorize a Google account for read-only Gmail access
//   - serve: Start the MCP server to provide newsletter tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
