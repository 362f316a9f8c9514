// Package newsletter_tools provides the MCP tools of inboxdigest.
//
//   - newsletter_classify decides whether a message is a newsletter.
//   - newsletter_extract_stories segments a single body into stories.
//   - newsletter_fetch_stories extracts stories from Gmail messages by ID.
//   - newsletter_digest runs the full pipeline over a Gmail account and
//     returns the Markdown report.
package newsletter_tools
