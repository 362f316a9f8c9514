package newsletter_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdigest/internal/server"
	"github.com/teemow/inboxdigest/internal/tools/common"
)

const (
	ToolClassify       = "newsletter_classify"
	ToolExtractStories = "newsletter_extract_stories"
	ToolFetchStories   = "newsletter_fetch_stories"
	ToolDigest         = "newsletter_digest"
)

// RegisterNewsletterTools registers all newsletter tools with the MCP server.
func RegisterNewsletterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	add := func(tool mcp.Tool, h func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(tool.Name, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return h(ctx, request, sc)
			})))
	}

	add(mcp.NewTool(ToolClassify,
		mcp.WithDescription("Decide whether a message is a newsletter rather than promotional mail, and report which rule decided"),
		mcp.WithString("sender", mcp.Required(), mcp.Description("From header, e.g. 'Morning Brew <crew@morningbrew.com>'")),
		mcp.WithString("subject", mcp.Description("Subject header")),
		mcp.WithObject("headers", mcp.Description("Additional headers as name/value pairs, e.g. {\"List-ID\": \"<x.example.com>\"}")),
		mcp.WithReadOnlyHintAnnotation(true),
	), handleClassify)

	add(mcp.NewTool(ToolExtractStories,
		mcp.WithDescription("Segment an HTML or plain-text newsletter body into at most five stories with title, summary and company"),
		mcp.WithString("body", mcp.Required(), mcp.Description("Raw HTML or plain-text body")),
		mcp.WithString("sender", mcp.Description("From header; selects the vendor parser when it contains the vendor marker")),
		mcp.WithString("subject", mcp.Description("Subject header, used as the fallback story title")),
		mcp.WithReadOnlyHintAnnotation(true),
	), handleExtractStories)

	add(mcp.NewTool(ToolFetchStories,
		mcp.WithDescription("Fetch Gmail messages by ID and extract their stories"),
		mcp.WithString("account", mcp.Description("Account name (default: 'default'). Over authenticated HTTP only the caller's own mailbox can be read.")),
		mcp.WithString("messageIds", mcp.Required(), mcp.Description("Message ID (string) or array of message IDs")),
		mcp.WithReadOnlyHintAnnotation(true),
	), handleFetchStories)

	add(mcp.NewTool(ToolDigest,
		mcp.WithDescription("Search a Gmail account for recent newsletters, extract their stories and return a Markdown news report"),
		mcp.WithString("account", mcp.Description("Account name (default: 'default'). Over authenticated HTTP only the caller's own mailbox can be read.")),
		mcp.WithString("window", mcp.Description("Search window in Gmail newer_than syntax (default: '1d')")),
		mcp.WithBoolean("market", mcp.Description("Look up stock prices for companies with a known ticker (default: false)")),
		mcp.WithString("output", mcp.Description("Optional file name to also save the report under, relative to the server's report directory; '.md' is appended when missing")),
		mcp.WithReadOnlyHintAnnotation(false),
	), handleDigest)

	return nil
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
