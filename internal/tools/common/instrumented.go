package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, invocation
// metrics and a debug log line.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := GetAccountFromArgs(request.GetArguments())
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().WithAccount(account).Build()...)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, errors.New(resultText(result)))
		default:
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		logging.WithTool(sc.Logger(), toolName).Debug("tool invoked",
			logging.Status(status),
			"duration", duration,
			"trace_id", instrumentation.GetTraceID(ctx))

		return result, err
	}
}

// resultText returns the first text content of a result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			return t.Text
		}
	}
	return "tool returned an error result"
}
