package newsletter_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxdigest/internal/digest"
	"github.com/teemow/inboxdigest/internal/gmail"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/report"
	"github.com/teemow/inboxdigest/internal/server"
	"github.com/teemow/inboxdigest/internal/tools/common"
)

func handleDigest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var reportDir, output string
	if output = strings.TrimSpace(common.GetStringArg(args, "output", "")); output != "" {
		dir, err := sc.ReportDir()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := report.LocalName(output); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		reportDir = dir
	}

	account, err := sc.ResolveAccount(ctx, common.GetStringArg(args, "account", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rules := sc.Extractor().Rules()
	src := gmail.NewSource(client, rules, common.GetStringArg(args, "window", gmail.DefaultWindow))
	logger := logging.FromSlog(logging.WithAccount(sc.Logger(), account))

	d, err := digest.NewPipeline(sc.Extractor(), logger, sc.Metrics()).Run(ctx, src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build digest for account %s: %v", account, err)), nil
	}

	opts := report.Options{Rules: rules}
	if request.GetBool("market", false) {
		opts.Quotes = market.Lookup(ctx, sc.Quoter(), report.Tickers(d, rules))
	}
	content := report.Build(d, opts)

	if output != "" {
		path, err := report.SaveIn(reportDir, output, content)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save report: %v", err)), nil
		}
		content = fmt.Sprintf("Report saved to %s\n\n%s", path, content)
	}

	return mcp.NewToolResultText(content), nil
}
