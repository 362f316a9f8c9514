package newsletter_tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxdigest/internal/gmail"
	"github.com/teemow/inboxdigest/internal/newsletter"
	"github.com/teemow/inboxdigest/internal/server"
	"github.com/teemow/inboxdigest/internal/tools/batch"
	"github.com/teemow/inboxdigest/internal/tools/common"
)

func handleClassify(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	sender := common.GetStringArg(args, "sender", "")
	if sender == "" {
		return mcp.NewToolResultError("sender is required"), nil
	}

	msg := newsletter.RawMessage{
		Sender:  sender,
		Subject: common.GetStringArg(args, "subject", ""),
	}
	headers := common.GetStringMapArg(args, "headers")
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		msg.Headers = append(msg.Headers, newsletter.Header{Name: name, Value: headers[name]})
	}

	return jsonResult(sc.Extractor().Classify(msg))
}

func handleExtractStories(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := common.GetStringArg(args, "body", "")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	res := sc.Extractor().Extract(newsletter.RawMessage{
		Sender:  common.GetStringArg(args, "sender", ""),
		Subject: common.GetStringArg(args, "subject", ""),
		Body:    body,
	})
	return jsonResult(res)
}

// fetchedStories is the per-message result of newsletter_fetch_stories.
type fetchedStories struct {
	Sender         string                    `json:"sender"`
	Subject        string                    `json:"subject"`
	Date           string                    `json:"date"`
	Classification newsletter.Classification `json:"classification"`
	newsletter.Result
}

func handleFetchStories(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	account, err := sc.ResolveAccount(ctx, common.GetStringArg(args, "account", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (any, error) {
		msg, err := client.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		raw := gmail.ToRawMessage(msg)
		return fetchedStories{
			Sender:         raw.Sender,
			Subject:        raw.Subject,
			Date:           raw.Date,
			Classification: sc.Extractor().Classify(raw),
			Result:         sc.Extractor().Extract(raw),
		}, nil
	})

	out, err := batch.FormatResults(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}
