package google_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdigest/internal/server"
	"github.com/teemow/inboxdigest/internal/tools/common"
)

const (
	ToolGetAuthURL   = "google_get_auth_url"
	ToolSaveAuthCode = "google_save_auth_code"
)

// RegisterGoogleTools registers the OAuth tools. They are skipped when the
// server context has no authorizer.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Authorizer() == nil {
		return nil
	}

	getAuthURLTool := mcp.NewTool(ToolGetAuthURL,
		mcp.WithDescription("Get the OAuth URL to authorize read-only Gmail access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)
	s.AddTool(getAuthURLTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(ToolGetAuthURL, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		})))

	saveAuthCodeTool := mcp.NewTool(ToolSaveAuthCode,
		mcp.WithDescription("Save the OAuth authorization code to complete Gmail authentication for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(ToolSaveAuthCode, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		})))

	return nil
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())
	authURL := sc.Authorizer().AuthURL(account)

	result := fmt.Sprintf(`To authorize Gmail access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant read-only access to Gmail
4. Copy the authorization code from the redirect URL

5. Call the %s tool with the code and account name to complete authentication`, account, authURL, ToolSaveAuthCode)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	authCode := strings.TrimSpace(common.GetStringArg(args, "authCode", ""))
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := sc.Authorizer().SaveToken(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. Gmail token saved; newsletter_digest can now read this mailbox.", account)), nil
}
