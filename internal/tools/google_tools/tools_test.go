package google_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxdigest/internal/newsletter"
	"github.com/teemow/inboxdigest/internal/server"
)

type fakeAuthorizer struct {
	saved map[string]string
	err   error
}

func (f *fakeAuthorizer) AuthURL(account string) string {
	return "https://accounts.example.com/auth?state=" + account
}

func (f *fakeAuthorizer) SaveToken(_ context.Context, account, code string) error {
	if f.err != nil {
		return f.err
	}
	f.saved[account] = code
	return nil
}

func newServerContext(t *testing.T, auth *fakeAuthorizer) *server.ServerContext {
	t.Helper()
	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	cfg := server.Config{Extractor: e}
	if auth != nil {
		cfg.Auth = auth
	}
	sc, err := server.NewServerContext(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRegisterGoogleTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0")
	require.NoError(t, RegisterGoogleTools(s, newServerContext(t, &fakeAuthorizer{})))
	assert.NotNil(t, s.GetTool(ToolGetAuthURL))
	assert.NotNil(t, s.GetTool(ToolSaveAuthCode))

	bare := mcpserver.NewMCPServer("test", "0.0.0")
	require.NoError(t, RegisterGoogleTools(bare, newServerContext(t, nil)))
	assert.Nil(t, bare.GetTool(ToolGetAuthURL))
}

func TestHandleGetAuthURL(t *testing.T) {
	sc := newServerContext(t, &fakeAuthorizer{})

	res, err := handleGetAuthURL(context.Background(), callRequest(map[string]any{"account": "work"}), sc)

	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "https://accounts.example.com/auth?state=work")
	assert.Contains(t, text(t, res), ToolSaveAuthCode)
}

func TestHandleSaveAuthCode(t *testing.T) {
	auth := &fakeAuthorizer{saved: map[string]string{}}
	sc := newServerContext(t, auth)

	res, err := handleSaveAuthCode(context.Background(), callRequest(map[string]any{"authCode": " code-1 "}), sc)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "code-1", auth.saved["default"])

	res, err = handleSaveAuthCode(context.Background(), callRequest(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)

	auth.err = errors.New("invalid_grant")
	res, err = handleSaveAuthCode(context.Background(), callRequest(map[string]any{"authCode": "x", "account": "work"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid_grant")
}
