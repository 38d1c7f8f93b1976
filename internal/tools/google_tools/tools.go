package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/instrumentation"
	"github.com/teemow/gcalmcp/internal/server"
	"github.com/teemow/gcalmcp/internal/tools/common"
)

// RegisterGoogleTools registers the Google OAuth bootstrap tools with the MCP
// server. google_save_auth_code persists credentials and is only registered
// when write operations are enabled.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get OAuth URL tool
	authURLTool := mcp.NewTool("google_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Calendar access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	authURLSchema := common.MustArgumentSchema("google_auth_url", map[string]common.Field{
		"account": {Kind: common.KindString, Pattern: common.AccountPattern},
	})

	s.AddTool(authURLTool, common.InstrumentedToolHandler("google_auth_url", sc,
		common.ValidatedToolHandler(authURLSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthURL(ctx, request, sc)
		})))

	if readOnly {
		return nil
	}

	// Save authorization code tool
	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authentication for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	saveAuthCodeSchema := common.MustArgumentSchema("google_save_auth_code", map[string]common.Field{
		"account":  {Kind: common.KindString, Pattern: common.AccountPattern},
		"authCode": {Kind: common.KindString, Required: true},
	})

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandlerWithService("google_save_auth_code", instrumentation.ServiceOAuth, "exchange", sc,
		common.ValidatedToolHandler(saveAuthCodeSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		})))

	return nil
}

func handleAuthURL(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)

	auth := sc.Authorizer()
	if auth == nil {
		return mcp.NewToolResultError("Google OAuth credentials not configured. Set GOOGLE_OAUTH_CREDENTIALS or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET and restart the server"), nil
	}

	authURL := auth.AuthURLForAccount(account)

	result := fmt.Sprintf(`To authorize Google Calendar access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)

	authCode, ok := args["authCode"].(string)
	if !ok || authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	auth := sc.Authorizer()
	if auth == nil {
		return mcp.NewToolResultError("Google OAuth credentials not configured. Set GOOGLE_OAUTH_CREDENTIALS or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET and restart the server"), nil
	}

	if err := auth.SaveAuthCode(ctx, account, authCode); err != nil {
		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}
	if metrics := sc.Metrics(); metrics != nil {
		metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	}

	// A fresh token invalidates any client cached for the account.
	sc.DropCalendarClientForAccount(account)

	return mcp.NewToolResultText(fmt.Sprintf("✅ Authorization successful for account '%s'! Google Calendar token saved. You can now use all calendar tools with this account.", account)), nil
}
