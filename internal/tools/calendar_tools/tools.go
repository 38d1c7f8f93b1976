package calendar_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/calendar"
	"github.com/teemow/gcalmcp/internal/server"
	"github.com/teemow/gcalmcp/internal/tools/common"
)

// calendarIDsFromArgs returns the calendar IDs for a request. After
// normalization the calendarId argument is either a plain string or a
// []string; absence defaults to the primary calendar.
func calendarIDsFromArgs(args map[string]interface{}) []string {
	switch v := args["calendarId"].(type) {
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return []string{"primary"}
}

// calendarIDFromArgs returns a single calendar ID, defaulting to "primary".
func calendarIDFromArgs(args map[string]interface{}) string {
	if v, ok := args["calendarId"].(string); ok && v != "" {
		return v
	}
	return "primary"
}

// getCalendarClient retrieves or creates a Calendar client for the account.
// When the account has no cached token the error includes the authorization
// URL so the agent can walk the user through the OAuth bootstrap.
func getCalendarClient(_ context.Context, account string, sc *server.ServerContext) (*calendar.Client, error) {
	if !common.ValidAccountName(account) {
		return nil, fmt.Errorf("invalid account name %q", account)
	}

	auth := sc.Authorizer()
	if auth == nil {
		return nil, fmt.Errorf("Google OAuth credentials not configured. Set GOOGLE_OAUTH_CREDENTIALS or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET and restart the server")
	}

	if !auth.HasTokenForAccount(account) {
		authURL := auth.AuthURLForAccount(account)
		return nil, fmt.Errorf(`Google OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the authorization code

5. Provide the authorization code to your AI agent
   The agent will use the google_save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, authURL, account)
	}

	return sc.CalendarClientForAccount(account)
}

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	return nil
}
