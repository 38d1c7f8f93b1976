package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/instrumentation"
	"github.com/teemow/gcalmcp/internal/server"
	"github.com/teemow/gcalmcp/internal/tools/common"
)

// RegisterCalendarListTools registers calendar discovery and availability
// tools with the MCP server. Both are read-only.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List calendars tool
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List all calendars accessible to the account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	listCalendarsSchema := common.MustArgumentSchema("calendar_list_calendars", map[string]common.Field{
		"account": accountField(),
	})

	s.AddTool(listCalendarsTool, common.InstrumentedToolHandlerWithService("calendar_list_calendars", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		common.ValidatedToolHandler(listCalendarsSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		})))

	// Free/busy tool
	freeBusyTool := mcp.NewTool("calendar_get_freebusy",
		mcp.WithDescription("Query free/busy information for one or more calendars. calendarId accepts a single calendar or a JSON array of up to 50 calendars."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar), or a JSON array like [\"primary\", \"team@example.com\"]"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-15T09:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-15T18:00:00Z')"),
		),
	)

	freeBusySchema := common.MustArgumentSchema("calendar_get_freebusy", map[string]common.Field{
		"account": accountField(),
		"calendarId": {
			Kind:         common.KindString,
			FlexibleList: true,
			Noun:         calendarIDNoun,
		},
		"timeMin": {Kind: common.KindString, Required: true},
		"timeMax": {Kind: common.KindString, Required: true},
	})

	s.AddTool(freeBusyTool, common.InstrumentedToolHandlerWithService("calendar_get_freebusy", instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy, sc,
		common.ValidatedToolHandler(freeBusySchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFreeBusy(ctx, request, sc)
		})))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d calendars:\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, cal.Summary)
		fmt.Fprintf(&sb, "   ID: %s\n", cal.ID)
		fmt.Fprintf(&sb, "   Access: %s\n", cal.AccessRole)
		if cal.TimeZone != "" {
			fmt.Fprintf(&sb, "   Time zone: %s\n", cal.TimeZone)
		}
		if cal.Primary {
			sb.WriteString("   Primary: yes\n")
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleGetFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	calendarIDs := calendarIDsFromArgs(args)

	timeMinStr, _ := args["timeMin"].(string)
	timeMin, err := time.Parse(time.RFC3339, timeMinStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
	}

	timeMaxStr, _ := args["timeMax"].(string)
	timeMax, err := time.Parse(time.RFC3339, timeMaxStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax format: %v", err)), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := client.QueryFreeBusy(timeMin, timeMax, calendarIDs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Free/busy from %s to %s:\n\n", timeMin.Format(time.RFC3339), timeMax.Format(time.RFC3339))
	for _, info := range infos {
		fmt.Fprintf(&sb, "Calendar %s:\n", info.Calendar)
		if len(info.Errors) > 0 {
			for _, reason := range info.Errors {
				fmt.Fprintf(&sb, "  Error: %s\n", reason)
			}
			sb.WriteString("\n")
			continue
		}
		if len(info.Busy) == 0 {
			sb.WriteString("  Free for the entire range\n\n")
			continue
		}
		for _, busy := range info.Busy {
			fmt.Fprintf(&sb, "  Busy: %s - %s\n", busy.Start.Format(time.RFC3339), busy.End.Format(time.RFC3339))
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}
