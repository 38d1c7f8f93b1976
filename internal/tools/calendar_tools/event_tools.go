package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/calendar"
	"github.com/teemow/gcalmcp/internal/instrumentation"
	"github.com/teemow/gcalmcp/internal/server"
	"github.com/teemow/gcalmcp/internal/tools/common"
)

var calendarIDNoun = common.ItemNoun{Singular: "calendar ID", Plural: "calendar IDs"}

func accountField() common.Field {
	return common.Field{Kind: common.KindString, Pattern: common.AccountPattern}
}

// RegisterEventTools registers event-related tools with the MCP server.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List events tool (read-only, always available)
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List/search calendar events within a time range. calendarId accepts a single calendar or a JSON array of up to 50 calendars."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar), or a JSON array like [\"primary\", \"team@example.com\"]"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query to filter events"),
		),
	)

	listEventsSchema := common.MustArgumentSchema("calendar_list_events", map[string]common.Field{
		"account": accountField(),
		"calendarId": {
			Kind:         common.KindString,
			FlexibleList: true,
			Noun:         calendarIDNoun,
		},
		"timeMin": {Kind: common.KindString, Required: true},
		"timeMax": {Kind: common.KindString, Required: true},
		"query":   {Kind: common.KindString},
	})

	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService("calendar_list_events", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		common.ValidatedToolHandler(listEventsSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		})))

	// Get event tool
	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)

	getEventSchema := common.MustArgumentSchema("calendar_get_event", map[string]common.Field{
		"account":    accountField(),
		"calendarId": {Kind: common.KindString},
		"eventId":    {Kind: common.KindString, Required: true},
	})

	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithService("calendar_get_event", instrumentation.ServiceCalendar, instrumentation.OperationGet, sc,
		common.ValidatedToolHandler(getEventSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		})))

	// Write tools are registered only when write operations are enabled
	if readOnly {
		return nil
	}

	// Create event tool
	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a new calendar event (supports recurring and all-day events)"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2025-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format, e.g., '2025-01-15T15:00:00Z')"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'America/New_York'). Defaults to UTC."),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence rule (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR')"),
		),
		mcp.WithBoolean("allDay",
			mcp.Description("Create as all-day event (ignores time portion of start/end)"),
		),
	)

	createEventSchema := common.MustArgumentSchema("calendar_create_event", map[string]common.Field{
		"account":     accountField(),
		"calendarId":  {Kind: common.KindString},
		"summary":     {Kind: common.KindString, Required: true},
		"description": {Kind: common.KindString},
		"location":    {Kind: common.KindString},
		"start":       {Kind: common.KindString, Required: true},
		"end":         {Kind: common.KindString, Required: true},
		"timeZone":    {Kind: common.KindString},
		"attendees":   {Kind: common.KindString},
		"recurrence":  {Kind: common.KindString},
		"allDay":      {Kind: common.KindBoolean},
	})

	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithService("calendar_create_event", instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
		common.ValidatedToolHandler(createEventSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		})))

	// Update event tool
	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update an existing calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 format)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339 format)"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'America/New_York')"),
		),
		mcp.WithString("attendees",
			mcp.Description("New comma-separated list of attendee email addresses"),
		),
		mcp.WithBoolean("allDay",
			mcp.Description("Update to be an all-day event (ignores time portion of start/end)"),
		),
	)

	updateEventSchema := common.MustArgumentSchema("calendar_update_event", map[string]common.Field{
		"account":     accountField(),
		"calendarId":  {Kind: common.KindString},
		"eventId":     {Kind: common.KindString, Required: true},
		"summary":     {Kind: common.KindString},
		"description": {Kind: common.KindString},
		"location":    {Kind: common.KindString},
		"start":       {Kind: common.KindString},
		"end":         {Kind: common.KindString},
		"timeZone":    {Kind: common.KindString},
		"attendees":   {Kind: common.KindString},
		"allDay":      {Kind: common.KindBoolean},
	})

	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithService("calendar_update_event", instrumentation.ServiceCalendar, instrumentation.OperationUpdate, sc,
		common.ValidatedToolHandler(updateEventSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		})))

	// Delete event tool
	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)

	deleteEventSchema := common.MustArgumentSchema("calendar_delete_event", map[string]common.Field{
		"account":    accountField(),
		"calendarId": {Kind: common.KindString},
		"eventId":    {Kind: common.KindString, Required: true},
	})

	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithService("calendar_delete_event", instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
		common.ValidatedToolHandler(deleteEventSchema, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		})))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
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

	query := ""
	if queryVal, ok := args["query"].(string); ok {
		query = queryVal
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	total := 0
	for _, calendarID := range calendarIDs {
		_, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList)
		events, err := client.ListEvents(calendarID, timeMin, timeMax, query)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			span.End()
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list events for %s: %v", calendarID, err)), nil
		}
		instrumentation.SetSpanSuccess(span)
		span.End()
		total += len(events)

		if len(calendarIDs) > 1 {
			fmt.Fprintf(&sb, "Calendar %s (%d events):\n\n", calendarID, len(events))
		}
		writeEventList(&sb, events)
	}

	header := fmt.Sprintf("Found %d events:\n\n", total)
	if len(calendarIDs) > 1 {
		header = fmt.Sprintf("Found %d events across %d calendars:\n\n", total, len(calendarIDs))
	}

	return mcp.NewToolResultText(header + sb.String()), nil
}

func writeEventList(sb *strings.Builder, events []calendar.Event) {
	for i, event := range events {
		fmt.Fprintf(sb, "%d. %s\n", i+1, event.Summary)
		fmt.Fprintf(sb, "   ID: %s\n", event.ID)
		fmt.Fprintf(sb, "   Start: %s\n", event.Start.Format(time.RFC3339))
		fmt.Fprintf(sb, "   End: %s\n", event.End.Format(time.RFC3339))
		if event.Location != "" {
			fmt.Fprintf(sb, "   Location: %s\n", event.Location)
		}
		if len(event.Attendees) > 0 {
			fmt.Fprintf(sb, "   Attendees: %d\n", len(event.Attendees))
		}
		sb.WriteString("\n")
	}
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	calendarID := calendarIDFromArgs(args)

	eventID, _ := args["eventId"].(string)
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.GetEvent(calendarID, eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Event: %s\n", event.Summary)
	fmt.Fprintf(&sb, "ID: %s\n", event.ID)
	fmt.Fprintf(&sb, "Start: %s\n", event.Start.Format(time.RFC3339))
	fmt.Fprintf(&sb, "End: %s\n", event.End.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Status: %s\n", event.Status)
	if event.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", event.Description)
	}
	if event.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", event.Location)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&sb, "Organizer: %s\n", event.Organizer)
	}

	if len(event.Attendees) > 0 {
		fmt.Fprintf(&sb, "\nAttendees (%d):\n", len(event.Attendees))
		for _, att := range event.Attendees {
			fmt.Fprintf(&sb, "  - %s (%s)", att.Email, att.ResponseStatus)
			if att.DisplayName != "" {
				fmt.Fprintf(&sb, " - %s", att.DisplayName)
			}
			if att.Optional {
				sb.WriteString(" [optional]")
			}
			sb.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	calendarID := calendarIDFromArgs(args)

	summary, _ := args["summary"].(string)
	if summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	startStr, _ := args["start"].(string)
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
	}

	endStr, _ := args["end"].(string)
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
	}

	input := calendar.EventInput{
		Summary: summary,
		Start:   start,
		End:     end,
	}

	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if tz, ok := args["timeZone"].(string); ok {
		input.TimeZone = tz
	}
	if attendeesStr, ok := args["attendees"].(string); ok && attendeesStr != "" {
		input.Attendees = splitAttendees(attendeesStr)
	}
	if recurrence, ok := args["recurrence"].(string); ok && recurrence != "" {
		input.Recurrence = []string{recurrence}
	}
	if allDay, ok := args["allDay"].(bool); ok {
		input.AllDay = allDay
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.CreateEvent(calendarID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	result := fmt.Sprintf("Successfully created event: %s\n", event.Summary)
	result += fmt.Sprintf("ID: %s\n", event.ID)
	result += fmt.Sprintf("Start: %s\n", event.Start.Format(time.RFC3339))
	result += fmt.Sprintf("End: %s\n", event.End.Format(time.RFC3339))

	return mcp.NewToolResultText(result), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	calendarID := calendarIDFromArgs(args)

	eventID, _ := args["eventId"].(string)
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	input := calendar.EventInput{}

	if summary, ok := args["summary"].(string); ok {
		input.Summary = summary
	}
	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if tz, ok := args["timeZone"].(string); ok {
		input.TimeZone = tz
	}

	if startStr, ok := args["start"].(string); ok && startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
		}
		input.Start = start
	}

	if endStr, ok := args["end"].(string); ok && endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
		}
		input.End = end
	}

	if attendeesStr, ok := args["attendees"].(string); ok && attendeesStr != "" {
		input.Attendees = splitAttendees(attendeesStr)
	}
	if allDay, ok := args["allDay"].(bool); ok {
		input.AllDay = allDay
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.UpdateEvent(calendarID, eventID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	result := fmt.Sprintf("Successfully updated event: %s\n", event.Summary)
	result += fmt.Sprintf("ID: %s\n", event.ID)
	result += fmt.Sprintf("Start: %s\n", event.Start.Format(time.RFC3339))
	result += fmt.Sprintf("End: %s\n", event.End.Format(time.RFC3339))

	return mcp.NewToolResultText(result), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	calendarID := calendarIDFromArgs(args)

	eventID, _ := args["eventId"].(string)
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEvent(calendarID, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted event %s", eventID)), nil
}

func splitAttendees(s string) []string {
	parts := strings.Split(s, ",")
	attendees := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			attendees = append(attendees, p)
		}
	}
	return attendees
}
