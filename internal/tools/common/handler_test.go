package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gcalmcp/internal/server"
)

func callToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected result with content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestValidatedToolHandler_PassesNormalizedArguments(t *testing.T) {
	schema := MustArgumentSchema("calendar_list_events", map[string]Field{
		"calendarId": {
			Kind:         KindString,
			Required:     true,
			FlexibleList: true,
			Noun:         ItemNoun{Singular: "calendar ID", Plural: "calendar IDs"},
		},
	})

	var seen map[string]interface{}
	handler := ValidatedToolHandler(schema, func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		seen = request.GetArguments()
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), callToolRequest("calendar_list_events", map[string]interface{}{
		"calendarId": `["primary", "team@example.com"]`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	values, ok := seen["calendarId"].([]string)
	if !ok {
		t.Fatalf("expected calendarId to be normalized to []string, got %T", seen["calendarId"])
	}
	if len(values) != 2 || values[0] != "primary" || values[1] != "team@example.com" {
		t.Errorf("unexpected normalized values: %v", values)
	}
}

func TestValidatedToolHandler_RejectsShapeViolation(t *testing.T) {
	schema := MustArgumentSchema("calendar_get_event", map[string]Field{
		"eventId": {Kind: KindString, Required: true},
	})

	invoked := false
	handler := ValidatedToolHandler(schema, func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invoked = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), callToolRequest("calendar_get_event", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error result")
	}
	if invoked {
		t.Error("expected handler to be skipped on validation failure")
	}
}

func TestValidatedToolHandler_PropagatesListPolicyError(t *testing.T) {
	schema := MustArgumentSchema("calendar_list_events", map[string]Field{
		"calendarId": {
			Kind:         KindString,
			Required:     true,
			FlexibleList: true,
			Noun:         ItemNoun{Singular: "calendar ID", Plural: "calendar IDs"},
		},
	})

	handler := ValidatedToolHandler(schema, func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})

	result, err := handler(context.Background(), callToolRequest("calendar_list_events", map[string]interface{}{
		"calendarId": `[]`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error result")
	}
	if got := resultText(t, result); got != "At least one calendar ID is required" {
		t.Errorf("expected verbatim policy message, got %q", got)
	}
}

func TestInstrumentedToolHandler_PassesThroughResult(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	defer func() { _ = sc.Shutdown() }()

	handler := InstrumentedToolHandler("calendar_list_events", sc, func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("done"), nil
	})

	result, err := handler(context.Background(), callToolRequest("calendar_list_events", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, result); got != "done" {
		t.Errorf("expected result to pass through, got %q", got)
	}
}

func TestInstrumentedToolHandler_PassesThroughError(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	defer func() { _ = sc.Shutdown() }()

	wantErr := errors.New("backend unavailable")
	handler := InstrumentedToolHandler("calendar_get_event", sc, func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	})

	_, err = handler(context.Background(), callToolRequest("calendar_get_event", map[string]interface{}{}))
	if !errors.Is(err, wantErr) {
		t.Errorf("expected handler error to pass through, got %v", err)
	}
}
