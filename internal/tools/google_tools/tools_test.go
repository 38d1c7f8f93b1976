package google_tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterGoogleTools(t *testing.T) {
	for _, readOnly := range []bool{true, false} {
		sc := newTestServerContext(t)
		s := mcpserver.NewMCPServer("test", "0.0.0")
		if err := RegisterGoogleTools(s, sc, readOnly); err != nil {
			t.Errorf("RegisterGoogleTools(readOnly=%v) failed: %v", readOnly, err)
		}
	}
}

func TestHandleAuthURL_NoCredentials(t *testing.T) {
	sc := newTestServerContext(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "google_auth_url",
			Arguments: map[string]interface{}{},
		},
	}

	result, err := handleAuthURL(context.Background(), request, sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error result without credentials")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, "GOOGLE_OAUTH_CREDENTIALS") {
		t.Errorf("expected error to mention credential setup, got %q", text.Text)
	}
}

func TestHandleSaveAuthCode_MissingCode(t *testing.T) {
	sc := newTestServerContext(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "google_save_auth_code",
			Arguments: map[string]interface{}{"account": "work"},
		},
	}

	result, err := handleSaveAuthCode(context.Background(), request, sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error result for missing authCode")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if text.Text != "authCode is required" {
		t.Errorf("expected authCode error, got %q", text.Text)
	}
}
