package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gcalmcp/internal/instrumentation"
	"github.com/teemow/gcalmcp/internal/logging"
	"github.com/teemow/gcalmcp/internal/server"
)

// ToolHandler is the signature mcp-go expects for tool handlers.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ValidatedToolHandler wraps a tool handler with the two-stage argument
// pipeline: shape validation against the schema, then flexible-list
// normalization. The wrapped handler receives the normalized argument record;
// any validation failure is surfaced to the caller verbatim as a tool error
// result and the handler is never invoked.
func ValidatedToolHandler(schema *ArgumentSchema, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		if err := schema.Validate(args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		normalized, err := schema.Normalize(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		request.Params.Arguments = normalized
		return handler(ctx, request)
	}
}

// InstrumentedToolHandler wraps a tool handler with a tracing span,
// invocation metrics, and a structured log line per call.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumentedToolHandler(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the Google service and operation type for more detailed metrics.
//
// This handler records both:
// - MCP tool invocation metrics (mcp_tool_invocations_total, mcp_tool_duration_seconds)
// - Google API operation metrics (google_api_operations_total, google_api_operation_duration_seconds)
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "calendar", "list", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumentedToolHandler(toolName, serviceName, operation, sc, handler)
}

func instrumentedToolHandler(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		logger := sc.Logger()

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := logging.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = logging.StatusError
		}

		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		account := AccountFromArgs(request.GetArguments())

		if metrics != nil {
			metrics.RecordToolInvocationWithAccount(ctx, toolName, status, account, duration)
			if serviceName != "" {
				metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
			}
		}
		if logger != nil {
			attrs := []any{
				logging.Tool(toolName),
				logging.Account(account),
				logging.Status(status),
				logging.Err(err),
			}
			if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
				attrs = append(attrs, slog.String("trace_id", traceID))
			}
			logger.Debug("tool invocation", attrs...)
		}

		return result, err
	}
}
