// Package server provides the MCP server context and the HTTP transport
// for the gcalmcp application.
//
// # Key Components
//
// ServerContext holds shared state for tool handlers: the Google OAuth
// authorizer and a per-account cache of Calendar clients, plus the metrics
// recorder and logger used for instrumentation.
//
// HTTPServer serves the MCP protocol over streamable HTTP. The /mcp
// endpoint is protected by two request guards:
//
//   - IsTrustedLocalOrigin rejects browser requests whose Origin header
//     does not name localhost or 127.0.0.1 exactly, closing the DNS
//     rebinding hole left open by substring matching.
//   - BearerAuthorized checks the Authorization header against the
//     configured secret. With no secret configured authentication is
//     disabled; this is the intended mode for loopback-only deployments.
//
// HealthChecker serves /healthz and /readyz outside the guards, and
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
