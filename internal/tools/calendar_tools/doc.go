// Package calendar_tools provides MCP (Model Context Protocol) tools for Google Calendar operations.
//
// This package exposes Google Calendar functionality through a standardized MCP interface,
// allowing AI assistants to list calendars, search and manage events, and check
// availability on behalf of users.
//
// Tool arguments pass through a shared validation and normalization pipeline
// before handlers run, so calendar-scoped tools accept either a single calendar
// ID or a JSON array of calendar IDs. The tools support multi-account
// authentication; write operations are only registered when explicitly enabled.
package calendar_tools
