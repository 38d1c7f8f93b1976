// Package google handles Google OAuth client credentials and token
// persistence for the Calendar MCP server.
//
// Credentials arrive as a JSON payload in one of several nested shapes
// (see ParseClientCredentials) and are normalized once at startup into a
// canonical ClientCredentials record. The Authorizer then runs the
// authorization-code flow and caches one refreshable token per account.
package google
