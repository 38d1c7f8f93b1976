package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerAuthorized reports whether a request carries the configured auth
// secret.
//
// When secret is empty, authentication is disabled and every request is
// authorized. This insecure-by-default mode is intentional: the server is
// designed to run on loopback for local MCP clients, and requiring a token
// there would only add friction. Operators exposing the HTTP transport
// beyond localhost must set a secret.
//
// With a secret configured, the Authorization header value must equal the
// secret after stripping an optional "Bearer " prefix. The prefix match is
// case-sensitive with exactly one space; the token comparison is exact and
// constant-time.
func BearerAuthorized(headers http.Header, secret string) bool {
	if secret == "" {
		return true
	}

	value := headers.Get("Authorization")
	if strings.HasPrefix(value, bearerPrefix) {
		value = value[len(bearerPrefix):]
	}

	return subtle.ConstantTimeCompare([]byte(value), []byte(secret)) == 1
}
