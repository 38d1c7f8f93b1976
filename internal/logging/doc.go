// Package logging provides shared helpers on top of log/slog.
//
// It defines the attribute keys used across the codebase so that log output
// stays uniform, plus small sanitizers for values that must never be logged
// verbatim (bearer tokens, email addresses).
package logging
