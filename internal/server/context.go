package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/gcalmcp/internal/calendar"
	"github.com/teemow/gcalmcp/internal/google"
	"github.com/teemow/gcalmcp/internal/instrumentation"
)

// ServerContext holds the shared state for the MCP server.
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	authorizer      *google.Authorizer
	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	metrics         *instrumentation.Metrics
	logger          *slog.Logger
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context. The authorizer may be nil
// when no OAuth client credentials are configured; calendar tools will then
// fail with an actionable error on first use.
func NewServerContext(ctx context.Context, authorizer *google.Authorizer) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		authorizer:      authorizer,
		calendarClients: make(map[string]*calendar.Client),
		logger:          slog.Default(),
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Authorizer returns the Google OAuth authorizer, or nil if credentials
// were not configured.
func (sc *ServerContext) Authorizer() *google.Authorizer {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.authorizer
}

// CalendarClientForAccount returns the Calendar client for a specific account,
// creating and caching it on first use. Returns an error if no credentials are
// configured or the account has no cached token.
func (sc *ServerContext) CalendarClientForAccount(account string) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[account]; ok {
		return client, nil
	}

	if sc.authorizer == nil {
		return nil, fmt.Errorf("Google OAuth credentials not configured")
	}

	if !sc.authorizer.HasTokenForAccount(account) {
		return nil, fmt.Errorf("no cached token for account %q", account)
	}

	client, err := calendar.NewClientForAccount(sc.ctx, account, sc.authorizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}

	sc.calendarClients[account] = client
	return client, nil
}

// SetCalendarClientForAccount sets the Calendar client for a specific account.
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// DropCalendarClientForAccount removes a cached client, forcing re-creation
// on next use. Called after re-authentication replaces an account's token.
func (sc *ServerContext) DropCalendarClientForAccount(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.calendarClients, account)
}

// SetMetrics sets the metrics recorder used for tool instrumentation.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetLogger sets the structured logger for the server.
func (sc *ServerContext) SetLogger(logger *slog.Logger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if logger != nil {
		sc.logger = logger
	}
}

// Logger returns the structured logger for the server.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
