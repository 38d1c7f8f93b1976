package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/instrumentation"
	"github.com/teemow/gcalmcp/internal/logging"
)

const (
	// DefaultHTTPReadHeaderTimeout bounds how long reading request headers may take.
	DefaultHTTPReadHeaderTimeout = 10 * time.Second

	// DefaultHTTPIdleTimeout bounds how long idle keep-alive connections are held.
	DefaultHTTPIdleTimeout = 120 * time.Second
)

// HTTPServerConfig holds configuration for the streamable HTTP transport.
type HTTPServerConfig struct {
	// AuthSecret is the bearer token required on /mcp requests.
	// Empty disables authentication entirely (local development mode).
	AuthSecret string

	// Metrics records HTTP request metrics. May be nil.
	Metrics *instrumentation.Metrics

	// HealthChecker serves /healthz and /readyz. May be nil.
	HealthChecker *HealthChecker

	// Logger for transport-level events. Defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPServer serves the MCP protocol over streamable HTTP.
//
// The /mcp endpoint sits behind two guards, applied in order: the origin
// guard (403 on an untrusted declared Origin) and the bearer auth guard
// (401 when a secret is configured and the Authorization header does not
// carry it). Health endpoints are registered outside the guards so probes
// work without credentials.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
	config     HTTPServerConfig
	logger     *slog.Logger
}

// NewHTTPServer creates a streamable HTTP server for the given MCP server.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) *HTTPServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPServer{
		mcpServer: mcpSrv,
		config:    config,
		logger:    logger,
	}
}

// Start starts the HTTP server on addr in a blocking manner.
func (s *HTTPServer) Start(addr string) error {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
	)

	var handler http.Handler = streamable
	handler = s.guardMiddleware(handler)
	handler = s.instrumentMiddleware(handler)
	mux.Handle("/mcp", handler)

	// Health endpoints stay outside the guards
	if s.config.HealthChecker != nil {
		s.config.HealthChecker.RegisterHealthEndpoints(mux)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultHTTPReadHeaderTimeout,
		IdleTimeout:       DefaultHTTPIdleTimeout,
	}

	s.logger.Info("starting streamable HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down streamable HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// guardMiddleware rejects requests that fail the origin or auth checks.
// Origin is evaluated first so a browser-originated request gets a 403
// regardless of any credentials it carries.
func (s *HTTPServer) guardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A missing Origin header means a non-browser client; only a
		// declared untrusted origin is rejected.
		if origin := r.Header.Get("Origin"); origin != "" && !IsTrustedLocalOrigin(origin) {
			s.logger.Warn("rejected request from untrusted origin", logging.Origin(origin))
			if s.config.Metrics != nil {
				s.config.Metrics.RecordRejectedRequest(r.Context(), instrumentation.RejectOrigin)
			}
			http.Error(w, "Forbidden: origin not allowed", http.StatusForbidden)
			return
		}

		if !BearerAuthorized(r.Header, s.config.AuthSecret) {
			s.logger.Warn("rejected request with missing or invalid bearer token")
			if s.config.Metrics != nil {
				s.config.Metrics.RecordRejectedRequest(r.Context(), instrumentation.RejectAuth)
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// instrumentMiddleware records request count and duration metrics.
func (s *HTTPServer) instrumentMiddleware(next http.Handler) http.Handler {
	if s.config.Metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.config.Metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
