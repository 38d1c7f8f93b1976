package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcalmcp/internal/google"
	"github.com/teemow/gcalmcp/internal/instrumentation"
	"github.com/teemow/gcalmcp/internal/logging"
	"github.com/teemow/gcalmcp/internal/server"
	"github.com/teemow/gcalmcp/internal/tools/calendar_tools"
	"github.com/teemow/gcalmcp/internal/tools/google_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode          bool
		transport          string
		httpAddr           string
		yolo               bool
		authToken          string
		credentialsFile    string
		googleClientID     string
		googleClientSecret string
		metricsEnabled     bool
		metricsAddr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Calendar
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (event creation, updates, deletion).

Transport Security (streamable-http only):
  Requests carrying a browser Origin header are rejected unless the origin is
  localhost, which blocks cross-site requests from web pages.

  Bearer token authentication is OFF unless a token is configured:
    --auth-token flag OR MCP_AUTH_TOKEN env var
  Without a token every request is accepted. Only run unauthenticated servers
  on trusted local machines.

Google OAuth Configuration:
  Credentials file (Google Cloud Console download):
    GOOGLE_OAUTH_CREDENTIALS env var pointing at the JSON file
  OR plain client credentials:
    --google-client-id and --google-client-secret flags
    OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load settings from environment when flags were not set
			if !cmd.Flags().Changed("auth-token") {
				if token := os.Getenv("MCP_AUTH_TOKEN"); token != "" {
					authToken = token
				}
			}
			if credentialsFile == "" {
				credentialsFile = os.Getenv("GOOGLE_OAUTH_CREDENTIALS")
			}
			if googleClientID == "" {
				googleClientID = os.Getenv("GOOGLE_CLIENT_ID")
			}
			if googleClientSecret == "" {
				googleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
			}
			if !cmd.Flags().Changed("metrics-enabled") {
				if os.Getenv("METRICS_ENABLED") == "false" {
					metricsEnabled = false
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}

			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(transport, debugMode, httpAddr, yolo, authToken, credentialsFile, googleClientID, googleClientSecret, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (event creation, updates, deletion). Default is read-only mode.")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "Bearer token required on HTTP requests. Can also use MCP_AUTH_TOKEN env var. Empty disables authentication.")
	cmd.Flags().StringVar(&credentialsFile, "credentials-file", "", "Path to a Google OAuth client credentials JSON file. Can also use GOOGLE_OAUTH_CREDENTIALS env var.")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadAuthorizer builds the Google OAuth authorizer from a credentials file or
// plain client ID/secret. A nil authorizer is not an error; the server starts
// without Google access and the tools report how to configure it.
func loadAuthorizer(credentialsFile, clientID, clientSecret string) (*google.Authorizer, error) {
	if credentialsFile != "" {
		creds, err := google.LoadClientCredentials(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load Google OAuth credentials: %w", err)
		}
		return google.NewAuthorizer(creds), nil
	}

	if clientID != "" && clientSecret != "" {
		return google.NewAuthorizer(&google.ClientCredentials{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}), nil
	}

	return nil, nil
}

func runServe(transport string, debugMode bool, httpAddr string, yolo bool, authToken, credentialsFile, googleClientID, googleClientSecret string, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Structured logs go to stderr so they never interfere with the stdio
	// transport on stdout.
	logger := logging.NewLogger(debugMode)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			log.Printf("Metrics server started on %s", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Google OAuth credentials are optional at startup; without them the
	// calendar tools return setup instructions instead of results.
	authorizer, err := loadAuthorizer(credentialsFile, googleClientID, googleClientSecret)
	if err != nil {
		return err
	}
	if authorizer == nil && transport != "stdio" {
		log.Println("Warning: no Google OAuth credentials configured, calendar tools will be unavailable until the server is restarted with credentials")
	}
	if authorizer != nil && provider.Enabled() {
		metrics := provider.Metrics()
		authorizer.SetRefreshObserver(func(err error) {
			result := instrumentation.OAuthResultSuccess
			if err != nil {
				result = instrumentation.OAuthResultFailure
			}
			metrics.RecordOAuthTokenRefresh(context.Background(), result)
		})
	}

	// Create server context
	serverContext, err := server.NewServerContext(shutdownCtx, authorizer)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetLogger(logger)

	// Set metrics on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("gcalmcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo

	// Log the mode for visibility (only for non-stdio transports)
	if transport != "stdio" {
		if readOnly {
			log.Println("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
		} else {
			log.Println("Starting server with WRITE operations enabled (--yolo flag is set)")
		}
	}

	// Register all tools
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, httpAddr, authToken, metricsConfig, provider)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Google OAuth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, addr, authToken string, metricsConfig MetricsConfig, instrProvider *instrumentation.Provider) error {
	// Set up health checker for health check endpoints
	healthChecker := server.NewHealthChecker(serverContext)

	config := server.HTTPServerConfig{
		AuthSecret:    authToken,
		HealthChecker: healthChecker,
		Logger:        serverContext.Logger(),
	}
	if instrProvider != nil && instrProvider.Enabled() {
		config.Metrics = instrProvider.Metrics()
	}

	httpServer := server.NewHTTPServer(mcpSrv, config)

	fmt.Printf("Streamable HTTP server starting on %s\n", addr)
	fmt.Printf("  MCP endpoint: /mcp\n")
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	if metricsConfig.Enabled && instrProvider.Enabled() {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", metricsConfig.Addr)
	}

	if authToken != "" {
		fmt.Println("\n✓ Bearer token authentication: ENABLED")
	} else {
		fmt.Println("\n⚠ Bearer token authentication: DISABLED")
		fmt.Println("  Every request will be accepted. Set --auth-token or MCP_AUTH_TOKEN to require a token.")
	}

	healthChecker.SetReady(true)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
