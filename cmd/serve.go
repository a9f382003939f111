package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/tools/pim"
	"github.com/gsvibhav/mcp-entra/internal/tools/signin"
	"github.com/gsvibhav/mcp-entra/internal/tools/tenant"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		simulate  bool
		debugMode bool

		// Transport options
		transport       string
		httpAddr        string
		sseEndpoint     string
		messageEndpoint string
		httpEndpoint    string

		// Metrics options
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP Entra server",
		Long: `Start the MCP Entra server to provide Microsoft Graph tools
(sign-in lockout triage, tenant ping, PIM eligible assignments and role
policies) via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Graph credentials are read from the TENANT_ID, CLIENT_ID and
CLIENT_SECRET environment variables. PIM guardrails come from
PIM_MIN_DURATION, PIM_MAX_DURATION and PIM_SCOPE_ALLOWLIST; setting
PIM_SIMULATE=true (or --simulate) makes pim_assign fabricate
identifiers and skip all Graph write calls.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := ServeConfig{
				Transport:       transport,
				HTTPAddr:        httpAddr,
				SSEEndpoint:     sseEndpoint,
				MessageEndpoint: messageEndpoint,
				HTTPEndpoint:    httpEndpoint,
				Simulate:        simulate,
				DebugMode:       debugMode,
				Metrics: MetricsServeConfig{
					Enabled: metricsEnabled,
					Addr:    metricsAddr,
				},
			}
			return runServe(config)
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Fabricate identifiers and skip Graph write calls in pim_assign (default: false)")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")

	// Transport flags
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8000", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&messageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	// Metrics flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "Serve Prometheus metrics on a dedicated listener when instrumentation is enabled")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Dedicated metrics server address")

	return cmd
}

// runServe contains the main server logic with support for multiple transports.
func runServe(config ServeConfig) error {
	if err := validateServeConfig(config); err != nil {
		return err
	}

	serverConfig := server.NewDefaultConfig()
	serverConfig.Version = rootCmd.Version
	loadGuardrailsFromEnv(serverConfig)
	if config.Simulate {
		serverConfig.Simulate = true
	}

	logger := newSlogLogger(serverConfig, config.DebugMode)
	slog := server.NewSlogLogger(logger)

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize OpenTelemetry instrumentation provider
	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	instrumentationProvider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := instrumentationProvider.Shutdown(context.Background()); shutdownErr != nil {
			if config.Transport != transportStdio {
				log.Printf("Error during instrumentation shutdown: %v", shutdownErr)
			}
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics", instrumentationConfig.MetricsExporter,
			"tracing", instrumentationConfig.TracingExporter)
	}

	// Create the Graph client
	graphConfig := loadGraphConfigFromEnv()
	graphConfig.Logger = logger
	graphConfig.Metrics = instrumentationProvider.Metrics()
	graphClient, err := graph.NewClient(graphConfig)
	if err != nil {
		return fmt.Errorf("failed to create Graph client: %w", err)
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithGraphClient(graphClient),
		server.WithLogger(slog),
		server.WithConfig(serverConfig),
		server.WithInstrumentationProvider(instrumentationProvider),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			// Only log shutdown errors for non-stdio transports to avoid output interference
			if config.Transport != transportStdio {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	if serverConfig.Simulate {
		logger.Warn("simulate mode enabled: pim_assign will fabricate identifiers and skip Graph writes")
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("mcp-entra", rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register all tool families
	if err := tenant.RegisterTenantTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register tenant tools: %w", err)
	}

	if err := signin.RegisterSignInTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register sign-in tools: %w", err)
	}

	if err := pim.RegisterPIMTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register PIM tools: %w", err)
	}

	// Start the appropriate server based on transport type
	switch config.Transport {
	case transportStdio:
		// Don't print startup message for stdio mode as it interferes with MCP communication
		return runStdioServer(mcpSrv)
	case transportSSE:
		logger.Info("starting MCP Entra server", "transport", config.Transport)
		return runSSEServer(shutdownCtx, mcpSrv, config.HTTPAddr, config.SSEEndpoint, config.MessageEndpoint)
	case transportStreamableHTTP:
		logger.Info("starting MCP Entra server", "transport", config.Transport)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, config, instrumentationProvider, serverContext)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}
}
