package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/server/middleware"
)

// runStreamableHTTPServer starts the MCP server using streamable HTTP transport.
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.HTTPEndpoint),
	)

	mux := http.NewServeMux()
	mux.Handle(config.HTTPEndpoint, httpServer)

	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(mux)

	var handler http.Handler = mux
	if provider.Enabled() {
		handler = middleware.HTTPMetrics(provider)(handler)
	}
	handler = middleware.SecurityHeaders(middleware.SecurityHeadersConfig{})(handler)

	srv := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsServer, err := startMetricsServer(config, provider)
	if err != nil {
		return err
	}

	log.Printf("Streamable HTTP server listening on %s (endpoint: %s)", config.HTTPAddr, config.HTTPEndpoint)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("streamable HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Println("Shutting down streamable HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("streamable HTTP server shutdown error: %w", err)
		}
		return nil
	}
}

// startMetricsServer starts the dedicated metrics listener when both the
// --metrics flag and the instrumentation provider are enabled. It returns
// nil when metrics serving is disabled.
func startMetricsServer(config ServeConfig, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	if !config.Metrics.Enabled || !provider.Enabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    config.Metrics.Addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	go func() {
		log.Printf("Metrics server listening on %s", metricsServer.Addr())
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	return metricsServer, nil
}
