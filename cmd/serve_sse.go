package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// runSSEServer starts the MCP server using SSE transport.
func runSSEServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr, sseEndpoint, messageEndpoint string) error {
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(sseEndpoint),
		mcpserver.WithMessageEndpoint(messageEndpoint),
	)

	log.Printf("SSE server listening on %s (SSE: %s, Messages: %s)", addr, sseEndpoint, messageEndpoint)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- sseServer.Start(addr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("SSE server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Println("Shutting down SSE server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("SSE server shutdown error: %w", err)
		}
		return nil
	}
}
