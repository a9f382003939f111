package cmd

import (
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// runStdioServer starts the MCP server using stdio transport.
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	return mcpserver.ServeStdio(mcpSrv)
}
