package tenant

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/tools"
)

// RegisterTenantTools registers the tenant-level tools with the MCP server
func RegisterTenantTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// graph_ping tool
	pingTool := mcp.NewTool("graph_ping",
		mcp.WithDescription("Return tenant display name and ID from Microsoft Graph."),
	)

	s.AddTool(pingTool, tools.WrapWithAuditLogging("graph_ping", handleGraphPing, sc))

	return nil
}
