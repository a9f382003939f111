package signin

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/tools"
)

// Bounds for the lookback window over the sign-in logs.
const (
	DefaultLookbackHours = 24
	MinLookbackHours     = 1
	MaxLookbackHours     = 168
)

// RegisterSignInTools registers the sign-in investigation tools with the MCP server
func RegisterSignInTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// entra_user_lockout tool
	lockoutTool := mcp.NewTool("entra_user_lockout",
		mcp.WithDescription("Summarize recent sign-in activity for a user and classify a potential lockout, including failure codes, conditional access outcomes, and a recommendation."),
		mcp.WithString("upn",
			mcp.Required(),
			mcp.Description("User principal name to investigate (e.g., alice@contoso.com)"),
		),
		mcp.WithNumber("lookback_hours",
			mcp.Description("How far back to read the sign-in logs, in hours (default: 24, min: 1, max: 168)"),
		),
		mcp.WithBoolean("interactive_only",
			mcp.Description("Only consider interactive user sign-ins (default: true)"),
		),
	)

	s.AddTool(lockoutTool, tools.WrapWithAuditLogging("entra_user_lockout", handleUserLockout, sc))

	return nil
}
