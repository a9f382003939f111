package tenant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gsvibhav/mcp-entra/internal/server"
)

// pingResult is the graph_ping tool output.
type pingResult struct {
	TenantDisplayName string `json:"tenant_display_name"`
	TenantID          string `json:"tenant_id"`
	OK                bool   `json:"ok"`
}

// handleGraphPing verifies Graph connectivity by reading the organization.
func handleGraphPing(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	org, err := sc.GraphClient().GetOrganization(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to reach Microsoft Graph: %v", err)), nil
	}

	result := pingResult{
		TenantDisplayName: org.DisplayName,
		TenantID:          org.ID,
		OK:                true,
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal ping result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonData)), nil
}
