package signin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/logging"
	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/tools"
)

// handleUserLockout reads the sign-in logs for one user and returns a
// lockout summary with a triage recommendation.
func handleUserLockout(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	upn := strings.TrimSpace(tools.StringArg(args, "upn", ""))
	if upn == "" {
		return mcp.NewToolResultError("upn is required"), nil
	}

	lookbackHours := tools.IntArg(args, "lookback_hours", DefaultLookbackHours)
	if lookbackHours < MinLookbackHours || lookbackHours > MaxLookbackHours {
		return mcp.NewToolResultError(fmt.Sprintf("lookback_hours must be between %d and %d", MinLookbackHours, MaxLookbackHours)), nil
	}

	interactiveOnly := tools.BoolArg(args, "interactive_only", true)

	since := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	events, err := sc.GraphClient().ListSignIns(ctx, graph.ListSignInsOptions{
		UPN:             upn,
		Since:           since,
		InteractiveOnly: interactiveOnly,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read sign-in logs: %v", err)), nil
	}

	summary := graph.SummarizeLockout(upn, lookbackHours, interactiveOnly, events)

	sc.Logger().Info("sign-in lockout summary computed",
		logging.KeyTool, "entra_user_lockout",
		logging.KeyUserHash, logging.AnonymizeUPN(upn),
		"status", summary.Status,
		"events", len(events),
	)

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal lockout summary: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonData)), nil
}
