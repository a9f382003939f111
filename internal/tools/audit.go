// Package tools provides shared utilities and types for MCP tool implementations.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/server"
)

// ToolHandler is the signature for MCP tool handler functions that take ServerContext.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// WrapWithAuditLogging wraps a tool handler with audit logging.
// This function creates a wrapper that automatically captures:
//   - Tool invocation timing
//   - Target user, role, scope, and ticket information from request arguments
//   - Success/error status from the handler result
//   - OpenTelemetry trace context for correlation
//
// The wrapper logs tool invocations using the AuditLogger from the
// instrumentation provider. If no instrumentation provider is available,
// the handler is called without audit logging.
func WrapWithAuditLogging(
	toolName string,
	handler ToolHandler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		provider := sc.InstrumentationProvider()
		if provider == nil || provider.AuditLogger() == nil {
			return handler(ctx, request, sc)
		}

		auditLogger := provider.AuditLogger()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)

		args := request.GetArguments()
		extractAuditInfoFromArgs(invocation, args, sc)

		result, err := handler(ctx, request, sc)

		if err != nil {
			invocation.CompleteWithError(err)
		} else if result != nil && result.IsError {
			// MCP tool errors are returned in the result, not as Go errors
			invocation.Complete(false, nil)
			if len(result.Content) > 0 {
				if textContent, ok := result.Content[0].(mcp.TextContent); ok {
					invocation.Error = textContent.Text
				}
			}
		} else {
			invocation.CompleteSuccess()
		}

		auditLogger.LogToolInvocation(ctx, invocation)

		return result, err
	}
}

// extractAuditInfoFromArgs extracts user, role, scope, and ticket
// information from tool request arguments for audit logging.
func extractAuditInfoFromArgs(invocation *instrumentation.ToolInvocation, args map[string]interface{}, sc *server.ServerContext) {
	// Different tools use different parameter names for the target user.
	for _, key := range []string{"upn", "principal_upn", "manager_upn"} {
		if upn, ok := args[key].(string); ok && upn != "" {
			invocation.WithUser(upn)
			break
		}
	}

	role := StringArg(args, "role_name_or_id", "")
	if role == "" {
		role = StringArg(args, "role_id", "")
	}
	scope := StringArg(args, "scope", "")
	if role != "" || scope != "" {
		invocation.WithRole(role, scope)
	}

	if justification, ok := args["justification"].(string); ok && justification != "" {
		invocation.WithTicket(ExtractTicketReference(justification, sc.Config().TicketKeywords))
	}

	if BoolArg(args, "simulate", false) || sc.Config().Simulate {
		invocation.WithSimulate(true)
	}
}
