package pim

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/tools"
)

// Activation policy limits for pim_configure_role.
const (
	DefaultMaxActivationMinutes = 120
	MinActivationMinutes        = 15
	MaxActivationMinutes        = 480
)

// DefaultAssignmentMinutes is the eligibility window used when the caller
// does not request one.
const DefaultAssignmentMinutes = 60

// RegisterPIMTools registers the privileged identity management tools with the MCP server
func RegisterPIMTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// pim_assign tool
	assignTool := mcp.NewTool("pim_assign",
		mcp.WithDescription("Create an ELIGIBLE PIM assignment for a user at a given scope with a time-boxed duration. Defaults to dry-run."),
		mcp.WithString("principal_upn",
			mcp.Required(),
			mcp.Description("User principal name to receive eligibility"),
		),
		mcp.WithString("role_name_or_id",
			mcp.Description("Role display name (e.g., 'Helpdesk Administrator') or roleDefinitionId GUID"),
		),
		mcp.WithString("role_id",
			mcp.Description("Alias for role_name_or_id if your client sends role_id"),
		),
		mcp.WithString("scope",
			mcp.Description("Directory scope id. For tenant root use '/' (default: '/')"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description("Requested eligibility window in minutes (default: 60)"),
		),
		mcp.WithString("justification",
			mcp.Required(),
			mcp.Description("Why this is needed (include ticket ID)"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("If true, do not call Graph for the assignment; just return the plan (default: true)"),
		),
		mcp.WithBoolean("require_ticket",
			mcp.Description("If true, justification must include a ticket key/reference (default: true)"),
		),
		mcp.WithBoolean("simulate",
			mcp.Description("If true, skip all Graph calls and fabricate IDs for a dry-run (default: false)"),
		),
	)

	s.AddTool(assignTool, tools.WrapWithAuditLogging("pim_assign", handlePIMAssign, sc))

	// pim_configure_role tool
	configureTool := mcp.NewTool("pim_configure_role",
		mcp.WithDescription("Configure a role's PIM policy: manager as approver, require MFA, justification, ticket, and set activation max duration. Defaults to dry-run."),
		mcp.WithString("role_name_or_id",
			mcp.Required(),
			mcp.Description("Role display name (e.g., 'Helpdesk Administrator') or GUID"),
		),
		mcp.WithString("manager_upn",
			mcp.Required(),
			mcp.Description("Manager who must approve activations"),
		),
		mcp.WithString("scope",
			mcp.Description("Policy scope. Use '/' for tenant-wide directory roles (default: '/')"),
		),
		mcp.WithNumber("max_minutes",
			mcp.Description("Activation max duration in minutes (default: 120, min: 15, max: 480)"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Preview only when true (default: true)"),
		),
	)

	s.AddTool(configureTool, tools.WrapWithAuditLogging("pim_configure_role", handlePIMConfigureRole, sc))

	return nil
}
