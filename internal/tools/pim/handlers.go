package pim

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/logging"
	"github.com/gsvibhav/mcp-entra/internal/server"
	"github.com/gsvibhav/mcp-entra/internal/tools"
)

// eligibilityEndpoint is included in dry-run plans so an operator can see
// exactly what a live run would post.
const eligibilityEndpoint = "/roleManagement/directory/roleEligibilityScheduleRequests"

// Fabricated identifiers returned in simulate mode. They are obviously
// fake so a simulated plan can never be mistaken for a real one.
const (
	simulatedPrincipalID      = "00000000-0000-0000-0000-FAKEUSERID0001"
	simulatedRoleDefinitionID = "00000000-0000-0000-0000-FAKEROLEID0001"
)

// Rule identifiers of the role management policy rules patched by
// pim_configure_role.
const (
	approvalRuleID   = "Approval_EndUser_Assignment"
	enablementRuleID = "Enablement_EndUser_Assignment"
	expirationRuleID = "Expiration_EndUser_Assignment"
)

// assignPlan is the request a dry run would have sent.
type assignPlan struct {
	Endpoint string                            `json:"endpoint"`
	Body     *graph.EligibilityScheduleRequest `json:"body"`
}

// guardrailStatus reports the guardrail checks that passed. A request that
// fails a guardrail never reaches this point.
type guardrailStatus struct {
	ScopeOK    bool `json:"scope_ok"`
	DurationOK bool `json:"duration_ok"`
	TicketOK   bool `json:"ticket_ok"`
}

// resolvedIDs carries the directory identifiers the plan would use.
type resolvedIDs struct {
	PrincipalID      string `json:"principal_id"`
	RoleDefinitionID string `json:"role_definition_id"`
}

// assignDryRunResult is the pim_assign output for dry_run and simulate.
type assignDryRunResult struct {
	Status     string          `json:"status"`
	Plan       assignPlan      `json:"plan"`
	Guardrails guardrailStatus `json:"guardrails"`
	Resolved   resolvedIDs     `json:"resolved"`
}

// assignResult is the pim_assign output for a live run.
type assignResult struct {
	Status           string `json:"status"`
	RequestID        string `json:"request_id"`
	RoleDefinitionID string `json:"role_definition_id"`
	PrincipalID      string `json:"principal_id"`
	Scope            string `json:"scope"`
	DurationMinutes  int    `json:"duration_minutes"`
}

// handlePIMAssign validates guardrails, then creates or previews an
// eligible role assignment.
func handlePIMAssign(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	cfg := sc.Config()

	principalUPN := strings.TrimSpace(tools.StringArg(args, "principal_upn", ""))
	if principalUPN == "" {
		return mcp.NewToolResultError("principal_upn is required"), nil
	}

	roleNameOrID := strings.TrimSpace(tools.StringArg(args, "role_name_or_id", ""))
	if roleNameOrID == "" {
		roleNameOrID = strings.TrimSpace(tools.StringArg(args, "role_id", ""))
	}
	if roleNameOrID == "" {
		return mcp.NewToolResultError("Provide 'role_name_or_id' (display name or GUID) or 'role_id'"), nil
	}

	justification := strings.TrimSpace(tools.StringArg(args, "justification", ""))
	if justification == "" {
		return mcp.NewToolResultError("justification is required"), nil
	}

	scope := tools.StringArg(args, "scope", "/")
	durationMinutes := tools.IntArg(args, "duration_minutes", DefaultAssignmentMinutes)
	dryRun := tools.BoolArg(args, "dry_run", true)
	requireTicket := tools.BoolArg(args, "require_ticket", true)
	simulate := tools.BoolArg(args, "simulate", false) || cfg.Simulate

	if err := tools.ValidateDuration(cfg, durationMinutes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := tools.ValidateScope(cfg, scope); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := tools.ValidateTicket(cfg, justification, requireTicket); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Simulate mode fabricates identifiers and never touches Graph.
	if simulate {
		body := buildEligibilityRequest(justification, simulatedPrincipalID, simulatedRoleDefinitionID, scope, durationMinutes)
		return marshalResult(assignDryRunResult{
			Status:     "dry_run_simulated",
			Plan:       assignPlan{Endpoint: eligibilityEndpoint, Body: body},
			Guardrails: guardrailStatus{ScopeOK: true, DurationOK: true, TicketOK: true},
			Resolved:   resolvedIDs{PrincipalID: simulatedPrincipalID, RoleDefinitionID: simulatedRoleDefinitionID},
		})
	}

	principalID, err := sc.GraphClient().GetUserID(ctx, principalUPN)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve principal: %v", err)), nil
	}

	roleDefinitionID, err := sc.GraphClient().ResolveRoleDefinitionID(ctx, roleNameOrID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve role definition: %v", err)), nil
	}

	body := buildEligibilityRequest(justification, principalID, roleDefinitionID, scope, durationMinutes)

	// Dry run uses the real resolved identifiers but does not submit.
	if dryRun {
		return marshalResult(assignDryRunResult{
			Status:     "dry_run",
			Plan:       assignPlan{Endpoint: eligibilityEndpoint, Body: body},
			Guardrails: guardrailStatus{ScopeOK: true, DurationOK: true, TicketOK: true},
			Resolved:   resolvedIDs{PrincipalID: principalID, RoleDefinitionID: roleDefinitionID},
		})
	}

	created, err := sc.GraphClient().CreateEligibilityRequest(ctx, body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("PIM assign failed: %v", err)), nil
	}

	sc.Logger().Info("eligible assignment created",
		logging.KeyTool, "pim_assign",
		logging.KeyUserHash, logging.AnonymizeUPN(principalUPN),
		logging.KeyRole, roleDefinitionID,
		"duration_minutes", durationMinutes,
	)

	return marshalResult(assignResult{
		Status:           "eligible_created",
		RequestID:        created.ID,
		RoleDefinitionID: roleDefinitionID,
		PrincipalID:      principalID,
		Scope:            scope,
		DurationMinutes:  durationMinutes,
	})
}

// buildEligibilityRequest assembles the adminAssign request body. The nil
// start time serializes as null, which Graph treats as "now".
func buildEligibilityRequest(justification, principalID, roleDefinitionID, scope string, durationMinutes int) *graph.EligibilityScheduleRequest {
	return &graph.EligibilityScheduleRequest{
		Action:           "adminAssign",
		Justification:    justification,
		PrincipalID:      principalID,
		RoleDefinitionID: roleDefinitionID,
		DirectoryScopeID: scope,
		ScheduleInfo: graph.ScheduleInfo{
			Expiration: graph.ScheduleExpiration{
				Type:     "afterDuration",
				Duration: graph.ISO8601Minutes(durationMinutes),
			},
		},
	}
}

// rulePatch is one planned rule update in a configure dry run.
type rulePatch struct {
	Rule  string `json:"rule"`
	Patch any    `json:"patch"`
}

// ruleUpdate is one applied rule update in a live configure run.
type ruleUpdate struct {
	Rule   string `json:"rule"`
	Status string `json:"status"`
}

// configureDryRunResult is the pim_configure_role output for a dry run.
type configureDryRunResult struct {
	Status           string      `json:"status"`
	PolicyID         string      `json:"policy_id"`
	RoleDefinitionID string      `json:"role_definition_id"`
	Plan             []rulePatch `json:"plan"`
}

// configureResult is the pim_configure_role output for a live run.
type configureResult struct {
	Status                string       `json:"status"`
	RoleDefinitionID      string       `json:"role_definition_id"`
	PolicyID              string       `json:"policy_id"`
	Approver              string       `json:"approver"`
	MFARequired           bool         `json:"mfa_required"`
	JustificationRequired bool         `json:"justification_required"`
	TicketRequired        bool         `json:"ticket_required"`
	MaxMinutes            int          `json:"max_minutes"`
	RulesUpdated          []ruleUpdate `json:"rules_updated"`
}

// handlePIMConfigureRole sets a role's activation policy: manager
// approval, MFA, justification, ticketing, and a maximum duration.
func handlePIMConfigureRole(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	roleNameOrID := strings.TrimSpace(tools.StringArg(args, "role_name_or_id", ""))
	if roleNameOrID == "" {
		return mcp.NewToolResultError("role_name_or_id is required"), nil
	}

	managerUPN := strings.TrimSpace(tools.StringArg(args, "manager_upn", ""))
	if managerUPN == "" {
		return mcp.NewToolResultError("manager_upn is required"), nil
	}

	scope := tools.StringArg(args, "scope", "/")
	maxMinutes := tools.IntArg(args, "max_minutes", DefaultMaxActivationMinutes)
	dryRun := tools.BoolArg(args, "dry_run", true)

	if maxMinutes < MinActivationMinutes || maxMinutes > MaxActivationMinutes {
		return mcp.NewToolResultError(fmt.Sprintf("max_minutes must be between %d and %d", MinActivationMinutes, MaxActivationMinutes)), nil
	}

	roleDefinitionID, err := sc.GraphClient().ResolveRoleDefinitionID(ctx, roleNameOrID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve role definition: %v", err)), nil
	}

	managerID, err := sc.GraphClient().GetUserID(ctx, managerUPN)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve manager: %v", err)), nil
	}

	assignment, err := sc.GraphClient().GetPolicyAssignment(ctx, roleDefinitionID, scope)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find policy assignment: %v", err)), nil
	}

	approvalRule := graph.ApprovalRule{
		ID: approvalRuleID,
		Setting: graph.ApprovalSetting{
			IsApprovalRequired: true,
			Stages: []graph.ApprovalStage{
				{
					ApprovalStageTimeOutInDays:      1,
					IsApproverJustificationRequired: true,
					PrimaryApprovers:                []graph.Approver{{UserID: managerID}},
					EscalationTimeInMinutes:         0,
				},
			},
		},
	}

	enablementRule := graph.EnablementRule{
		ID:           enablementRuleID,
		EnabledRules: []string{"Mfa", "Justification", "Ticketing"},
	}

	expirationRule := graph.ExpirationRule{
		ID:                   expirationRuleID,
		IsExpirationRequired: true,
		MaximumDuration:      graph.ISO8601Minutes(maxMinutes),
	}

	if dryRun {
		return marshalResult(configureDryRunResult{
			Status:           "dry_run",
			PolicyID:         assignment.PolicyID,
			RoleDefinitionID: roleDefinitionID,
			Plan: []rulePatch{
				{Rule: approvalRuleID, Patch: approvalRule},
				{Rule: enablementRuleID, Patch: enablementRule},
				{Rule: expirationRuleID, Patch: expirationRule},
			},
		})
	}

	updates := make([]ruleUpdate, 0, 3)
	for _, patch := range []rulePatch{
		{Rule: approvalRuleID, Patch: approvalRule},
		{Rule: enablementRuleID, Patch: enablementRule},
		{Rule: expirationRuleID, Patch: expirationRule},
	} {
		if err := sc.GraphClient().PatchPolicyRule(ctx, assignment.PolicyID, patch.Rule, patch.Patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update rule %s: %v", patch.Rule, err)), nil
		}
		updates = append(updates, ruleUpdate{Rule: patch.Rule, Status: "updated"})
	}

	sc.Logger().Info("role activation policy configured",
		logging.KeyTool, "pim_configure_role",
		logging.KeyRole, roleDefinitionID,
		"policy_id", assignment.PolicyID,
		"max_minutes", maxMinutes,
	)

	return marshalResult(configureResult{
		Status:                "configured",
		RoleDefinitionID:      roleDefinitionID,
		PolicyID:              assignment.PolicyID,
		Approver:              managerUPN,
		MFARequired:           true,
		JustificationRequired: true,
		TicketRequired:        true,
		MaxMinutes:            maxMinutes,
		RulesUpdated:          updates,
	})
}

// marshalResult renders a tool result as indented JSON text.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
