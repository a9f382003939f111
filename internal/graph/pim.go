package graph

import (
	"context"
	"fmt"
	"net/url"
)

// GetUserID resolves a user principal name to the user's object ID.
func (c *client) GetUserID(ctx context.Context, upn string) (string, error) {
	query := url.Values{}
	query.Set("$select", "id")

	var result struct {
		ID string `json:"id"`
	}
	path := "/users/" + url.PathEscape(upn)
	if err := c.do(ctx, "get_user", "GET", c.buildURL(path, query), nil, &result); err != nil {
		return "", fmt.Errorf("user lookup failed for %s: %w", upn, err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("user lookup for %s returned no id", upn)
	}
	return result.ID, nil
}

// ResolveRoleDefinitionID resolves a role display name or GUID to the role
// definition ID. Values that already look like a GUID pass through.
func (c *client) ResolveRoleDefinitionID(ctx context.Context, nameOrID string) (string, error) {
	if guidPattern.MatchString(nameOrID) {
		return nameOrID, nil
	}

	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("displayName eq '%s'", nameOrID))
	query.Set("$select", "id,displayName")

	var result struct {
		Value []RoleDefinition `json:"value"`
	}
	requestURL := c.buildURL("/roleManagement/directory/roleDefinitions", query)
	if err := c.do(ctx, "resolve_role_definition", "GET", requestURL, nil, &result); err != nil {
		return "", fmt.Errorf("role definition lookup failed: %w", err)
	}
	if len(result.Value) == 0 {
		return "", fmt.Errorf("no role definition found for displayName=%q", nameOrID)
	}
	return result.Value[0].ID, nil
}

// CreateEligibilityRequest submits an eligible role assignment request.
func (c *client) CreateEligibilityRequest(ctx context.Context, req *EligibilityScheduleRequest) (*EligibilityScheduleResponse, error) {
	var result EligibilityScheduleResponse
	requestURL := c.buildURL("/roleManagement/directory/roleEligibilityScheduleRequests", nil)
	err := c.do(ctx, "create_eligibility", "POST", requestURL, req, &result, 200, 201, 202)
	if err != nil {
		return nil, fmt.Errorf("eligibility request failed: %w", err)
	}
	return &result, nil
}

// GetPolicyAssignment finds the role management policy assignment for a
// role definition at a directory scope.
func (c *client) GetPolicyAssignment(ctx context.Context, roleDefinitionID, scope string) (*PolicyAssignment, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf(
		"scopeId eq '%s' and scopeType eq 'Directory' and roleDefinitionId eq '%s'",
		scope, roleDefinitionID))

	var result struct {
		Value []PolicyAssignment `json:"value"`
	}
	requestURL := c.buildURL("/policies/roleManagementPolicyAssignments", query)
	if err := c.do(ctx, "get_policy_assignment", "GET", requestURL, nil, &result); err != nil {
		return nil, fmt.Errorf("policy assignment lookup failed: %w", err)
	}
	if len(result.Value) == 0 {
		return nil, fmt.Errorf("no role management policy assignment found for this role at scope %q", scope)
	}
	return &result.Value[0], nil
}

// PatchPolicyRule updates one rule of a role management policy.
func (c *client) PatchPolicyRule(ctx context.Context, policyID, ruleID string, rule any) error {
	path := fmt.Sprintf("/policies/roleManagementPolicies/%s/rules/%s",
		url.PathEscape(policyID), url.PathEscape(ruleID))
	err := c.do(ctx, "patch_policy_rule", "PATCH", c.buildURL(path, nil), rule, nil, 200, 204)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", ruleID, err)
	}
	return nil
}
