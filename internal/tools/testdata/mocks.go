// Package testdata provides mock implementations for testing the tool packages.
package testdata

import (
	"context"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/server"
)

// MockGraphClient implements graph.Client for testing. Each method returns
// the corresponding configured result and error, and records arguments that
// handler tests assert on.
type MockGraphClient struct {
	Organization    *graph.Organization
	OrganizationErr error

	SignIns     []graph.SignIn
	SignInsErr  error
	SignInsOpts graph.ListSignInsOptions

	UserID    string
	UserIDErr error

	RoleDefinitionID    string
	RoleDefinitionIDErr error

	EligibilityResponse *graph.EligibilityScheduleResponse
	EligibilityErr      error
	EligibilityRequests []*graph.EligibilityScheduleRequest

	PolicyAssignment    *graph.PolicyAssignment
	PolicyAssignmentErr error

	PatchErr   error
	PatchCalls []PatchPolicyRuleCall
}

// PatchPolicyRuleCall records one PatchPolicyRule invocation.
type PatchPolicyRuleCall struct {
	PolicyID string
	RuleID   string
	Rule     any
}

// GetOrganization implements graph.OrganizationReader.
func (m *MockGraphClient) GetOrganization(_ context.Context) (*graph.Organization, error) {
	return m.Organization, m.OrganizationErr
}

// ListSignIns implements graph.SignInReader.
func (m *MockGraphClient) ListSignIns(_ context.Context, opts graph.ListSignInsOptions) ([]graph.SignIn, error) {
	m.SignInsOpts = opts
	return m.SignIns, m.SignInsErr
}

// GetUserID implements graph.DirectoryReader.
func (m *MockGraphClient) GetUserID(_ context.Context, _ string) (string, error) {
	return m.UserID, m.UserIDErr
}

// ResolveRoleDefinitionID implements graph.DirectoryReader.
func (m *MockGraphClient) ResolveRoleDefinitionID(_ context.Context, nameOrID string) (string, error) {
	if m.RoleDefinitionIDErr != nil {
		return "", m.RoleDefinitionIDErr
	}
	if m.RoleDefinitionID != "" {
		return m.RoleDefinitionID, nil
	}
	return nameOrID, nil
}

// CreateEligibilityRequest implements graph.PIMManager.
func (m *MockGraphClient) CreateEligibilityRequest(_ context.Context, req *graph.EligibilityScheduleRequest) (*graph.EligibilityScheduleResponse, error) {
	m.EligibilityRequests = append(m.EligibilityRequests, req)
	return m.EligibilityResponse, m.EligibilityErr
}

// GetPolicyAssignment implements graph.PIMManager.
func (m *MockGraphClient) GetPolicyAssignment(_ context.Context, _, _ string) (*graph.PolicyAssignment, error) {
	return m.PolicyAssignment, m.PolicyAssignmentErr
}

// PatchPolicyRule implements graph.PIMManager.
func (m *MockGraphClient) PatchPolicyRule(_ context.Context, policyID, ruleID string, rule any) error {
	m.PatchCalls = append(m.PatchCalls, PatchPolicyRuleCall{PolicyID: policyID, RuleID: ruleID, Rule: rule})
	return m.PatchErr
}

// MockLogger implements server.Logger for testing and discards all output.
type MockLogger struct{}

// Info implements server.Logger.
func (m *MockLogger) Info(_ string, _ ...any) {}

// Debug implements server.Logger.
func (m *MockLogger) Debug(_ string, _ ...any) {}

// Warn implements server.Logger.
func (m *MockLogger) Warn(_ string, _ ...any) {}

// Error implements server.Logger.
func (m *MockLogger) Error(_ string, _ ...any) {}

// With implements server.Logger.
func (m *MockLogger) With(_ ...any) server.Logger { return m }
