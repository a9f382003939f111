package graph

import (
	"context"
	"time"
)

// Client defines the interface for Microsoft Graph operations.
// Tool handlers depend on this interface so tests can substitute fakes.
type Client interface {
	// Tenant Operations
	OrganizationReader

	// Sign-in Log Operations
	SignInReader

	// Directory Lookups
	DirectoryReader

	// Privileged Identity Management Operations
	PIMManager
}

// OrganizationReader reads tenant-level properties.
type OrganizationReader interface {
	// GetOrganization returns the tenant's display name and ID.
	GetOrganization(ctx context.Context) (*Organization, error)
}

// ListSignInsOptions controls the sign-in log query.
type ListSignInsOptions struct {
	// UPN filters events to a single user principal name. Required.
	UPN string

	// Since is the lower bound on createdDateTime.
	Since time.Time

	// InteractiveOnly restricts results to interactive user sign-ins.
	InteractiveOnly bool

	// Top is the page size, capped at 50. Zero means the default of 50.
	Top int
}

// SignInReader queries the audit sign-in logs.
type SignInReader interface {
	// ListSignIns returns sign-in events matching the options, following
	// pagination links up to an internal page cap.
	ListSignIns(ctx context.Context, opts ListSignInsOptions) ([]SignIn, error)
}

// DirectoryReader resolves directory object identifiers.
type DirectoryReader interface {
	// GetUserID resolves a user principal name to the user's object ID.
	GetUserID(ctx context.Context, upn string) (string, error)

	// ResolveRoleDefinitionID resolves a role display name or GUID to the
	// role definition ID. GUIDs pass through without a lookup.
	ResolveRoleDefinitionID(ctx context.Context, nameOrID string) (string, error)
}

// PIMManager manages eligible role assignments and role policies.
type PIMManager interface {
	// CreateEligibilityRequest submits an eligible assignment request.
	CreateEligibilityRequest(ctx context.Context, req *EligibilityScheduleRequest) (*EligibilityScheduleResponse, error)

	// GetPolicyAssignment finds the role management policy assignment for
	// a role definition at a directory scope.
	GetPolicyAssignment(ctx context.Context, roleDefinitionID, scope string) (*PolicyAssignment, error)

	// PatchPolicyRule updates one rule of a role management policy.
	// The rule argument is one of ApprovalRule, EnablementRule, or
	// ExpirationRule.
	PatchPolicyRule(ctx context.Context, policyID, ruleID string, rule any) error
}
