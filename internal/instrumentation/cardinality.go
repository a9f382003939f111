package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user identifiers or
// directory scope paths.

// ScopeType represents a classification of Entra directory scopes for metrics.
type ScopeType string

// Directory scope classifications for metrics cardinality control.
const (
	// ScopeTypeDirectory represents the tenant-wide "/" scope.
	ScopeTypeDirectory ScopeType = "directory"

	// ScopeTypeAdministrativeUnit represents administrative unit scopes.
	ScopeTypeAdministrativeUnit ScopeType = "administrative_unit"

	// ScopeTypeApplication represents application-scoped assignments.
	ScopeTypeApplication ScopeType = "application"

	// ScopeTypeOther represents scopes that don't match any known pattern.
	ScopeTypeOther ScopeType = "other"
)

// ClassifyScope classifies a directory scope path into a type for metrics.
// This prevents cardinality explosion by grouping scopes into categories
// instead of using the full path, which embeds object identifiers.
//
// # Examples
//
//	ClassifyScope("/")                               // "directory"
//	ClassifyScope("")                                // "directory"
//	ClassifyScope("/administrativeUnits/9f0c-...")   // "administrative_unit"
//	ClassifyScope("/applications/77af-...")          // "application"
//	ClassifyScope("/devices/1234")                   // "other"
func ClassifyScope(scope string) string {
	if scope == "" || scope == "/" {
		return string(ScopeTypeDirectory)
	}

	scopeLower := strings.ToLower(scope)

	if strings.HasPrefix(scopeLower, "/administrativeunits/") {
		return string(ScopeTypeAdministrativeUnit)
	}
	if strings.HasPrefix(scopeLower, "/applications/") {
		return string(ScopeTypeApplication)
	}

	return string(ScopeTypeOther)
}

// ExtractUserDomain extracts the domain part from a user principal name.
// This reduces cardinality by using the domain instead of the full UPN.
//
// Example:
//
//	ExtractUserDomain("jane@contoso.com")  // "contoso.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(upn string) string {
	if upn == "" {
		return "unknown"
	}

	parts := strings.Split(upn, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// ToolResult constants for metrics.
const (
	// ToolResultSuccess indicates the tool completed successfully.
	ToolResultSuccess = "success"

	// ToolResultError indicates the tool returned an error.
	ToolResultError = "error"
)

// ApprovalDecision constants for metrics.
const (
	// ApprovalDecisionApproved indicates the request was approved.
	ApprovalDecisionApproved = "approved"

	// ApprovalDecisionDenied indicates the request was denied.
	ApprovalDecisionDenied = "denied"

	// ApprovalDecisionExpired indicates the request expired before a decision.
	ApprovalDecisionExpired = "expired"
)
