package graph

import (
	"errors"
	"fmt"
	"time"
)

// Organization holds the tenant properties returned by the /organization
// endpoint.
type Organization struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// SignInStatus is the status object attached to a sign-in event.
// An errorCode of 0 means the sign-in succeeded.
type SignInStatus struct {
	ErrorCode     int    `json:"errorCode"`
	FailureReason string `json:"failureReason,omitempty"`
}

// AppliedPolicy is a conditional access policy evaluated during a sign-in.
type AppliedPolicy struct {
	DisplayName string `json:"displayName"`
	Result      string `json:"result,omitempty"`
}

// SignIn is a single sign-in event from the auditLogs/signIns endpoint.
// Only the fields the lockout summary needs are selected.
type SignIn struct {
	ID                               string          `json:"id"`
	CreatedDateTime                  time.Time       `json:"createdDateTime"`
	UserPrincipalName                string          `json:"userPrincipalName"`
	AppDisplayName                   string          `json:"appDisplayName"`
	Status                           *SignInStatus   `json:"status"`
	IsInteractive                    bool            `json:"isInteractive"`
	ConditionalAccessStatus          string          `json:"conditionalAccessStatus"`
	AppliedConditionalAccessPolicies []AppliedPolicy `json:"appliedConditionalAccessPolicies"`
}

// RoleDefinition is a directory role definition.
type RoleDefinition struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// PolicyAssignment links a role management policy to a role at a scope.
type PolicyAssignment struct {
	ID               string `json:"id"`
	PolicyID         string `json:"policyId"`
	RoleDefinitionID string `json:"roleDefinitionId"`
	ScopeID          string `json:"scopeId"`
	ScopeType        string `json:"scopeType"`
}

// ScheduleExpiration is the expiration part of a schedule request.
type ScheduleExpiration struct {
	Type     string `json:"type"`
	Duration string `json:"duration"`
}

// ScheduleInfo describes when an eligibility assignment starts and expires.
// StartDateTime is a pointer so the zero value serializes as null, which
// Graph interprets as "now".
type ScheduleInfo struct {
	StartDateTime *time.Time         `json:"startDateTime"`
	Expiration    ScheduleExpiration `json:"expiration"`
}

// EligibilityScheduleRequest is the body posted to
// roleManagement/directory/roleEligibilityScheduleRequests.
type EligibilityScheduleRequest struct {
	Action           string       `json:"action"`
	Justification    string       `json:"justification"`
	PrincipalID      string       `json:"principalId"`
	RoleDefinitionID string       `json:"roleDefinitionId"`
	DirectoryScopeID string       `json:"directoryScopeId"`
	ScheduleInfo     ScheduleInfo `json:"scheduleInfo"`
}

// EligibilityScheduleResponse is the created schedule request returned by
// Graph.
type EligibilityScheduleResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ApprovalStage is one stage of a role activation approval setting.
type ApprovalStage struct {
	ApprovalStageTimeOutInDays      int        `json:"approvalStageTimeOutInDays"`
	IsApproverJustificationRequired bool       `json:"isApproverJustificationRequired"`
	PrimaryApprovers                []Approver `json:"primaryApprovers"`
	EscalationTimeInMinutes         int        `json:"escalationTimeInMinutes"`
}

// Approver identifies a user who can approve activations.
type Approver struct {
	UserID string `json:"userId"`
}

// ApprovalSetting is the setting payload of an approval rule.
type ApprovalSetting struct {
	IsApprovalRequired bool            `json:"isApprovalRequired"`
	Stages             []ApprovalStage `json:"stages"`
}

// ApprovalRule requires manager approval before a role activates.
type ApprovalRule struct {
	ID      string          `json:"id"`
	Setting ApprovalSetting `json:"setting"`
}

// EnablementRule lists the conditions enforced on activation, such as
// "Mfa", "Justification", and "Ticketing".
type EnablementRule struct {
	ID           string   `json:"id"`
	EnabledRules []string `json:"enabledRules"`
}

// ExpirationRule caps the activation duration.
type ExpirationRule struct {
	ID                   string `json:"id"`
	IsExpirationRequired bool   `json:"isExpirationRequired"`
	MaximumDuration      string `json:"maximumDuration"`
}

// APIError is a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a Graph 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// ISO8601Minutes formats a duration in minutes as an ISO 8601 duration
// string like "PT60M", the format Graph expects for schedule expirations.
func ISO8601Minutes(minutes int) string {
	return fmt.Sprintf("PT%dM", minutes)
}
