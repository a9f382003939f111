package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/logging"
	"github.com/gsvibhav/mcp-entra/internal/notify"
)

// ChatRequest is the POST /agent body.
type ChatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// AgentResponse is the POST /agent reply.
type AgentResponse struct {
	Reply     string         `json:"reply"`
	Data      map[string]any `json:"data,omitempty"`
	RequestID string         `json:"request_id"`
}

// ApprovalBody is the POST /approvals/pim body.
type ApprovalBody struct {
	RequestID   string `json:"request_id"`
	Ticket      string `json:"ticket"`
	Approved    bool   `json:"approved"`
	ApproverUPN string `json:"approver_upn"`
}

var upnPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// extractUPN pulls the first email-shaped token out of a chat message.
func extractUPN(text string) string {
	return upnPattern.FindString(text)
}

// newRequestID returns an ID like "req_1693412345678_a1b2c3".
func newRequestID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), suffix)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth reports MCP reachability along with the available tools.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	tools, err := s.tools.ListTools(ctx)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":     true,
			"mcp_ok": false,
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"mcp_ok": true,
		"tools":  tools,
	})
}

// handleChat routes a chat message to a tool call or the approval flow.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	requestID := newRequestID()
	textRaw := strings.TrimSpace(payload.Message)
	text := strings.ToLower(textRaw)

	toolNames, err := s.tools.ListTools(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Cannot reach MCP server: %v", err))
		return
	}
	available := make(map[string]bool, len(toolNames))
	for _, name := range toolNames {
		available[name] = true
	}

	switch {
	case isLockoutIntent(text):
		s.chatLockout(w, r, requestID, textRaw, available)
	case strings.Contains(text, "tenant") || strings.Contains(text, "ping"):
		s.chatPing(w, r, requestID, available)
	case isPIMIntent(text):
		s.chatPIMRequest(w, r, requestID, textRaw, payload.Context, available)
	default:
		writeJSON(w, http.StatusOK, AgentResponse{
			Reply: "Try: 'check lockout for user@contoso.com', 'ping tenant', or " +
				"'request pim for user@contoso.com' with context " +
				"{role_name_or_id, scope, duration_minutes, manager_upn, justification, simulate}.",
			RequestID: requestID,
		})
	}
}

func isLockoutIntent(text string) bool {
	if strings.HasPrefix(text, "lockout") {
		return true
	}
	for _, k := range []string{" lockout", "sign in", "signin", "login", "auth "} {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func isPIMIntent(text string) bool {
	if !strings.Contains(text, "pim") {
		return false
	}
	for _, k := range []string{"request", "assign", "create"} {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func (s *Server) chatLockout(w http.ResponseWriter, r *http.Request, requestID, textRaw string, available map[string]bool) {
	upn := extractUPN(textRaw)
	if upn == "" {
		writeJSON(w, http.StatusOK, AgentResponse{
			Reply:     "Need a user UPN. Try: check lockout for alice@contoso.com",
			RequestID: requestID,
		})
		return
	}
	if !available["entra_user_lockout"] {
		writeJSON(w, http.StatusOK, AgentResponse{
			Reply:     "Lockout tool not available on MCP.",
			RequestID: requestID,
		})
		return
	}

	result, err := s.tools.CallTool(r.Context(), "entra_user_lockout", map[string]any{
		"upn":              upn,
		"lookback_hours":   24,
		"interactive_only": true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Lockout check failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, AgentResponse{
		Reply: fmt.Sprintf("Sign-in status for %s: %v. Failures=%v Successes=%v.",
			upn, result["status"], result["failure_count"], result["success_count"]),
		Data:      result,
		RequestID: requestID,
	})
}

func (s *Server) chatPing(w http.ResponseWriter, r *http.Request, requestID string, available map[string]bool) {
	if !available["graph_ping"] {
		writeJSON(w, http.StatusOK, AgentResponse{
			Reply:     "Graph ping tool not available on MCP.",
			RequestID: requestID,
		})
		return
	}

	result, err := s.tools.CallTool(r.Context(), "graph_ping", map[string]any{})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Graph ping failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, AgentResponse{
		Reply:     fmt.Sprintf("Tenant: %v (%v).", result["tenant_display_name"], result["tenant_id"]),
		Data:      result,
		RequestID: requestID,
	})
}

func (s *Server) chatPIMRequest(w http.ResponseWriter, r *http.Request, requestID, textRaw string, chatCtx map[string]any, available map[string]bool) {
	if !available["pim_assign"] {
		writeJSON(w, http.StatusOK, AgentResponse{
			Reply:     "PIM assign tool not available on MCP.",
			RequestID: requestID,
		})
		return
	}
	if chatCtx == nil {
		chatCtx = map[string]any{}
	}

	upn := extractUPN(textRaw)
	roleLabel := ctxString(chatCtx, "role_name_or_id")
	if roleLabel == "" {
		roleLabel = ctxString(chatCtx, "role_id")
	}
	durationMinutes := ctxInt(chatCtx, "duration_minutes", 120)
	scope := ctxString(chatCtx, "scope")
	if scope == "" {
		scope = "/"
	}
	managerUPN := ctxString(chatCtx, "manager_upn")
	justification := ctxString(chatCtx, "justification")
	if justification == "" {
		justification = "PIM eligibility requested by manager"
	}
	simulate := s.config.DefaultSimulate
	if v, ok := chatCtx["simulate"].(bool); ok {
		simulate = v
	}

	var missing []string
	if upn == "" {
		missing = append(missing, "user upn in message")
	}
	if roleLabel == "" {
		missing = append(missing, "role_name_or_id (or role_id)")
	}
	if managerUPN == "" {
		missing = append(missing, "manager_upn")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusOK, AgentResponse{
			Reply: "Missing: " + strings.Join(missing, ", ") +
				`. Include role_name_or_id (or role_id), scope, duration_minutes, manager_upn, justification in context. ` +
				`Example: {"role_name_or_id": "Helpdesk Administrator", "scope": "/", "duration_minutes": 120, ` +
				`"manager_upn": "manager@contoso.com", "justification": "OPS-1432 temp access", "simulate": true}`,
			RequestID: requestID,
		})
		return
	}

	roleDisplay := notify.RoleTitle(roleLabel)
	summary := fmt.Sprintf("[PIM Request] %s -> %s for %dm (Scope %s)", upn, roleDisplay, durationMinutes, scope)
	description := fmt.Sprintf(
		"*Manager*: %s\n*User*: %s\n*Requested Role*: %s\n*Scope*: %s\n*Duration*: %d minutes\n*Justification*: %s\n\n"+
			"Plan:\n"+
			"1) On approval, create ELIGIBLE PIM assignment (time-boxed)\n"+
			"2) Comment assignment result back to this ticket\n"+
			"3) Activation follows PIM role settings (MFA/approval/ticket enforced)",
		managerUPN, upn, roleDisplay, scope, durationMinutes, justification)

	issue, err := s.jira.CreateIssue(r.Context(), summary, description, "Task", []string{"PIM", "IDENTITY", "APPROVAL_REQUIRED"})
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to create ticket: %v", err))
		return
	}

	s.pending.Put(requestID, PendingRequest{
		Type:       "pim_assign",
		Ticket:     issue.Key,
		ManagerUPN: managerUPN,
		Inputs: map[string]any{
			"principal_upn":    upn,
			"role_name_or_id":  roleLabel,
			"scope":            scope,
			"duration_minutes": durationMinutes,
			"justification":    fmt.Sprintf("%s: %s", issue.Key, justification),
			"dry_run":          false,
			"simulate":         simulate,
			"require_ticket":   true,
		},
	})
	s.provider.Metrics().IncrementPendingApprovals(r.Context())

	s.logger.Info("approval requested",
		logging.KeyRequestID, requestID,
		logging.KeyTicket, issue.Key,
		logging.KeyUserHash, logging.AnonymizeUPN(upn),
	)

	approval := notify.Approval{
		RequestID: requestID,
		Ticket:    issue.Key,
		Title:     fmt.Sprintf("PIM approval needed for %s", upn),
		Details: fmt.Sprintf("Role: %s\nScope: %s\nDuration: %dm\nTicket: %s\nManager: %s",
			roleDisplay, scope, durationMinutes, issue.Key, managerUPN),
		ApproverUPN: managerUPN,
	}
	results := s.notifier.SendApprovals(r.Context(), approval)
	approveURL, denyURL := s.notifier.ApprovalLinks(requestID, issue.Key, managerUPN)

	writeJSON(w, http.StatusOK, AgentResponse{
		Reply: fmt.Sprintf("PIM ticket %s created. Waiting for manager approval. "+
			"Use Approve/Deny buttons in Slack/Teams if configured, or call /approvals/pim.", issue.Key),
		Data: map[string]any{
			"ticket":         issue.Key,
			"request_id":     requestID,
			"approval_links": map[string]string{"approve": approveURL, "deny": denyURL},
			"notify":         results,
		},
		RequestID: requestID,
	})
}

// handleApproval is the programmatic approval webhook.
func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var body ApprovalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.RequestID == "" || body.Ticket == "" || body.ApproverUPN == "" {
		writeError(w, http.StatusBadRequest, "request_id, ticket and approver_upn are required")
		return
	}

	s.decide(w, r, body.RequestID, body.Ticket, body.ApproverUPN, body.Approved)
}

// handleApprovalClick is the link-based variant used by chat buttons.
func (s *Server) handleApprovalClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("token") != s.config.ClickToken {
		writeError(w, http.StatusUnauthorized, "Unauthorized click token")
		return
	}

	decision := q.Get("decision")
	if decision != "approve" && decision != "deny" {
		writeError(w, http.StatusBadRequest, "decision must be 'approve' or 'deny'")
		return
	}

	s.decide(w, r, q.Get("request_id"), q.Get("ticket"), q.Get("approver_upn"), decision == "approve")
}

// decide validates and executes an approval decision. The pending record
// is claimed before execution so a decision runs at most once.
func (s *Server) decide(w http.ResponseWriter, r *http.Request, requestID, ticket, approverUPN string, approved bool) {
	rec, ok := s.pending.Get(requestID)
	if !ok || rec.Type != "pim_assign" {
		writeError(w, http.StatusNotFound, "Request not found or type mismatch")
		return
	}
	if rec.Ticket != ticket {
		writeError(w, http.StatusBadRequest, "Ticket mismatch")
		return
	}
	if !strings.EqualFold(approverUPN, rec.ManagerUPN) {
		writeError(w, http.StatusForbidden, "Only the recorded manager can approve/deny this request")
		return
	}

	rec, ok = s.pending.Claim(requestID)
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found or type mismatch")
		return
	}
	s.provider.Metrics().DecrementPendingApprovals(r.Context())

	if !approved {
		s.provider.Metrics().RecordApprovalDecision(r.Context(), instrumentation.ApprovalDecisionDenied)
		s.logger.Info("approval denied",
			logging.KeyRequestID, requestID,
			logging.KeyTicket, rec.Ticket,
		)
		if err := s.jira.Comment(r.Context(), rec.Ticket, fmt.Sprintf("Manager %s denied approval. Request %s closed.", approverUPN, requestID)); err != nil {
			s.logger.Warn("ticket comment failed", logging.KeyTicket, rec.Ticket, logging.KeyError, err.Error())
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "denied"})
		return
	}

	result, err := s.tools.CallTool(r.Context(), "pim_assign", rec.Inputs)
	if err != nil {
		s.logger.Error("approved assignment failed",
			logging.KeyRequestID, requestID,
			logging.KeyTicket, rec.Ticket,
			logging.KeyError, err.Error(),
		)
		msg := fmt.Sprintf("Error creating PIM assignment: %v", err)
		if commentErr := s.jira.Comment(r.Context(), rec.Ticket, msg); commentErr != nil {
			s.logger.Warn("ticket comment failed", logging.KeyTicket, rec.Ticket, logging.KeyError, commentErr.Error())
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.provider.Metrics().RecordApprovalDecision(r.Context(), instrumentation.ApprovalDecisionApproved)
	s.logger.Info("approval executed",
		logging.KeyRequestID, requestID,
		logging.KeyTicket, rec.Ticket,
		"status", result["status"],
	)

	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	comment := fmt.Sprintf("Approved by %s. PIM eligible assignment created.\n\nResult:\n%s", approverUPN, resultJSON)
	if err := s.jira.Comment(r.Context(), rec.Ticket, comment); err != nil {
		s.logger.Warn("ticket comment failed", logging.KeyTicket, rec.Ticket, logging.KeyError, err.Error())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "eligible_created",
		"result": result,
	})
}

func ctxString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func ctxInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
