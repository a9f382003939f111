package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsvibhav/mcp-entra/internal/jira"
	"github.com/gsvibhav/mcp-entra/internal/notify"
)

// fakeToolCaller implements ToolCaller for handler tests.
type fakeToolCaller struct {
	tools    []string
	listErr  error
	results  map[string]map[string]any
	callErr  error
	lastCall struct {
		name string
		args map[string]any
	}
}

func (f *fakeToolCaller) ListTools(_ context.Context) ([]string, error) {
	return f.tools, f.listErr
}

func (f *fakeToolCaller) CallTool(_ context.Context, name string, args map[string]any) (map[string]any, error) {
	f.lastCall.name = name
	f.lastCall.args = args
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.results[name], nil
}

func (f *fakeToolCaller) Close() error { return nil }

// fakeJira implements jira.Client and records comments.
type fakeJira struct {
	issueKey   string
	createErr  error
	commentErr error
	comments   []string
}

func (f *fakeJira) CreateIssue(_ context.Context, _, _, _ string, _ []string) (*jira.Issue, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	key := f.issueKey
	if key == "" {
		key = "MOCK-testkey1"
	}
	return &jira.Issue{Key: key, ID: key, Mock: true}, nil
}

func (f *fakeJira) Comment(_ context.Context, key, body string) error {
	f.comments = append(f.comments, key+": "+body)
	return f.commentErr
}

func newTestServer(t *testing.T, tools *fakeToolCaller, jc *fakeJira) *Server {
	t.Helper()

	s, err := NewServer(Config{
		APIKey:         "key",
		ApprovalSecret: "secret",
		ClickToken:     "click",
		PendingTTL:     time.Minute,
	}, tools, jc, notify.NewNotifier(notify.Config{PublicBaseURL: "https://agent.example.com", ClickToken: "click"}), nil, nil)
	require.NoError(t, err)
	return s
}

func allTools() []string {
	return []string{"graph_ping", "entra_user_lockout", "pim_assign", "pim_configure_role"}
}

func doChat(t *testing.T, s *Server, message string, chatCtx map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(ChatRequest{Message: message, Context: chatCtx})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/agent", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer key")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decodeAgentResponse(t *testing.T, rr *httptest.ResponseRecorder) AgentResponse {
	t.Helper()

	var resp AgentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestChat_Unauthorized(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	req := httptest.NewRequest(http.MethodPost, "/agent", strings.NewReader(`{"message":"ping"}`))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestChat_MCPUnreachable(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{listErr: errors.New("connection refused")}, &fakeJira{})

	rr := doChat(t, s, "ping tenant", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cannot reach MCP server")
}

func TestChat_Fallback(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	rr := doChat(t, s, "what can you do", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeAgentResponse(t, rr)
	assert.Contains(t, resp.Reply, "Try:")
	assert.True(t, strings.HasPrefix(resp.RequestID, "req_"))
}

func TestChat_Ping(t *testing.T) {
	tools := &fakeToolCaller{
		tools: allTools(),
		results: map[string]map[string]any{
			"graph_ping": {"tenant_display_name": "Contoso", "tenant_id": "tenant-123", "ok": true},
		},
	}
	s := newTestServer(t, tools, &fakeJira{})

	rr := doChat(t, s, "ping tenant", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeAgentResponse(t, rr)
	assert.Equal(t, "Tenant: Contoso (tenant-123).", resp.Reply)
	assert.Equal(t, "graph_ping", tools.lastCall.name)
}

func TestChat_LockoutNeedsUPN(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	rr := doChat(t, s, "check lockout for someone", nil)
	resp := decodeAgentResponse(t, rr)
	assert.Contains(t, resp.Reply, "Need a user UPN")
}

func TestChat_Lockout(t *testing.T) {
	tools := &fakeToolCaller{
		tools: allTools(),
		results: map[string]map[string]any{
			"entra_user_lockout": {"status": "blocked", "failure_count": float64(7), "success_count": float64(0)},
		},
	}
	s := newTestServer(t, tools, &fakeJira{})

	rr := doChat(t, s, "check lockout for alice@contoso.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeAgentResponse(t, rr)
	assert.Contains(t, resp.Reply, "Sign-in status for alice@contoso.com: blocked")

	assert.Equal(t, "entra_user_lockout", tools.lastCall.name)
	assert.Equal(t, "alice@contoso.com", tools.lastCall.args["upn"])
	assert.Equal(t, 24, tools.lastCall.args["lookback_hours"])
	assert.Equal(t, true, tools.lastCall.args["interactive_only"])
}

func TestChat_PIMRequestMissingContext(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	rr := doChat(t, s, "request pim for bob@contoso.com", nil)
	resp := decodeAgentResponse(t, rr)
	assert.Contains(t, resp.Reply, "Missing: role_name_or_id (or role_id), manager_upn")
	assert.Equal(t, 0, s.pending.Len())
}

func pimContext() map[string]any {
	return map[string]any{
		"role_name_or_id":  "Helpdesk Administrator",
		"scope":            "/",
		"duration_minutes": float64(120),
		"manager_upn":      "manager@contoso.com",
		"justification":    "temp access",
	}
}

func TestChat_PIMRequest(t *testing.T) {
	tools := &fakeToolCaller{tools: allTools()}
	jc := &fakeJira{issueKey: "OPS-101"}
	s := newTestServer(t, tools, jc)

	rr := doChat(t, s, "request pim for bob@contoso.com", pimContext())
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeAgentResponse(t, rr)
	assert.Contains(t, resp.Reply, "PIM ticket OPS-101 created")
	assert.Equal(t, "OPS-101", resp.Data["ticket"])

	links, ok := resp.Data["approval_links"].(map[string]any)
	require.True(t, ok)
	approveLink, err := url.Parse(links["approve"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/approvals/pim/click", approveLink.Path)
	assert.Equal(t, "approve", approveLink.Query().Get("decision"))

	require.Equal(t, 1, s.pending.Len())
	rec, ok := s.pending.Get(resp.RequestID)
	require.True(t, ok)
	assert.Equal(t, "pim_assign", rec.Type)
	assert.Equal(t, "OPS-101", rec.Ticket)
	assert.Equal(t, "manager@contoso.com", rec.ManagerUPN)
	assert.Equal(t, "bob@contoso.com", rec.Inputs["principal_upn"])
	assert.Equal(t, "OPS-101: temp access", rec.Inputs["justification"])
	assert.Equal(t, false, rec.Inputs["dry_run"])
	assert.Equal(t, true, rec.Inputs["require_ticket"])
}

func TestChat_PIMRequestJiraDown(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{createErr: errors.New("503")})

	rr := doChat(t, s, "request pim for bob@contoso.com", pimContext())
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to create ticket")
}

func doApproval(t *testing.T, s *Server, body ApprovalBody, token string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/approvals/pim", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

// seedPending creates a pending pim_assign request and returns its ID.
func seedPending(s *Server) string {
	id := newRequestID()
	s.pending.Put(id, PendingRequest{
		Type:       "pim_assign",
		Ticket:     "OPS-101",
		ManagerUPN: "manager@contoso.com",
		Inputs: map[string]any{
			"principal_upn": "bob@contoso.com",
		},
	})
	return id
}

func TestApproval_Unauthorized(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	rr := doApproval(t, s, ApprovalBody{RequestID: "x", Ticket: "y", ApproverUPN: "z"}, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestApproval_NotFound(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	rr := doApproval(t, s, ApprovalBody{RequestID: "req_0_aaaaaa", Ticket: "OPS-101", ApproverUPN: "manager@contoso.com", Approved: true}, "secret")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestApproval_TicketMismatch(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})
	id := seedPending(s)

	rr := doApproval(t, s, ApprovalBody{RequestID: id, Ticket: "OPS-999", ApproverUPN: "manager@contoso.com", Approved: true}, "secret")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ticket mismatch")
}

func TestApproval_WrongApprover(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})
	id := seedPending(s)

	rr := doApproval(t, s, ApprovalBody{RequestID: id, Ticket: "OPS-101", ApproverUPN: "intruder@contoso.com", Approved: true}, "secret")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// The record survives a rejected decision.
	assert.Equal(t, 1, s.pending.Len())
}

func TestApproval_Deny(t *testing.T) {
	jc := &fakeJira{}
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, jc)
	id := seedPending(s)

	rr := doApproval(t, s, ApprovalBody{RequestID: id, Ticket: "OPS-101", ApproverUPN: "MANAGER@contoso.com", Approved: false}, "secret")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"denied"`)

	assert.Equal(t, 0, s.pending.Len())
	require.Len(t, jc.comments, 1)
	assert.Contains(t, jc.comments[0], "denied approval")
}

func TestApproval_Approve(t *testing.T) {
	tools := &fakeToolCaller{
		tools: allTools(),
		results: map[string]map[string]any{
			"pim_assign": {"status": "eligible_created", "request_id": "graph-req-1"},
		},
	}
	jc := &fakeJira{}
	s := newTestServer(t, tools, jc)
	id := seedPending(s)

	rr := doApproval(t, s, ApprovalBody{RequestID: id, Ticket: "OPS-101", ApproverUPN: "manager@contoso.com", Approved: true}, "secret")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "eligible_created", resp["status"])

	assert.Equal(t, "pim_assign", tools.lastCall.name)
	assert.Equal(t, "bob@contoso.com", tools.lastCall.args["principal_upn"])

	assert.Equal(t, 0, s.pending.Len())
	require.Len(t, jc.comments, 1)
	assert.Contains(t, jc.comments[0], "Approved by manager@contoso.com")
}

func TestApproval_ApproveToolFailure(t *testing.T) {
	tools := &fakeToolCaller{tools: allTools(), callErr: errors.New("guardrail rejected")}
	jc := &fakeJira{}
	s := newTestServer(t, tools, jc)
	id := seedPending(s)

	rr := doApproval(t, s, ApprovalBody{RequestID: id, Ticket: "OPS-101", ApproverUPN: "manager@contoso.com", Approved: true}, "secret")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error creating PIM assignment")

	// Claimed before execution, so no retry.
	assert.Equal(t, 0, s.pending.Len())
	require.Len(t, jc.comments, 1)
}

func TestApprovalClick(t *testing.T) {
	tools := &fakeToolCaller{
		tools: allTools(),
		results: map[string]map[string]any{
			"pim_assign": {"status": "eligible_created"},
		},
	}
	s := newTestServer(t, tools, &fakeJira{})
	id := seedPending(s)

	target := fmt.Sprintf("/approvals/pim/click?token=click&request_id=%s&ticket=OPS-101&decision=approve&approver_upn=manager@contoso.com", id)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "eligible_created")
}

func TestApprovalClick_BadToken(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	req := httptest.NewRequest(http.MethodGet, "/approvals/pim/click?token=wrong&decision=approve", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestApprovalClick_BadDecision(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	req := httptest.NewRequest(http.MethodGet, "/approvals/pim/click?token=click&decision=maybe", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "decision must be")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{tools: allTools()}, &fakeJira{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["mcp_ok"])
	assert.Len(t, resp["tools"], 4)
}

func TestHealth_MCPDown(t *testing.T) {
	s := newTestServer(t, &fakeToolCaller{listErr: errors.New("refused")}, &fakeJira{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["mcp_ok"])
	assert.Contains(t, resp["error"], "refused")
}

func TestExtractUPN(t *testing.T) {
	assert.Equal(t, "alice@contoso.com", extractUPN("check lockout for alice@contoso.com please"))
	assert.Equal(t, "", extractUPN("no address here"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AGENT_API_KEY", "k")
	t.Setenv("APPROVAL_SHARED_SECRET", "s")
	t.Setenv("APPROVAL_CLICK_TOKEN", "c")
	t.Setenv("MCP_BASE", "http://mcp:8000/mcp")
	t.Setenv("PENDING_TTL_SEC", "600")
	t.Setenv("PIM_SIMULATE", "TRUE")

	cfg := ConfigFromEnv()
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "s", cfg.ApprovalSecret)
	assert.Equal(t, "c", cfg.ClickToken)
	assert.Equal(t, "http://mcp:8000/mcp", cfg.MCPEndpoint)
	assert.Equal(t, 10*time.Minute, cfg.PendingTTL)
	assert.True(t, cfg.DefaultSimulate)
	assert.Equal(t, DefaultAddr, cfg.Addr)
}
