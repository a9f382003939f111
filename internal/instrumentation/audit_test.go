package instrumentation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation("entra_user_lockout")

	// Verify initial state
	if ti.Tool != "entra_user_lockout" {
		t.Errorf("Tool = %q, want %q", ti.Tool, "entra_user_lockout")
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	// Complete the invocation
	time.Sleep(1 * time.Millisecond) // Ensure some duration
	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration == 0 {
		t.Error("Duration should be non-zero")
	}
	if ti.Error != "" {
		t.Errorf("Error should be empty, got %q", ti.Error)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation("pim_assign")
	err := errors.New("scope not allowed")

	ti.CompleteWithError(err)

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "scope not allowed" {
		t.Errorf("Error = %q, want %q", ti.Error, "scope not allowed")
	}
}

func TestToolInvocation_WithUser(t *testing.T) {
	ti := NewToolInvocation("entra_user_lockout")
	ti.WithUser("jane@contoso.com")

	if ti.UserUPN != "jane@contoso.com" {
		t.Errorf("UserUPN = %q, want %q", ti.UserUPN, "jane@contoso.com")
	}
}

func TestToolInvocation_WithRole(t *testing.T) {
	ti := NewToolInvocation("pim_assign")
	ti.WithRole("Helpdesk Administrator", "/")

	if ti.Role != "Helpdesk Administrator" {
		t.Errorf("Role = %q, want %q", ti.Role, "Helpdesk Administrator")
	}
	if ti.Scope != "/" {
		t.Errorf("Scope = %q, want %q", ti.Scope, "/")
	}
}

func TestToolInvocation_UserDomain(t *testing.T) {
	ti := NewToolInvocation("test")
	ti.UserUPN = "jane@contoso.com"

	if domain := ti.UserDomain(); domain != "contoso.com" {
		t.Errorf("UserDomain() = %q, want %q", domain, "contoso.com")
	}
}

func TestToolInvocation_ScopeType(t *testing.T) {
	tests := []struct {
		scope        string
		expectedType string
	}{
		{"", "directory"},
		{"/", "directory"},
		{"/administrativeUnits/9f0c1e7a", "administrative_unit"},
		{"/applications/77af1c2b", "application"},
		{"/devices/1234", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			ti := NewToolInvocation("test")
			ti.Scope = tt.scope

			if st := ti.ScopeType(); st != tt.expectedType {
				t.Errorf("ScopeType() = %q, want %q", st, tt.expectedType)
			}
		})
	}
}

func TestToolInvocation_Status(t *testing.T) {
	ti := NewToolInvocation("test")

	ti.Success = true
	if status := ti.Status(); status != "success" {
		t.Errorf("Status() = %q, want %q", status, "success")
	}

	ti.Success = false
	if status := ti.Status(); status != "error" {
		t.Errorf("Status() = %q, want %q", status, "error")
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("pim_assign")
	ti.WithUser("jane@contoso.com").
		WithRole("Helpdesk Administrator", "/").
		WithTicket("OPS-1234").
		CompleteSuccess()
	ti.TraceID = "abc123def456"

	attrs := ti.LogAttrs()

	attrMap := make(map[string]slog.Attr)
	for _, attr := range attrs {
		attrMap[attr.Key] = attr
	}

	// Check required attributes
	requiredKeys := []string{"tool", "user_domain", "scope_type", "duration", "success"}
	for _, key := range requiredKeys {
		if _, ok := attrMap[key]; !ok {
			t.Errorf("Missing required attribute: %s", key)
		}
	}

	// Check cardinality-controlled values
	if domain := attrMap["user_domain"].Value.String(); domain != "contoso.com" {
		t.Errorf("user_domain = %q, want %q", domain, "contoso.com")
	}
	if st := attrMap["scope_type"].Value.String(); st != "directory" {
		t.Errorf("scope_type = %q, want %q", st, "directory")
	}

	// Raw identifiers must not leak into operational logs
	if _, ok := attrMap["user"]; ok {
		t.Error("LogAttrs should not contain the raw UPN")
	}
	if _, ok := attrMap["scope"]; ok {
		t.Error("LogAttrs should not contain the raw scope path")
	}
}

func TestToolInvocation_LogAuditAttrs(t *testing.T) {
	ti := NewToolInvocation("pim_assign")
	ti.WithUser("jane@contoso.com").
		WithRole("Helpdesk Administrator", "/").
		WithTicket("OPS-1234").
		CompleteSuccess()
	ti.TraceID = "abc123def456"
	ti.SpanID = "span789"

	attrs := ti.LogAuditAttrs()

	attrMap := make(map[string]slog.Attr)
	for _, attr := range attrs {
		attrMap[attr.Key] = attr
	}

	// Check that full values are present (not cardinality-controlled)
	if user := attrMap["user"].Value.String(); user != "jane@contoso.com" {
		t.Errorf("user = %q, want %q", user, "jane@contoso.com")
	}
	if role := attrMap["role"].Value.String(); role != "Helpdesk Administrator" {
		t.Errorf("role = %q, want %q", role, "Helpdesk Administrator")
	}
	if ticket := attrMap["ticket"].Value.String(); ticket != "OPS-1234" {
		t.Errorf("ticket = %q, want %q", ticket, "OPS-1234")
	}

	// Check trace context
	if traceID := attrMap["trace_id"].Value.String(); traceID != "abc123def456" {
		t.Errorf("trace_id = %q, want %q", traceID, "abc123def456")
	}
	if spanID := attrMap["span_id"].Value.String(); spanID != "span789" {
		t.Errorf("span_id = %q, want %q", spanID, "span789")
	}
}

func TestToolInvocation_MethodChaining(t *testing.T) {
	ti := NewToolInvocation("pim_configure_role").
		WithRole("User Administrator", "/").
		WithSimulate(true).
		CompleteSuccess()

	if ti.Tool != "pim_configure_role" {
		t.Errorf("Tool = %q, want %q", ti.Tool, "pim_configure_role")
	}
	if ti.Role != "User Administrator" {
		t.Errorf("Role = %q, want %q", ti.Role, "User Administrator")
	}
	if !ti.Simulate {
		t.Error("Simulate should be true")
	}
	if !ti.Success {
		t.Error("Success should be true")
	}
}

func TestAuditLogger_New(t *testing.T) {
	// Test with nil logger (should use default)
	al := NewAuditLogger(nil, nil)
	if al.logger == nil {
		t.Error("logger should not be nil when created with nil")
	}

	// Test with custom logger
	logger := slog.Default()
	al = NewAuditLogger(logger, nil)
	if al.logger != logger {
		t.Error("logger should be the provided logger")
	}
}

func TestAuditLogger_LogNilMetrics(t *testing.T) {
	al := NewAuditLogger(slog.Default(), nil)
	ti := NewToolInvocation("graph_ping").CompleteSuccess()

	// Must not panic when metrics are disabled.
	al.LogToolInvocation(context.Background(), ti)
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	ctx := context.Background()
	traceID := TraceIDFromContext(ctx)

	if traceID != "" {
		t.Errorf("TraceIDFromContext with no span = %q, want empty string", traceID)
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ctx := context.Background()
	ti := NewToolInvocation("test").WithSpanContext(ctx)

	if ti.TraceID != "" {
		t.Errorf("TraceID = %q, want empty string", ti.TraceID)
	}
	if ti.SpanID != "" {
		t.Errorf("SpanID = %q, want empty string", ti.SpanID)
	}
}

func TestToolInvocation_Complete_NilError(t *testing.T) {
	ti := NewToolInvocation("test")
	ti.Complete(true, nil)

	if ti.Error != "" {
		t.Errorf("Error = %q, want empty string", ti.Error)
	}
}
