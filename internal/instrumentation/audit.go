package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures the full context of a single MCP tool invocation
// for audit logging and metrics. Build one at the start of a handler, enrich
// it as details become known, and complete it when the handler returns.
type ToolInvocation struct {
	// Tool is the MCP tool name.
	Tool string

	// StartTime is when the invocation began.
	StartTime time.Time

	// Duration is the total invocation duration, set on completion.
	Duration time.Duration

	// Success indicates whether the invocation succeeded.
	Success bool

	// Error is the error message when Success is false.
	Error string

	// UserUPN is the target user principal name, when the tool acts on a user.
	UserUPN string

	// Role is the Entra directory role name, for PIM tools.
	Role string

	// Scope is the directory scope path, for PIM tools.
	Scope string

	// Ticket is the change ticket reference, for PIM tools.
	Ticket string

	// Simulate indicates the invocation ran in simulate mode.
	Simulate bool

	// TraceID and SpanID link the audit record to the active trace.
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a ToolInvocation with the start time set.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithUser sets the target user principal name.
func (ti *ToolInvocation) WithUser(upn string) *ToolInvocation {
	ti.UserUPN = upn
	return ti
}

// WithRole sets the directory role and scope.
func (ti *ToolInvocation) WithRole(role, scope string) *ToolInvocation {
	ti.Role = role
	ti.Scope = scope
	return ti
}

// WithTicket sets the change ticket reference.
func (ti *ToolInvocation) WithTicket(ticket string) *ToolInvocation {
	ti.Ticket = ticket
	return ti
}

// WithSimulate marks the invocation as running in simulate mode.
func (ti *ToolInvocation) WithSimulate(simulate bool) *ToolInvocation {
	ti.Simulate = simulate
	return ti
}

// WithSpanContext copies the trace and span IDs from the context, if a
// valid span is present.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete finishes the invocation with the given outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteSuccess finishes the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// CompleteWithError finishes the invocation as failed.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// UserDomain returns the cardinality-controlled UPN domain.
func (ti *ToolInvocation) UserDomain() string {
	return ExtractUserDomain(ti.UserUPN)
}

// ScopeType returns the cardinality-controlled scope classification.
func (ti *ToolInvocation) ScopeType() string {
	return ClassifyScope(ti.Scope)
}

// Status returns "success" or "error" for use as a metric label.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return ToolResultSuccess
	}
	return ToolResultError
}

// LogAttrs returns cardinality-controlled slog attributes suitable for
// regular operational logging. Raw UPNs and scope paths are excluded.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user_domain", ti.UserDomain()),
		slog.String("scope_type", ti.ScopeType()),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Simulate {
		attrs = append(attrs, slog.Bool("simulate", true))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	return attrs
}

// LogAuditAttrs returns the full-fidelity slog attributes for the audit
// trail, including the raw UPN, role, and scope. Audit records are the
// one place where full identifiers are deliberately retained.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Time("start_time", ti.StartTime),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.UserUPN != "" {
		attrs = append(attrs, slog.String("user", ti.UserUPN))
	}
	if ti.Role != "" {
		attrs = append(attrs, slog.String("role", ti.Role))
	}
	if ti.Scope != "" {
		attrs = append(attrs, slog.String("scope", ti.Scope))
	}
	if ti.Ticket != "" {
		attrs = append(attrs, slog.String("ticket", ti.Ticket))
	}
	if ti.Simulate {
		attrs = append(attrs, slog.Bool("simulate", true))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return attrs
}

// AuditLogger writes structured audit records for completed tool
// invocations and records the corresponding metrics.
type AuditLogger struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewAuditLogger creates an AuditLogger. A nil logger falls back to
// slog.Default(). The metrics instance may be nil when instrumentation
// is disabled.
func NewAuditLogger(logger *slog.Logger, metrics *Metrics) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, metrics: metrics}
}

// LogToolInvocation writes the audit record for a completed invocation and
// records the tool invocation metric.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || ti == nil {
		return
	}

	level := slog.LevelInfo
	msg := "tool invocation"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool invocation failed"
	}
	al.logger.LogAttrs(ctx, level, msg, ti.LogAuditAttrs()...)

	al.metrics.RecordToolInvocation(ctx, ti.Tool, ti.Status(), ti.Duration)
}

// TraceIDFromContext returns the trace ID of the active span in ctx, or
// empty string when none is present.
func TraceIDFromContext(ctx context.Context) string {
	return GetTraceID(ctx)
}
