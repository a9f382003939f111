package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the mcp-entra package.
const TracerName = "github.com/gsvibhav/mcp-entra"

// Span attribute keys for MCP tool and Microsoft Graph operations.
const (
	// SpanAttrTool is the MCP tool name.
	SpanAttrTool = "mcp.tool"

	// SpanAttrOperation is the logical Graph operation (list_signins, ping, etc.).
	SpanAttrOperation = "graph.operation"

	// SpanAttrUserHash is the anonymized principal identifier (never the raw UPN).
	SpanAttrUserHash = "mcp.user.hash"

	// SpanAttrUserDomain is the principal's UPN domain (lower cardinality).
	SpanAttrUserDomain = "mcp.user.domain"

	// SpanAttrRole is the Entra directory role name.
	SpanAttrRole = "entra.role"

	// SpanAttrScopeType is the classified directory scope type.
	SpanAttrScopeType = "entra.scope_type"

	// SpanAttrTicket is the change ticket reference.
	SpanAttrTicket = "mcp.ticket"

	// SpanAttrSimulate indicates whether the operation ran in simulate mode.
	SpanAttrSimulate = "mcp.simulate"

	// SpanAttrDryRun indicates whether the operation ran as a dry run.
	SpanAttrDryRun = "mcp.dry_run"

	// SpanAttrRequestID is the agent approval request identifier.
	SpanAttrRequestID = "agent.request_id"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming and cardinality controls.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithTool adds the MCP tool name attribute.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithOperation adds the logical Graph operation attribute.
func (b *SpanAttributeBuilder) WithOperation(operation string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrOperation, operation))
	return b
}

// WithUser adds user attributes with cardinality control.
// The full UPN is never attached to a span; only the anonymized hash
// and the domain are recorded.
func (b *SpanAttributeBuilder) WithUser(userHash, upn string) *SpanAttributeBuilder {
	if userHash != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUserHash, userHash))
	}
	b.attrs = append(b.attrs,
		attribute.String(SpanAttrUserDomain, ExtractUserDomain(upn)),
	)
	return b
}

// WithRole adds the directory role attribute.
func (b *SpanAttributeBuilder) WithRole(role string) *SpanAttributeBuilder {
	if role != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrRole, role))
	}
	return b
}

// WithScope adds the classified directory scope type attribute.
// The raw scope path may contain administrative unit identifiers, so
// only the classification is recorded.
func (b *SpanAttributeBuilder) WithScope(scope string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrScopeType, ClassifyScope(scope)))
	return b
}

// WithTicket adds the change ticket attribute.
func (b *SpanAttributeBuilder) WithTicket(ticket string) *SpanAttributeBuilder {
	if ticket != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrTicket, ticket))
	}
	return b
}

// WithSimulate adds the simulate mode indicator attribute.
func (b *SpanAttributeBuilder) WithSimulate(simulate bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrSimulate, simulate))
	return b
}

// WithDryRun adds the dry-run indicator attribute.
func (b *SpanAttributeBuilder) WithDryRun(dryRun bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrDryRun, dryRun))
	return b
}

// WithRequestID adds the agent approval request identifier attribute.
func (b *SpanAttributeBuilder) WithRequestID(requestID string) *SpanAttributeBuilder {
	if requestID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrRequestID, requestID))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a span for an MCP tool invocation.
// Automatically adds the tool name and sets the server span kind.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGraphSpan starts a span for a Microsoft Graph API operation.
// Includes the logical operation name and sets the client span kind.
func StartGraphSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "graph."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartApprovalSpan starts a span for approval workflow operations.
func StartApprovalSpan(ctx context.Context, operation, requestID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrOperation, operation),
		attribute.String(SpanAttrRequestID, requestID),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "approval."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

// SpanContextString returns a human-readable trace context string.
// Format: "trace_id=X span_id=Y" or empty string if no valid context.
func SpanContextString(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return "trace_id=" + span.SpanContext().TraceID().String() +
		" span_id=" + span.SpanContext().SpanID().String()
}
