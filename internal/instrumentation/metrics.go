package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrTool      = "tool"
	attrOperation = "operation"
	attrDecision  = "decision"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	pendingApprovals    metric.Int64UpDownCounter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Microsoft Graph request metrics
	graphRequestsTotal   metric.Int64Counter
	graphRequestDuration metric.Float64Histogram

	// Approval workflow metrics
	approvalDecisionsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.pendingApprovals, err = meter.Int64UpDownCounter(
		"pending_approval_requests",
		metric.WithDescription("Number of PIM requests awaiting approval"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending_approval_requests gauge: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	// Microsoft Graph Metrics
	m.graphRequestsTotal, err = meter.Int64Counter(
		"graph_requests_total",
		metric.WithDescription("Total number of Microsoft Graph API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_requests_total counter: %w", err)
	}

	m.graphRequestDuration, err = meter.Float64Histogram(
		"graph_request_duration_seconds",
		metric.WithDescription("Microsoft Graph API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_request_duration_seconds histogram: %w", err)
	}

	// Approval Workflow Metrics
	m.approvalDecisionsTotal, err = meter.Int64Counter(
		"approval_decisions_total",
		metric.WithDescription("Total number of PIM approval decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create approval_decisions_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
// Status should be one of: "success", "error".
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGraphRequest records a Microsoft Graph API request with the logical
// operation name (e.g. "list_signins"), HTTP status code, and duration.
//
// CARDINALITY NOTE: the operation label is a fixed set of logical operation
// names, never a request path. Paths contain user and role identifiers and
// would explode cardinality.
func (m *Metrics) RecordGraphRequest(ctx context.Context, operation string, statusCode int, duration time.Duration) {
	if m == nil || m.graphRequestsTotal == nil || m.graphRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.graphRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.graphRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordApprovalDecision records a PIM approval decision.
// Decision should be one of: "approved", "denied", "expired".
func (m *Metrics) RecordApprovalDecision(ctx context.Context, decision string) {
	if m == nil || m.approvalDecisionsTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrDecision, decision),
	}

	m.approvalDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// IncrementPendingApprovals increments the pending approval requests counter.
func (m *Metrics) IncrementPendingApprovals(ctx context.Context) {
	if m == nil || m.pendingApprovals == nil {
		return // Instrumentation not initialized
	}

	m.pendingApprovals.Add(ctx, 1)
}

// DecrementPendingApprovals decrements the pending approval requests counter.
func (m *Metrics) DecrementPendingApprovals(ctx context.Context) {
	if m == nil || m.pendingApprovals == nil {
		return // Instrumentation not initialized
	}

	m.pendingApprovals.Add(ctx, -1)
}
