// Package instrumentation provides OpenTelemetry-based observability for mcp-entra.
//
// The package is disabled by default for zero overhead. Enable it with
// INSTRUMENTATION_ENABLED=true to activate metrics and, optionally, tracing.
//
// # Metrics
//
// Exporters: prometheus (default), otlp, stdout. When the prometheus
// exporter is active, metrics are registered with the global Prometheus
// registry and served by the dedicated metrics server (see the serve
// command's --metrics-addr flag).
//
// Recorded instruments:
//   - http_requests_total / http_request_duration_seconds
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//   - graph_requests_total / graph_request_duration_seconds
//   - approval_decisions_total
//
// # Tracing
//
// Exporters: otlp, stdout, none (default). Sampling is ratio-based and
// configurable via OTEL_TRACES_SAMPLER_ARG.
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//	    ServiceName:     "mcp-entra",
//	    Enabled:         true,
//	    MetricsExporter: "prometheus",
//	})
//	if err != nil { ... }
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "graph_ping", "success", elapsed)
//
// # Cardinality
//
// Metric labels are restricted to bounded values (tool name, operation,
// status). User principal names never appear in metrics; use the domain
// helpers in this package when a user dimension is unavoidable.
package instrumentation
