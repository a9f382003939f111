package instrumentation

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider owns the OpenTelemetry meter and tracer providers and the
// application metric instruments. A disabled provider is a cheap no-op:
// all Record* calls short-circuit.
type Provider struct {
	config Config

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider

	metrics     *Metrics
	auditLogger *AuditLogger
}

// NewProvider creates a new instrumentation provider from the given config.
// When config.Enabled is false, the returned provider is inert and Shutdown
// is a no-op.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instrumentation config: %w", err)
	}

	p := &Provider{config: config}

	if !config.Enabled {
		return p, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", config.ServiceName),
		attribute.String("service.version", config.ServiceVersion),
	)

	reader, err := newMetricReader(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric reader: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(p.meterProvider)

	meter := p.meterProvider.Meter(config.ServiceName)
	p.metrics, err = NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	p.auditLogger = NewAuditLogger(slog.Default(), p.metrics)

	if config.TracingExporter != "" && config.TracingExporter != "none" {
		exporter, err := newTraceExporter(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(
				sdktrace.TraceIDRatioBased(config.TraceSamplingRate),
			)),
		)
		otel.SetTracerProvider(p.tracerProvider)
	}

	return p, nil
}

// newMetricReader creates the metric reader for the configured exporter.
func newMetricReader(ctx context.Context, config Config) (sdkmetric.Reader, error) {
	switch config.MetricsExporter {
	case "otlp":
		opts := []otlpmetrichttp.Option{}
		if config.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpointURL(config.OTLPEndpoint))
		}
		if config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exporter), nil
	case "stdout":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exporter), nil
	default:
		// Registers with the global Prometheus registry; the dedicated
		// metrics server exposes it via promhttp.
		return otelprom.New()
	}
}

// newTraceExporter creates the span exporter for the configured exporter.
func newTraceExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	switch config.TracingExporter {
	case "otlp":
		opts := []otlptracehttp.Option{}
		if config.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(config.OTLPEndpoint))
		}
		if config.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case "stdout":
		return stdouttrace.New()
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", config.TracingExporter)
	}
}

// Enabled reports whether instrumentation is active.
func (p *Provider) Enabled() bool {
	return p != nil && p.config.Enabled
}

// Config returns the provider configuration.
func (p *Provider) Config() Config {
	return p.config
}

// Metrics returns the metric instruments, or nil when disabled.
func (p *Provider) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// AuditLogger returns the audit logger, or nil when disabled.
func (p *Provider) AuditLogger() *AuditLogger {
	if p == nil {
		return nil
	}
	return p.auditLogger
}

// Shutdown flushes and stops the meter and tracer providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || !p.config.Enabled {
		return nil
	}

	var firstErr error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("meter provider shutdown: %w", err)
		}
	}
	return firstErr
}
