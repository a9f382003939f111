package instrumentation

import (
	"context"
	"testing"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if p.Enabled() {
		t.Error("Enabled() should be false")
	}
	if p.Metrics() != nil {
		t.Error("Metrics() should be nil when disabled")
	}
	if p.AuditLogger() != nil {
		t.Error("AuditLogger() should be nil when disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProvider_StdoutExporters(t *testing.T) {
	cfg := Config{
		ServiceName:       "mcp-entra-test",
		ServiceVersion:    "test",
		Enabled:           true,
		MetricsExporter:   "stdout",
		TracingExporter:   "stdout",
		TraceSamplingRate: 1.0,
	}

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	if !p.Enabled() {
		t.Error("Enabled() should be true")
	}
	if p.Metrics() == nil {
		t.Fatal("Metrics() should not be nil")
	}
	if p.AuditLogger() == nil {
		t.Fatal("AuditLogger() should not be nil")
	}
}

func TestNewProvider_NoTracing(t *testing.T) {
	cfg := Config{
		ServiceName:     "mcp-entra-test",
		Enabled:         true,
		MetricsExporter: "stdout",
		TracingExporter: "none",
	}

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	if p.tracerProvider != nil {
		t.Error("tracerProvider should be nil when tracing is disabled")
	}
}

func TestNilProvider(t *testing.T) {
	var p *Provider

	if p.Enabled() {
		t.Error("nil provider should report disabled")
	}
	if p.Metrics() != nil {
		t.Error("nil provider Metrics() should be nil")
	}
	if p.AuditLogger() != nil {
		t.Error("nil provider AuditLogger() should be nil")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown() error = %v", err)
	}
}
