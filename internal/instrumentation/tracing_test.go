package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	// StartSpan reads the global tracer provider.
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("pim_assign").
		WithUser("user:a1b2c3d4", "jane@contoso.com").
		WithRole("Helpdesk Administrator").
		WithScope("/").
		WithTicket("OPS-1234").
		WithSimulate(true).
		Build()

	want := map[string]bool{
		SpanAttrTool:       false,
		SpanAttrUserHash:   false,
		SpanAttrUserDomain: false,
		SpanAttrRole:       false,
		SpanAttrScopeType:  false,
		SpanAttrTicket:     false,
		SpanAttrSimulate:   false,
	}
	for _, attr := range attrs {
		if _, ok := want[string(attr.Key)]; ok {
			want[string(attr.Key)] = true
		}
	}
	for key, found := range want {
		if !found {
			t.Errorf("missing attribute %s", key)
		}
	}
}

func TestSpanAttributeBuilder_SkipsEmpty(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithRole("").
		WithTicket("").
		WithRequestID("").
		Build()

	if len(attrs) != 0 {
		t.Errorf("expected no attributes for empty values, got %d", len(attrs))
	}
}

func TestStartToolSpan(t *testing.T) {
	recorder := newTestTracer(t)

	ctx, span := StartToolSpan(context.Background(), "graph_ping")
	if GetTraceID(ctx) == "" {
		t.Error("expected a valid trace ID inside the span")
	}
	SetSpanSuccess(span)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "tool.graph_ping" {
		t.Errorf("span name = %q, want %q", spans[0].Name(), "tool.graph_ping")
	}
}

func TestStartGraphSpan_Error(t *testing.T) {
	recorder := newTestTracer(t)

	_, span := StartGraphSpan(context.Background(), "list_signins")
	SetSpanError(span, errors.New("throttled"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("GetTraceID() = %q, want empty", id)
	}
	if id := GetSpanID(context.Background()); id != "" {
		t.Errorf("GetSpanID() = %q, want empty", id)
	}
	if s := SpanContextString(context.Background()); s != "" {
		t.Errorf("SpanContextString() = %q, want empty", s)
	}
}
