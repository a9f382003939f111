package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"root", "/", "/"},
		{"agent endpoint", "/agent", "/agent"},
		{"mcp session", "/mcp/abc123xyz0", "/mcp/:session"},
		{"uuid in path", "/users/550e8400-e29b-41d4-a716-446655440000", "/users/:uuid"},
		{"request id in path", "/approvals/pim/req_1693412345678_a1b2c3", "/approvals/pim/:rid"},
		{"numeric id", "/items/12345", "/items/:id"},
		{"numeric id with suffix", "/items/12345/detail", "/items/:id/detail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics_NilProvider(t *testing.T) {
	var called bool
	handler := HTTPMetrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent", nil))

	if !called {
		t.Error("next handler was not called")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestHTTPMetrics_DisabledProvider(t *testing.T) {
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	var called bool
	handler := HTTPMetrics(provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent", nil))

	if !called {
		t.Error("next handler was not called")
	}
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusInternalServerError) // second call should not override

	if rw.statusCode != http.StatusAccepted {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusAccepted)
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	if _, err := rw.Write([]byte("ok")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusOK)
	}
}
