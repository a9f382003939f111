package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
)

// DefaultMetricsAddr is the default listen address for the metrics server.
const DefaultMetricsAddr = ":9090"

// MetricsServerConfig holds the configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the listen address. Defaults to DefaultMetricsAddr.
	Addr string

	// InstrumentationProvider supplies the Prometheus registry. Required.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer exposes Prometheus metrics on a dedicated listener,
// separate from the MCP transport, so scrapes never contend with tool
// traffic.
type MetricsServer struct {
	addr   string
	server *http.Server
}

// NewMetricsServer creates a metrics server serving /metrics and a basic
// /healthz endpoint.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &MetricsServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the configured listen address.
func (m *MetricsServer) Addr() string {
	return m.addr
}

// Start runs the metrics server. It blocks until the server stops and
// returns http.ErrServerClosed after a graceful shutdown.
func (m *MetricsServer) Start() error {
	err := m.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return http.ErrServerClosed
	}
	return err
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
