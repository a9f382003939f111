package server

import (
	"context"
	"sync"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
)

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle
// management.
type ServerContext struct {
	// Core dependencies
	graphClient graph.Client
	logger      Logger
	config      *Config

	// Instrumentation
	instrumentationProvider *instrumentation.Provider

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
		config: NewDefaultConfig(),
		logger: NewDefaultLogger(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// GraphClient returns the Microsoft Graph client interface.
func (sc *ServerContext) GraphClient() graph.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.graphClient
}

// Logger returns the logger interface.
func (sc *ServerContext) Logger() Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// InstrumentationProvider returns the instrumentation provider, which may
// be nil when observability is disabled.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// Shutdown gracefully shuts down the server context.
// This cancels the context and releases any resources.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("Shutting down server context")

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	sc.logger.Info("Server context shutdown complete")
	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.graphClient == nil {
		return ErrMissingGraphClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Logger defines the interface for logging operations.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, args ...interface{})

	// Debug logs a debug message.
	Debug(msg string, args ...interface{})

	// Warn logs a warning message.
	Warn(msg string, args ...interface{})

	// Error logs an error message.
	Error(msg string, args ...interface{})

	// With returns a new logger with additional context fields.
	With(args ...interface{}) Logger
}

// Config holds the server configuration.
type Config struct {
	// Server settings
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// PIM guardrail settings
	MinDurationMinutes int      `json:"minDurationMinutes"`
	MaxDurationMinutes int      `json:"maxDurationMinutes"`
	ScopeAllowlist     []string `json:"scopeAllowlist"`
	TicketKeywords     []string `json:"ticketKeywords"`

	// Simulate mode skips all Graph write paths and fabricates identifiers.
	Simulate bool `json:"simulate"`

	// Logging settings
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName:         "mcp-entra",
		Version:            "0.1.0",
		MinDurationMinutes: 15,
		MaxDurationMinutes: 240,
		ScopeAllowlist:     []string{"/"},
		TicketKeywords:     []string{"ops-", "sec-", "iac-", "ticket", "inc", "chg"},
		Simulate:           false,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c

	if c.ScopeAllowlist != nil {
		clone.ScopeAllowlist = make([]string, len(c.ScopeAllowlist))
		copy(clone.ScopeAllowlist, c.ScopeAllowlist)
	}
	if c.TicketKeywords != nil {
		clone.TicketKeywords = make([]string, len(c.TicketKeywords))
		copy(clone.TicketKeywords, c.TicketKeywords)
	}

	return &clone
}
