package server

import (
	"errors"
	"log/slog"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithGraphClient sets the Microsoft Graph client for the ServerContext.
func WithGraphClient(client graph.Client) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingGraphClient
		}
		sc.graphClient = client
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig sets the configuration for the ServerContext.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// WithServerName sets the server name in the configuration.
func WithServerName(name string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.ServerName = name
		return nil
	}
}

// WithVersion sets the server version in the configuration.
func WithVersion(version string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.Version = version
		return nil
	}
}

// WithSimulateMode enables or disables simulate mode. In simulate mode the
// PIM tools never call Graph write endpoints and fabricate identifiers.
func WithSimulateMode(enabled bool) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.Simulate = enabled
		return nil
	}
}

// WithScopeAllowlist sets the directory scopes PIM assignments may target.
func WithScopeAllowlist(scopes []string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		if scopes != nil {
			sc.config.ScopeAllowlist = make([]string, len(scopes))
			copy(sc.config.ScopeAllowlist, scopes)
		}
		return nil
	}
}

// WithDurationLimits sets the minimum and maximum eligibility duration in
// minutes for PIM assignments.
func WithDurationLimits(minMinutes, maxMinutes int) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		if minMinutes > 0 {
			sc.config.MinDurationMinutes = minMinutes
		}
		if maxMinutes > 0 {
			sc.config.MaxDurationMinutes = maxMinutes
		}
		return nil
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.LogLevel = level
		return nil
	}
}

// WithInstrumentationProvider sets the OpenTelemetry instrumentation provider.
// This enables production-grade observability including metrics and tracing.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingGraphClient = errors.New("graph client is required")
	ErrMissingLogger      = errors.New("logger is required")
	ErrMissingConfig      = errors.New("configuration is required")
	ErrServerShutdown     = errors.New("server context has been shutdown")
)

// DefaultLogger adapts slog to the Logger interface.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger backed by slog.Default().
func NewDefaultLogger() Logger {
	return &DefaultLogger{logger: slog.Default()}
}

// NewSlogLogger wraps an existing slog.Logger in the Logger interface.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultLogger{logger: logger}
}

// Info logs an informational message.
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.logger.Info(msg, args...)
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debug(msg, args...)
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.logger.Error(msg, args...)
}

// With returns a new logger with additional context fields.
func (l *DefaultLogger) With(args ...interface{}) Logger {
	return &DefaultLogger{logger: l.logger.With(args...)}
}
