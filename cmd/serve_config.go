package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gsvibhav/mcp-entra/internal/graph"
	"github.com/gsvibhav/mcp-entra/internal/server"
)

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// Tool behavior
	Simulate  bool
	DebugMode bool

	// Metrics configuration (dedicated listener)
	Metrics MetricsServeConfig
}

// MetricsServeConfig holds the dedicated metrics server configuration.
type MetricsServeConfig struct {
	Enabled bool
	Addr    string
}

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// parseIntEnv parses an integer from an environment variable value.
// Returns the parsed int and true if successful, or zero and false if
// parsing fails. Logs a warning if the value is present but invalid.
func parseIntEnv(value, envName string) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer for %s=%q: %v", envName, value, err)
		return 0, false
	}
	return n, true
}

// loadGraphConfigFromEnv builds the Graph client configuration from the
// TENANT_ID, CLIENT_ID and CLIENT_SECRET environment variables.
func loadGraphConfigFromEnv() graph.Config {
	return graph.Config{
		TenantID:     os.Getenv("TENANT_ID"),
		ClientID:     os.Getenv("CLIENT_ID"),
		ClientSecret: os.Getenv("CLIENT_SECRET"),
		BaseURL:      os.Getenv("GRAPH_BASE_URL"),
	}
}

// loadGuardrailsFromEnv overrides the PIM guardrail defaults from the
// environment. The allowlist is comma separated.
func loadGuardrailsFromEnv(cfg *server.Config) {
	if min, ok := parseIntEnv(os.Getenv("PIM_MIN_DURATION"), "PIM_MIN_DURATION"); ok {
		cfg.MinDurationMinutes = min
	}
	if max, ok := parseIntEnv(os.Getenv("PIM_MAX_DURATION"), "PIM_MAX_DURATION"); ok {
		cfg.MaxDurationMinutes = max
	}
	if allowlist := os.Getenv("PIM_SCOPE_ALLOWLIST"); allowlist != "" {
		var scopes []string
		for _, scope := range strings.Split(allowlist, ",") {
			if scope = strings.TrimSpace(scope); scope != "" {
				scopes = append(scopes, scope)
			}
		}
		if len(scopes) > 0 {
			cfg.ScopeAllowlist = scopes
		}
	}
	if strings.EqualFold(os.Getenv("PIM_SIMULATE"), envValueTrue) {
		cfg.Simulate = true
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
}

// newSlogLogger builds the process logger from the configured level and
// format. Stdio transport logs to stderr so MCP framing stays clean.
func newSlogLogger(cfg *server.Config, debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// validateServeConfig rejects transport values the server cannot run.
func validateServeConfig(config ServeConfig) error {
	switch config.Transport {
	case transportStdio, transportSSE, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}
}
