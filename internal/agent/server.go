package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/jira"
	"github.com/gsvibhav/mcp-entra/internal/notify"
	"github.com/gsvibhav/mcp-entra/internal/server/middleware"
)

// DefaultAddr is the Agent API listen address.
const DefaultAddr = ":8001"

// DefaultMCPEndpoint is the MCP server's streamable HTTP endpoint.
const DefaultMCPEndpoint = "http://127.0.0.1:8000/mcp"

// Config holds the Agent API settings.
type Config struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// MCPEndpoint is the MCP server endpoint the agent calls tools on.
	MCPEndpoint string

	// APIKey is the bearer token required on POST /agent.
	APIKey string

	// ApprovalSecret is the bearer token required on POST /approvals/pim.
	ApprovalSecret string

	// ClickToken authenticates GET /approvals/pim/click links.
	ClickToken string

	// DefaultSimulate decides whether approved assignments run in
	// simulate mode when a request does not say otherwise.
	DefaultSimulate bool

	// PendingTTL is how long approvals stay claimable.
	PendingTTL time.Duration

	// Version is reported by the MCP client handshake.
	Version string
}

// ConfigFromEnv reads the Agent API settings from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:            DefaultAddr,
		MCPEndpoint:     DefaultMCPEndpoint,
		APIKey:          "dev",
		ApprovalSecret:  "devsecret",
		ClickToken:      "clicksecret",
		DefaultSimulate: strings.EqualFold(os.Getenv("PIM_SIMULATE"), "true"),
		PendingTTL:      DefaultPendingTTL,
	}
	if v := os.Getenv("AGENT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MCP_BASE"); v != "" {
		cfg.MCPEndpoint = v
	}
	if v := os.Getenv("AGENT_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("APPROVAL_SHARED_SECRET"); v != "" {
		cfg.ApprovalSecret = v
	}
	if v := os.Getenv("APPROVAL_CLICK_TOKEN"); v != "" {
		cfg.ClickToken = v
	}
	if v := os.Getenv("PENDING_TTL_SEC"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PendingTTL = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// Server is the Agent API HTTP server.
type Server struct {
	config     Config
	tools      ToolCaller
	jira       jira.Client
	notifier   *notify.Notifier
	pending    *PendingStore
	logger     *slog.Logger
	provider   *instrumentation.Provider
	httpServer *http.Server
}

// NewServer wires the Agent API from its dependencies.
func NewServer(cfg Config, tools ToolCaller, jiraClient jira.Client, notifier *notify.Notifier, logger *slog.Logger, provider *instrumentation.Provider) (*Server, error) {
	if tools == nil {
		return nil, fmt.Errorf("tool caller is required")
	}
	if jiraClient == nil {
		return nil, fmt.Errorf("jira client is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config:   cfg,
		tools:    tools,
		jira:     jiraClient,
		notifier: notifier,
		pending:  NewPendingStore(cfg.PendingTTL),
		logger:   logger,
		provider: provider,
	}, nil
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPMetrics(s.provider))
	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth(s.config.APIKey, "Unauthorized"))
		r.Post("/agent", s.handleChat)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth(s.config.ApprovalSecret, "Unauthorized approval webhook"))
		r.Post("/approvals/pim", s.handleApproval)
	})

	r.Get("/approvals/pim/click", s.handleApprovalClick)

	return r
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Agent API listening", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// bearerAuth requires "Bearer <token>" in the Authorization header.
func (s *Server) bearerAuth(token, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
