package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gsvibhav/mcp-entra/internal/agent"
	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/jira"
	"github.com/gsvibhav/mcp-entra/internal/notify"
	"github.com/gsvibhav/mcp-entra/internal/server"
)

// newAgentCmd creates the Cobra command for starting the agent API.
func newAgentCmd() *cobra.Command {
	var (
		addr        string
		mcpEndpoint string
		debugMode   bool
	)

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the conversational agent API",
		Long: `Start the HTTP agent API that fronts the MCP Entra server.

The agent accepts chat messages on POST /agent, routes lockout and
tenant questions straight to the matching tools, and turns PIM
eligibility requests into an approval flow: it files a Jira ticket,
notifies the manager on Slack and Teams, and only calls pim_assign
after the manager approves via the webhook or click endpoints.

Configuration comes from AGENT_ADDR, MCP_BASE, AGENT_API_KEY,
APPROVAL_SHARED_SECRET, APPROVAL_CLICK_TOKEN, PENDING_TTL_SEC and the
Jira and notification environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(addr, mcpEndpoint, debugMode)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides AGENT_ADDR)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP server endpoint URL (overrides MCP_BASE)")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")

	return cmd
}

// runAgent wires the agent API together and blocks until shutdown.
func runAgent(addr, mcpEndpoint string, debugMode bool) error {
	cfg := agent.ConfigFromEnv()
	cfg.Version = rootCmd.Version
	if addr != "" {
		cfg.Addr = addr
	}
	if mcpEndpoint != "" {
		cfg.MCPEndpoint = mcpEndpoint
	}

	serverConfig := server.NewDefaultConfig()
	logger := newSlogLogger(serverConfig, debugMode)

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceName = "mcp-entra-agent"
	instrumentationConfig.ServiceVersion = rootCmd.Version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := provider.Shutdown(context.Background()); shutdownErr != nil {
			log.Printf("Error during instrumentation shutdown: %v", shutdownErr)
		}
	}()

	jiraConfig := jira.ConfigFromEnv()
	jiraConfig.Logger = logger
	jiraClient, err := jira.NewClient(jiraConfig)
	if err != nil {
		return fmt.Errorf("failed to create Jira client: %w", err)
	}
	if jiraConfig.Mock {
		logger.Warn("Jira mock mode enabled: tickets will not be filed in a real project")
	}

	notifyConfig := notify.ConfigFromEnv()
	notifyConfig.Logger = logger
	notifier := notify.NewNotifier(notifyConfig)

	tools, err := agent.NewMCPToolCaller(shutdownCtx, cfg.MCPEndpoint, "mcp-entra-agent", rootCmd.Version)
	if err != nil {
		return fmt.Errorf("failed to connect to MCP server at %s: %w", cfg.MCPEndpoint, err)
	}
	defer func() {
		if closeErr := tools.Close(); closeErr != nil {
			log.Printf("Error closing MCP client: %v", closeErr)
		}
	}()

	agentServer, err := agent.NewServer(cfg, tools, jiraClient, notifier, logger, provider)
	if err != nil {
		return fmt.Errorf("failed to create agent server: %w", err)
	}

	logger.Info("starting agent API", "addr", cfg.Addr, "mcp_endpoint", cfg.MCPEndpoint)
	return agentServer.Start(shutdownCtx)
}
