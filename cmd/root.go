package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-entra application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcp-entra",
	Short: "MCP server for Microsoft Entra ID operations",
	Long: `mcp-entra is a Model Context Protocol (MCP) server that provides
tools for Microsoft Entra ID operations via Microsoft Graph: sign-in
lockout triage, tenant connectivity checks, and Privileged Identity
Management (eligible assignments and role activation policies).

It also ships an Agent API ('mcp-entra agent') that fronts the MCP
server with a chat endpoint and a Jira/Slack/Teams approval workflow
for privileged assignments.

When run without subcommands, it starts the MCP server (equivalent to 'mcp-entra serve').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-entra version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAgentCmd())
}
