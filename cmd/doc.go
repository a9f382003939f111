// Package cmd provides the command-line interface for mcp-entra.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - agent: Starts the Agent API HTTP server for the approval workflow
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// The CLI runs the serve command when no subcommand is specified.
//
// Command Structure:
//
//	mcp-entra [flags]                 # Starts the MCP server (default)
//	mcp-entra serve [flags]           # Explicitly starts the MCP server
//	mcp-entra agent [flags]           # Starts the Agent API
//	mcp-entra version                 # Shows version information
//	mcp-entra self-update             # Updates to latest release
//	mcp-entra help [command]          # Shows help information
//
// The serve command supports multiple transport options:
//   - stdio: Standard input/output (default) - for command-line integration
//   - sse: Server-Sent Events over HTTP - for web-based clients
//   - streamable-http: Streamable HTTP transport - for HTTP-based integration
//
// Transport Configuration Examples:
//
//	mcp-entra serve --transport stdio           # Default STDIO transport
//	mcp-entra serve --transport sse --http-addr :8000 --sse-endpoint /sse
//	mcp-entra serve --transport streamable-http --http-addr :8000 --http-endpoint /mcp
//
// Graph credentials (TENANT_ID, CLIENT_ID, CLIENT_SECRET) and the PIM
// guardrails (PIM_MIN_DURATION, PIM_MAX_DURATION, PIM_SCOPE_ALLOWLIST,
// PIM_SIMULATE) are read from the environment.
package cmd
