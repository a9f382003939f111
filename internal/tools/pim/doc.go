// Package pim provides MCP tools for Privileged Identity Management:
// creating eligible role assignments and configuring role activation
// policies. Both tools default to dry-run and pass guardrail checks
// before any Graph identifier is resolved.
package pim
