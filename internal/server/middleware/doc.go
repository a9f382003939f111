// Package middleware provides HTTP middleware shared by the MCP transport
// and the agent API: request metrics with cardinality-safe path
// normalization, and security response headers.
package middleware
