// Package tenant implements the tenant-level MCP tools.
//
// graph_ping verifies Graph connectivity by reading the organization
// object and returning the tenant display name and ID.
package tenant
