// Package graph provides a Microsoft Graph API client for the tenant,
// sign-in log, and Privileged Identity Management (PIM) operations the MCP
// tools need.
//
// The Client interface is the seam between tool handlers and the Graph API.
// Handlers accept the interface so tests can substitute a fake; the real
// implementation authenticates with OAuth2 client credentials against the
// Microsoft identity platform and retries throttled requests.
//
// The package also contains the sign-in aggregation logic used by the
// entra_user_lockout tool. SummarizeLockout is pure and operates on
// already-fetched sign-in events, which keeps the classification rules
// testable without any HTTP involved.
package graph
