// Package signin provides MCP tools for investigating Entra ID sign-in
// activity, primarily lockout triage for a single user.
package signin
