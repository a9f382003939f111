// Package agent implements the Agent API: a chat-style HTTP front end
// that routes requests to MCP tools and coordinates the human approval
// workflow (Jira ticket, Slack/Teams notification, approval webhook)
// required before a privileged PIM assignment is executed.
package agent
