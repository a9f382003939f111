// Package notify posts approval notifications with clickable approve and
// deny links to Slack and Teams incoming webhooks. Unconfigured webhooks
// are reported as not sent, never as errors, so the approval flow keeps
// working without chat integration.
package notify
