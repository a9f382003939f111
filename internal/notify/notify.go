package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gsvibhav/mcp-entra/internal/logging"
)

// DefaultPublicBaseURL is where approval click links point when
// PUBLIC_BASE_URL is unset.
const DefaultPublicBaseURL = "http://127.0.0.1:8001"

// Config holds the notification settings.
type Config struct {
	// PublicBaseURL is the externally reachable Agent API base URL used
	// in approval links.
	PublicBaseURL string

	// SlackWebhookURL is the Slack incoming webhook. Optional.
	SlackWebhookURL string

	// TeamsWebhookURL is the Teams incoming webhook. Optional.
	TeamsWebhookURL string

	// ClickToken authenticates the click-approval links.
	ClickToken string

	// Timeout is the per-webhook timeout. Defaults to 15 seconds.
	Timeout time.Duration

	// Logger receives send logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// ConfigFromEnv reads the notification settings from the environment.
func ConfigFromEnv() Config {
	base := os.Getenv("PUBLIC_BASE_URL")
	if base == "" {
		base = DefaultPublicBaseURL
	}
	token := os.Getenv("APPROVAL_CLICK_TOKEN")
	if token == "" {
		token = "clicksecret"
	}
	return Config{
		PublicBaseURL:   base,
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		TeamsWebhookURL: os.Getenv("TEAMS_WEBHOOK_URL"),
		ClickToken:      token,
	}
}

// Approval describes one pending request to notify about.
type Approval struct {
	RequestID   string
	Ticket      string
	Title       string
	Details     string
	ApproverUPN string
}

// Result reports the outcome of one webhook send.
type Result struct {
	Sent   bool   `json:"sent"`
	Status int    `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Results carries both channel outcomes.
type Results struct {
	Slack Result `json:"slack"`
	Teams Result `json:"teams"`
}

// Notifier sends approval notifications.
type Notifier struct {
	config     Config
	httpClient *http.Client
}

// NewNotifier creates a notifier from the config.
func NewNotifier(cfg Config) *Notifier {
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = DefaultPublicBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Notifier{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ApprovalLinks returns the approve and deny click URLs for a request.
func (n *Notifier) ApprovalLinks(requestID, ticket, approverUPN string) (approveURL, denyURL string) {
	base := strings.TrimRight(n.config.PublicBaseURL, "/") + "/approvals/pim/click"
	return base + "?" + clickQuery(n.config.ClickToken, requestID, ticket, "approve", approverUPN),
		base + "?" + clickQuery(n.config.ClickToken, requestID, ticket, "deny", approverUPN)
}

func clickQuery(token, requestID, ticket, decision, approverUPN string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("request_id", requestID)
	q.Set("ticket", ticket)
	q.Set("decision", decision)
	q.Set("approver_upn", approverUPN)
	return q.Encode()
}

// SendApprovals notifies Slack and Teams concurrently. Failures are
// reported in the results, not returned as errors.
func (n *Notifier) SendApprovals(ctx context.Context, approval Approval) Results {
	var results Results

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results.Slack = n.SendSlackApproval(ctx, approval)
		return nil
	})
	g.Go(func() error {
		results.Teams = n.SendTeamsApproval(ctx, approval)
		return nil
	})
	_ = g.Wait()

	return results
}

// SendSlackApproval posts a Block Kit message with approve/deny buttons.
func (n *Notifier) SendSlackApproval(ctx context.Context, approval Approval) Result {
	if n.config.SlackWebhookURL == "" {
		return Result{Sent: false, Reason: "SLACK_WEBHOOK_URL not set"}
	}

	approveURL, denyURL := n.ApprovalLinks(approval.RequestID, approval.Ticket, approval.ApproverUPN)
	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*%s*\n%s", approval.Title, approval.Details),
				},
			},
			{
				"type": "actions",
				"elements": []map[string]any{
					slackButton("Approve ✅", approveURL),
					slackButton("Deny ❌", denyURL),
				},
			},
		},
	}

	return n.send(ctx, "slack", n.config.SlackWebhookURL, payload)
}

func slackButton(label, targetURL string) map[string]any {
	return map[string]any{
		"type": "button",
		"text": map[string]any{"type": "plain_text", "text": label},
		"url":  targetURL,
	}
}

// SendTeamsApproval posts a MessageCard with approve/deny actions.
func (n *Notifier) SendTeamsApproval(ctx context.Context, approval Approval) Result {
	if n.config.TeamsWebhookURL == "" {
		return Result{Sent: false, Reason: "TEAMS_WEBHOOK_URL not set"}
	}

	approveURL, denyURL := n.ApprovalLinks(approval.RequestID, approval.Ticket, approval.ApproverUPN)
	card := map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"summary":    approval.Title,
		"themeColor": "0078D7",
		"title":      approval.Title,
		"text":       approval.Details,
		"potentialAction": []map[string]any{
			teamsAction("Approve ✅", approveURL),
			teamsAction("Deny ❌", denyURL),
		},
	}

	return n.send(ctx, "teams", n.config.TeamsWebhookURL, card)
}

func teamsAction(name, targetURL string) map[string]any {
	return map[string]any{
		"@type":   "OpenUri",
		"name":    name,
		"targets": []map[string]any{{"os": "default", "uri": targetURL}},
	}
}

func (n *Notifier) send(ctx context.Context, channel, webhookURL string, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Sent: false, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return Result{Sent: false, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.config.Logger.Warn("approval notification failed", "channel", channel, logging.KeyError, err.Error())
		return Result{Sent: false, Reason: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	sent := resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent
	if !sent {
		n.config.Logger.Warn("approval notification rejected", "channel", channel, "status", resp.StatusCode)
	}
	return Result{Sent: sent, Status: resp.StatusCode}
}

// RoleTitle normalizes a role label for display in tickets and
// notifications, e.g. "helpdesk administrator" to "Helpdesk
// Administrator". GUIDs pass through unchanged.
func RoleTitle(role string) string {
	if !strings.ContainsAny(role, " ") && strings.Count(role, "-") == 4 {
		return role
	}
	return cases.Title(language.English, cases.NoLower).String(role)
}
