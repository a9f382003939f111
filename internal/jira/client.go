package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/gsvibhav/mcp-entra/internal/logging"
)

// DefaultProject is the Jira project key used when JIRA_PROJECT is unset.
const DefaultProject = "OPS"

// Issue is a created Jira issue.
type Issue struct {
	Key  string `json:"key"`
	ID   string `json:"id"`
	Mock bool   `json:"mock,omitempty"`
}

// Client creates issues and comments for approval tickets.
type Client interface {
	// CreateIssue opens an issue and returns it.
	CreateIssue(ctx context.Context, summary, description, issueType string, labels []string) (*Issue, error)

	// Comment appends a comment to an issue.
	Comment(ctx context.Context, issueKey, body string) error
}

// Config holds the Jira connection settings.
type Config struct {
	// BaseURL is the Jira site URL. Required unless Mock is set.
	BaseURL string

	// User and Token are the basic auth credentials (API token).
	// Required unless Mock is set.
	User  string
	Token string

	// Project is the project key new issues are filed under.
	Project string

	// AssigneeID, when set, is the account ID assigned to new issues.
	AssigneeID string

	// Mock fabricates issue keys instead of calling Jira.
	Mock bool

	// Timeout is the per-request timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// ConfigFromEnv reads the Jira settings from the environment. Mock mode
// is the default so local runs never need Jira credentials.
func ConfigFromEnv() Config {
	mock := true
	if v := os.Getenv("JIRA_MOCK"); v != "" {
		mock = strings.EqualFold(v, "true")
	}
	project := os.Getenv("JIRA_PROJECT")
	if project == "" {
		project = DefaultProject
	}
	return Config{
		BaseURL:    os.Getenv("JIRA_BASE"),
		User:       os.Getenv("JIRA_USER"),
		Token:      os.Getenv("JIRA_TOKEN"),
		Project:    project,
		AssigneeID: os.Getenv("JIRA_IT_ASSIGNEE_ID"),
		Mock:       mock,
	}
}

// client is the REST v3 implementation of Client.
type client struct {
	baseURL    string
	user       string
	token      string
	project    string
	assigneeID string
	mock       bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Jira client. Live mode requires BaseURL, User and
// Token; mock mode requires nothing.
func NewClient(cfg Config) (Client, error) {
	if !cfg.Mock && (cfg.BaseURL == "" || cfg.User == "" || cfg.Token == "") {
		return nil, fmt.Errorf("missing JIRA_BASE/JIRA_USER/JIRA_TOKEN configuration")
	}
	if cfg.Project == "" {
		cfg.Project = DefaultProject
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.Logger = nil

	return &client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		user:       cfg.User,
		token:      cfg.Token,
		project:    cfg.Project,
		assigneeID: cfg.AssigneeID,
		mock:       cfg.Mock,
		httpClient: retryClient.StandardClient(),
		logger:     cfg.Logger,
	}, nil
}

// newTestClient builds a live-mode client for httptest servers.
func newTestClient(baseURL string, httpClient *http.Client) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		user:       "test",
		token:      "test",
		project:    DefaultProject,
		httpClient: httpClient,
		logger:     slog.Default(),
	}
}

type issueFields struct {
	Project     projectRef  `json:"project"`
	Summary     string      `json:"summary"`
	IssueType   issueType   `json:"issuetype"`
	Description string      `json:"description"`
	Labels      []string    `json:"labels,omitempty"`
	Assignee    *accountRef `json:"assignee,omitempty"`
}

type projectRef struct {
	Key string `json:"key"`
}

type issueType struct {
	Name string `json:"name"`
}

type accountRef struct {
	ID string `json:"id"`
}

// CreateIssue implements Client.
func (c *client) CreateIssue(ctx context.Context, summary, description, issueType string, labels []string) (*Issue, error) {
	if c.mock {
		key := "MOCK-" + uuid.NewString()[:8]
		c.logger.Info("mock issue created", logging.KeyTicket, key, "summary", summary)
		return &Issue{Key: key, ID: key, Mock: true}, nil
	}

	fields := issueFields{
		Project:     projectRef{Key: c.project},
		Summary:     summary,
		IssueType:   issueTypeOrDefault(issueType),
		Description: description,
		Labels:      labels,
	}
	if c.assigneeID != "" {
		fields.Assignee = &accountRef{ID: c.assigneeID}
	}

	var issue Issue
	if err := c.post(ctx, "/rest/api/3/issue", map[string]any{"fields": fields}, &issue); err != nil {
		return nil, fmt.Errorf("jira issue creation failed: %w", err)
	}

	c.logger.Info("issue created", logging.KeyTicket, issue.Key)
	return &issue, nil
}

// Comment implements Client.
func (c *client) Comment(ctx context.Context, issueKey, body string) error {
	if c.mock {
		c.logger.Info("mock comment added", logging.KeyTicket, issueKey)
		return nil
	}

	path := fmt.Sprintf("/rest/api/3/issue/%s/comment", issueKey)
	if err := c.post(ctx, path, map[string]any{"body": body}, nil); err != nil {
		return fmt.Errorf("jira comment failed: %w", err)
	}
	return nil
}

func issueTypeOrDefault(name string) issueType {
	if name == "" {
		name = "Task"
	}
	return issueType{Name: name}
}

// post sends an authenticated JSON POST and decodes the response into
// out when out is non-nil.
func (c *client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
