package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("JIRA_MOCK", "")
	t.Setenv("JIRA_PROJECT", "")

	cfg := ConfigFromEnv()
	assert.True(t, cfg.Mock)
	assert.Equal(t, DefaultProject, cfg.Project)
}

func TestConfigFromEnv_Live(t *testing.T) {
	t.Setenv("JIRA_MOCK", "false")
	t.Setenv("JIRA_BASE", "https://example.atlassian.net")
	t.Setenv("JIRA_USER", "bot@example.com")
	t.Setenv("JIRA_TOKEN", "token")
	t.Setenv("JIRA_PROJECT", "SEC")

	cfg := ConfigFromEnv()
	assert.False(t, cfg.Mock)
	assert.Equal(t, "SEC", cfg.Project)
	assert.Equal(t, "https://example.atlassian.net", cfg.BaseURL)
}

func TestNewClient_LiveRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{Mock: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_BASE")
}

func TestCreateIssue_Mock(t *testing.T) {
	c, err := NewClient(Config{Mock: true})
	require.NoError(t, err)

	issue, err := c.CreateIssue(context.Background(), "summary", "description", "Task", nil)
	require.NoError(t, err)
	assert.True(t, issue.Mock)
	assert.True(t, strings.HasPrefix(issue.Key, "MOCK-"))
	assert.Len(t, issue.Key, len("MOCK-")+8)
}

func TestComment_Mock(t *testing.T) {
	c, err := NewClient(Config{Mock: true})
	require.NoError(t, err)
	require.NoError(t, c.Comment(context.Background(), "MOCK-12345678", "done"))
}

func TestCreateIssue_Live(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/3/issue", r.URL.Path)

		user, token, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test", user)
		assert.Equal(t, "test", token)

		var body struct {
			Fields issueFields `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultProject, body.Fields.Project.Key)
		assert.Equal(t, "Task", body.Fields.IssueType.Name)
		assert.Equal(t, []string{"PIM", "IDENTITY"}, body.Fields.Labels)
		assert.Nil(t, body.Fields.Assignee)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":"OPS-101","id":"10001"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())

	issue, err := c.CreateIssue(context.Background(), "summary", "description", "", []string{"PIM", "IDENTITY"})
	require.NoError(t, err)
	assert.Equal(t, "OPS-101", issue.Key)
	assert.False(t, issue.Mock)
}

func TestCreateIssue_LiveAssignee(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields issueFields `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.Fields.Assignee)
		assert.Equal(t, "acct-1", body.Fields.Assignee.ID)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":"OPS-102","id":"10002"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())
	c.assigneeID = "acct-1"

	_, err := c.CreateIssue(context.Background(), "summary", "description", "Task", nil)
	require.NoError(t, err)
}

func TestCreateIssue_LiveError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["project is required"]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())

	_, err := c.CreateIssue(context.Background(), "summary", "description", "Task", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira issue creation failed")
	assert.Contains(t, err.Error(), "400")
}

func TestComment_Live(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/OPS-101/comment", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approved by manager", body["body"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"20001"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())
	require.NoError(t, c.Comment(context.Background(), "OPS-101", "approved by manager"))
}

func TestComment_LiveError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages":["issue does not exist"]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())

	err := c.Comment(context.Background(), "OPS-999", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira comment failed")
}
