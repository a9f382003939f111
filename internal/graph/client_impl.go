package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gsvibhav/mcp-entra/internal/instrumentation"
	"github.com/gsvibhav/mcp-entra/internal/logging"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// defaultScope is the client credentials scope for Graph.
	defaultScope = "https://graph.microsoft.com/.default"

	// signInPageSize is the $top value for sign-in log queries.
	signInPageSize = 50

	// maxSignInPages caps how many pagination links ListSignIns follows.
	maxSignInPages = 5
)

var guidPattern = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

// Config holds the credentials and endpoints for the Graph client.
type Config struct {
	// TenantID is the Entra tenant ID. Required.
	TenantID string

	// ClientID is the app registration's client ID. Required.
	ClientID string

	// ClientSecret is the app registration's client secret. Required.
	ClientSecret string

	// BaseURL overrides the Graph endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-request timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records request metrics when instrumentation is enabled.
	Metrics *instrumentation.Metrics
}

// client is the HTTP implementation of the Client interface.
type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewClient creates a Graph client that authenticates with OAuth2 client
// credentials and retries throttled or transient failures.
func NewClient(cfg Config) (Client, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("missing TENANT_ID/CLIENT_ID/CLIENT_SECRET configuration")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
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

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{defaultScope},
	}

	// Route token refreshes and API calls through the retrying client.
	baseCtx := context.WithValue(context.Background(), oauth2.HTTPClient, retryClient.StandardClient())

	return &client{
		baseURL:    cfg.BaseURL,
		httpClient: creds.Client(baseCtx),
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// newTestClient builds a client against an arbitrary HTTP client and base
// URL. Used by tests with httptest servers.
func newTestClient(baseURL string, httpClient *http.Client) *client {
	return &client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     slog.Default(),
	}
}

// do executes a Graph request and decodes the JSON response into out.
// Non-2xx responses are returned as *APIError with the Graph error code
// and message when present.
func (c *client) do(ctx context.Context, operation, method, requestURL string, body, out any, okCodes ...int) error {
	ctx, span := instrumentation.StartGraphSpan(ctx, operation)
	defer span.End()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordGraphRequest(ctx, operation, 0, time.Since(start))
		c.logger.ErrorContext(ctx, "graph request failed",
			logging.Operation(operation),
			logging.SanitizedErr(err))
		return fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordGraphRequest(ctx, operation, resp.StatusCode, time.Since(start))

	if !statusOK(resp.StatusCode, okCodes) {
		apiErr := decodeAPIError(resp)
		instrumentation.SetSpanError(span, apiErr)
		c.logger.WarnContext(ctx, "graph request returned error",
			logging.Operation(operation),
			slog.Int("status_code", resp.StatusCode),
			slog.String("graph_code", apiErr.Code))
		return apiErr
	}

	instrumentation.SetSpanSuccess(span)

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusOK(code int, okCodes []int) bool {
	if len(okCodes) == 0 {
		return code >= 200 && code < 300
	}
	for _, ok := range okCodes {
		if code == ok {
			return true
		}
	}
	return false
}

// graphErrorBody is the standard Graph error envelope.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		apiErr.Message = "failed to read error response"
		return apiErr
	}

	var body graphErrorBody
	if json.Unmarshal(raw, &body) == nil && body.Error.Code != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
		return apiErr
	}

	apiErr.Message = string(raw)
	return apiErr
}

// buildURL joins the base URL, a path, and query parameters.
func (c *client) buildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
