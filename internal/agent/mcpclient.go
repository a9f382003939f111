package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolCaller is the agent's view of the MCP server. Handlers depend on
// this interface so tests can substitute fakes.
type ToolCaller interface {
	// ListTools returns the names of the tools the MCP server exposes.
	ListTools(ctx context.Context) ([]string, error)

	// CallTool invokes a tool and decodes its JSON text result. A tool
	// error result is returned as a Go error.
	CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)

	// Close shuts the client transport down.
	Close() error
}

// mcpToolCaller talks to the MCP server over streamable HTTP.
type mcpToolCaller struct {
	client *client.Client
}

// NewMCPToolCaller connects to the MCP server at endpoint (e.g.
// "http://127.0.0.1:8000/mcp") and performs the initialize handshake.
func NewMCPToolCaller(ctx context.Context, endpoint, name, version string) (ToolCaller, error) {
	mcpClient, err := client.NewStreamableHttpClient(endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating MCP client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting MCP transport: %w", err)
	}

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    name,
				Version: version,
			},
		},
	})
	if err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("initializing MCP client: %w", err)
	}

	return &mcpToolCaller{client: mcpClient}, nil
}

// ListTools implements ToolCaller.
func (c *mcpToolCaller) ListTools(ctx context.Context) ([]string, error) {
	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	names := make([]string, 0, len(resp.Tools))
	for _, tool := range resp.Tools {
		names = append(names, tool.Name)
	}
	return names, nil
}

// CallTool implements ToolCaller.
func (c *mcpToolCaller) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	result, err := c.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling tool %s: %w", name, err)
	}

	text := firstText(result)
	if result.IsError {
		return nil, fmt.Errorf("tool %s failed: %s", name, text)
	}

	decoded := map[string]any{}
	if text != "" {
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, fmt.Errorf("decoding tool %s result: %w", name, err)
		}
	}
	return decoded, nil
}

// Close implements ToolCaller.
func (c *mcpToolCaller) Close() error {
	return c.client.Close()
}

func firstText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
