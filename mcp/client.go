// Package mcp integrates the Model Context Protocol in both directions:
// Client connects to external MCP servers and exposes their tools to the
// agent as a tool source, and NewServer / ServeStdio publish a local tool
// registry to MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ragops "github.com/donkit-ai/ragops-agent"
	"github.com/donkit-ai/ragops-agent/tool"
)

const (
	clientName    = "ragops-agent"
	clientVersion = "1.0.0"
)

// Client is a connection to one MCP server. It implements tool.Source, so a
// registry Discover pass picks up the server's tools and routes calls back
// through it. Client is safe for concurrent use.
type Client struct {
	client *client.Client
}

// NewStdio connects to an MCP server launched as a subprocess speaking the
// stdio transport. The command is the server executable; args are passed to
// it and env entries are added to its environment.
func NewStdio(ctx context.Context, command string, env []string, args ...string) (*Client, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("create stdio MCP client: %w", err)
	}
	return initialize(ctx, c)
}

// NewSSE connects to an MCP server over the SSE transport at baseURL.
func NewSSE(ctx context.Context, baseURL string) (*Client, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("create SSE MCP client: %w", err)
	}
	return initialize(ctx, c)
}

func initialize(ctx context.Context, c *client.Client) (*Client, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize MCP session: %w", err)
	}

	return &Client{client: c}, nil
}

// Close closes the connection to the MCP server.
func (c *Client) Close() error {
	return c.client.Close()
}

// ListTools fetches the server's current tool declarations.
func (c *Client) ListTools(ctx context.Context) ([]ragops.ToolFunction, error) {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	fns := make([]ragops.ToolFunction, len(result.Tools))
	for i, t := range result.Tools {
		fns[i] = fromMCPTool(t)
	}
	return fns, nil
}

// CallTool executes a tool on the server and returns its content flattened
// to text. A result the server marks as an error is returned as a Go error so
// the registry wraps it like a local handler failure.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	result, err := c.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return "", nil
	}

	content := flattenContent(result)
	if result.IsError {
		return nil, fmt.Errorf("%s", content)
	}
	return content, nil
}

// fromMCPTool converts an MCP tool declaration, preferring the raw schema
// when the server provided one.
func fromMCPTool(t mcp.Tool) ragops.ToolFunction {
	var schema json.RawMessage
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}

	return ragops.ToolFunction{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

// flattenContent concatenates a call result's content blocks as text.
// Non-text blocks and structured content are rendered as JSON.
func flattenContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}

var _ tool.Source = (*Client)(nil)
