// Package anthropic adapts the Anthropic Messages API to the ragops.Provider
// contract.
package anthropic

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ragops "github.com/donkit-ai/ragops-agent"
)

const DefaultModel = "claude-sonnet-4-20250514"

const defaultMaxTokens = 4096

// Client wraps the Anthropic SDK to implement ragops.Provider.
type Client struct {
	client *anthropic.Client
	model  string
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly instead of using the
// ANTHROPIC_API_KEY environment variable.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		client := anthropic.NewClient(option.WithAPIKey(key))
		c.client = &client
	}
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a new Anthropic client. Without WithAPIKey the SDK reads the
// key from the ANTHROPIC_API_KEY environment variable.
func New(opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		client := anthropic.NewClient()
		c.client = &client
	}
	return c
}

// SupportsTools reports that the Messages API accepts tool declarations.
func (c *Client) SupportsTools() bool { return true }

// SupportsStreaming reports that the Messages API supports server-sent event
// streaming.
func (c *Client) SupportsStreaming() bool { return true }

// Generate sends a conversation and returns a complete response.
func (c *Client) Generate(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (*ragops.Response, error) {
	params := c.buildParams(messages, opts...)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &ragops.Response{
		Content:   content,
		ToolCalls: extractToolCalls(resp.Content),
	}, nil
}

// GenerateStream sends a conversation and returns a channel of chunks. Text
// deltas are forwarded as they arrive; tool_use blocks are accumulated across
// the stream and delivered as a single final chunk.
func (c *Client) GenerateStream(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (<-chan ragops.Chunk, error) {
	params := c.buildParams(messages, opts...)

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := make(chan ragops.Chunk)

	go func() {
		defer close(ch)
		var acc anthropic.Message

		for stream.Next() {
			event := stream.Current()
			acc.Accumulate(event)

			if event.Type == "content_block_delta" {
				delta := event.AsContentBlockDelta()
				if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" && textDelta.Text != "" {
					select {
					case ch <- ragops.Chunk{Content: textDelta.Text}:
					case <-ctx.Done():
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case ch <- ragops.Chunk{Err: err}:
			case <-ctx.Done():
			}
			return
		}

		if calls := extractToolCalls(acc.Content); len(calls) > 0 {
			select {
			case ch <- ragops.Chunk{ToolCalls: calls}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

func (c *Client) buildParams(messages []ragops.Message, opts ...ragops.Option) anthropic.MessageNewParams {
	options := ragops.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(defaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if options.TopP != nil {
		params.TopP = anthropic.Float(*options.TopP)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
	}
	return params
}

func convertMessages(messages []ragops.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case ragops.RoleSystem:
			// Anthropic rejects empty text blocks.
			if msg.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}
		case ragops.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				var blocks []anthropic.ContentBlockParamUnion
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					var input any
					json.Unmarshal(tc.Function.Arguments, &input)
					blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
				}
				result = append(result, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: blocks,
				})
			} else if msg.Content != "" {
				result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case ragops.RoleTool:
			// Tool results travel as user messages with tool_result blocks.
			result = append(result, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
				},
			})
		default:
			if msg.Content != "" {
				result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}

	return result, system
}

func convertTools(tools []ragops.ToolSpec) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if len(t.Function.Parameters) > 0 {
			json.Unmarshal(t.Function.Parameters, &schema)
		}

		var required []string
		if reqVal, ok := schema["required"].([]any); ok {
			for _, r := range reqVal {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Function.Name,
				Description: anthropic.String(t.Function.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema["properties"],
					Required:   required,
				},
			},
		}
	}
	return result
}

func extractToolCalls(content []anthropic.ContentBlockUnion) []ragops.ToolCall {
	var calls []ragops.ToolCall
	for _, block := range content {
		if block.Type == "tool_use" {
			calls = append(calls, ragops.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ragops.FunctionCall{
					Name:      block.Name,
					Arguments: json.RawMessage(block.Input),
				},
			})
		}
	}
	return calls
}

var _ ragops.Provider = (*Client)(nil)
