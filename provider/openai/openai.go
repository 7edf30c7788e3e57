// Package openai adapts the OpenAI Chat Completions API, and any
// OpenAI-compatible endpoint reachable through a base URL override, to the
// ragops.Provider contract.
package openai

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	ragops "github.com/donkit-ai/ragops-agent"
)

const DefaultModel = "gpt-4o-mini"

// Client wraps the OpenAI SDK to implement ragops.Provider.
type Client struct {
	client  *openai.Client
	model   string
	baseURL string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint such as a
// local inference server or a gateway.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	client := openai.NewClient(reqOpts...)
	c.client = &client
	return c
}

// SupportsTools reports that the Chat Completions API accepts tool
// declarations.
func (c *Client) SupportsTools() bool { return true }

// SupportsStreaming reports that the Chat Completions API supports
// server-sent event streaming.
func (c *Client) SupportsStreaming() bool { return true }

// Generate sends a conversation and returns a complete response.
func (c *Client) Generate(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (*ragops.Response, error) {
	params := c.buildParams(messages, opts...)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return &ragops.Response{}, nil
	}

	choice := resp.Choices[0]
	return &ragops.Response{
		Content:   choice.Message.Content,
		ToolCalls: extractToolCalls(choice.Message.ToolCalls),
	}, nil
}

// GenerateStream sends a conversation and returns a channel of chunks.
// Content deltas are forwarded as they arrive; tool calls arrive fragmented
// across the wire and are accumulated, then delivered in a single final chunk
// once the stream ends. The channel is closed after that chunk, after an
// error chunk, or when ctx is cancelled.
func (c *Client) GenerateStream(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (<-chan ragops.Chunk, error) {
	params := c.buildParams(messages, opts...)

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan ragops.Chunk)

	go func() {
		defer close(ch)
		var acc openai.ChatCompletionAccumulator

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case ch <- ragops.Chunk{Content: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
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

		if len(acc.Choices) == 0 {
			return
		}
		if calls := extractToolCalls(acc.Choices[0].Message.ToolCalls); len(calls) > 0 {
			select {
			case ch <- ragops.Chunk{ToolCalls: calls}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

func (c *Client) buildParams(messages []ragops.Message, opts ...ragops.Option) openai.ChatCompletionNewParams {
	options := ragops.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.TopP != nil {
		params.TopP = openai.Float(*options.TopP)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
	}
	return params
}

func convertMessages(messages []ragops.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case ragops.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case ragops.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: string(tc.Function.Arguments),
						},
					}
				}
				assistantMsg := openai.ChatCompletionAssistantMessageParam{
					ToolCalls: toolCalls,
				}
				if msg.Content != "" {
					assistantMsg.Content.OfString = openai.String(msg.Content)
				}
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &assistantMsg,
				})
			} else {
				result = append(result, openai.AssistantMessage(msg.Content))
			}
		case ragops.RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

func convertTools(tools []ragops.ToolSpec) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		var params shared.FunctionParameters
		if len(t.Function.Parameters) > 0 {
			json.Unmarshal(t.Function.Parameters, &params)
		}
		result[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Function.Name,
				Description: openai.String(t.Function.Description),
				Parameters:  params,
			},
		}
	}
	return result
}

func extractToolCalls(toolCalls []openai.ChatCompletionMessageToolCall) []ragops.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}
	result := make([]ragops.ToolCall, len(toolCalls))
	for i, tc := range toolCalls {
		id := tc.ID
		if id == "" {
			id = ragops.GenerateCallID()
		}
		result[i] = ragops.ToolCall{
			ID:   id,
			Type: "function",
			Function: ragops.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			},
		}
	}
	return result
}

var _ ragops.Provider = (*Client)(nil)
