// Package mock provides a scripted in-memory Provider for tests and offline
// development. It replays a fixed sequence of responses and records every
// request it receives.
package mock

import (
	"context"
	"strings"
	"sync"

	ragops "github.com/donkit-ai/ragops-agent"
)

// Client is a scripted ragops.Provider. Responses are consumed in order; once
// the script is exhausted it echoes the last user message. The zero value is
// usable as a pure echo provider.
type Client struct {
	mu        sync.Mutex
	script    []*ragops.Response
	errs      []error
	calls     [][]ragops.Message
	tools     bool
	streaming bool
	chunkSize int
}

// ClientOption configures the mock client.
type ClientOption func(*Client)

// WithResponses appends scripted responses, consumed one per Generate or
// GenerateStream call.
func WithResponses(responses ...*ragops.Response) ClientOption {
	return func(c *Client) {
		c.script = append(c.script, responses...)
	}
}

// WithError makes the next unscripted call fail with err.
func WithError(err error) ClientOption {
	return func(c *Client) {
		c.errs = append(c.errs, err)
	}
}

// WithoutTools makes SupportsTools report false.
func WithoutTools() ClientOption {
	return func(c *Client) {
		c.tools = false
	}
}

// WithoutStreaming makes SupportsStreaming report false, forcing streaming
// turns to degrade to the blocking path.
func WithoutStreaming() ClientOption {
	return func(c *Client) {
		c.streaming = false
	}
}

// WithChunkSize splits streamed content into deltas of at most n bytes.
// Default is the whole content in one chunk.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// New creates a mock provider.
func New(opts ...ClientOption) *Client {
	c := &Client{tools: true, streaming: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SupportsTools() bool     { return c.tools }
func (c *Client) SupportsStreaming() bool { return c.streaming }

// Calls returns a copy of every message slice passed to Generate or
// GenerateStream, in call order.
func (c *Client) Calls() [][]ragops.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]ragops.Message, len(c.calls))
	copy(out, c.calls)
	return out
}

// Generate replays the next scripted response.
func (c *Client) Generate(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (*ragops.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.next(messages)
}

// GenerateStream replays the next scripted response as a chunk stream:
// content first, split according to the configured chunk size, then tool
// calls as a final chunk.
func (c *Client) GenerateStream(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (<-chan ragops.Chunk, error) {
	resp, err := c.next(messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan ragops.Chunk)
	go func() {
		defer close(ch)
		for _, delta := range c.splitContent(resp.Content) {
			select {
			case ch <- ragops.Chunk{Content: delta}:
			case <-ctx.Done():
				return
			}
		}
		if len(resp.ToolCalls) > 0 {
			select {
			case ch <- ragops.Chunk{ToolCalls: resp.ToolCalls}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func (c *Client) next(messages []ragops.Message) (*ragops.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := make([]ragops.Message, len(messages))
	copy(copied, messages)
	c.calls = append(c.calls, copied)

	if len(c.script) > 0 {
		resp := c.script[0]
		c.script = c.script[1:]
		return resp, nil
	}
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return nil, err
	}
	return &ragops.Response{Content: lastUserContent(messages)}, nil
}

func (c *Client) splitContent(content string) []string {
	if content == "" {
		return nil
	}
	if c.chunkSize <= 0 || c.chunkSize >= len(content) {
		return []string{content}
	}
	var parts []string
	for len(content) > c.chunkSize {
		parts = append(parts, content[:c.chunkSize])
		content = content[c.chunkSize:]
	}
	return append(parts, content)
}

func lastUserContent(messages []ragops.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ragops.RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

var _ ragops.Provider = (*Client)(nil)
