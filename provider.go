package ragops

import "context"

// Response is a complete reply from a provider.
type Response struct {
	Content string `json:"content,omitempty"`
	// ToolCalls contains tool invocation requests from the model. A non-empty
	// slice means the turn is not finished: the caller must execute the tools
	// and generate again with the results appended.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Chunk is one partial response in a streaming reply. A chunk carries
// incremental content, a batch of fully-accumulated tool calls, or a stream
// error, never more than one of the three.
type Chunk struct {
	Content   string
	ToolCalls []ToolCall
	Err       error
}

// Provider turns a message history (plus declared tool schemas) into either a
// complete response or a sequence of partial chunks. Implementations must
// work correctly when either capability flag is false: the turn controllers
// omit tools entirely when SupportsTools reports false and fall back to
// blocking generation when SupportsStreaming reports false.
type Provider interface {
	SupportsTools() bool
	SupportsStreaming() bool

	// Generate produces a complete response for the conversation.
	Generate(ctx context.Context, messages []Message, opts ...Option) (*Response, error)

	// GenerateStream produces a channel of partial chunks. The channel is
	// closed when the stream completes, fails (the final chunk carries Err),
	// or the context is cancelled.
	GenerateStream(ctx context.Context, messages []Message, opts ...Option) (<-chan Chunk, error)
}
