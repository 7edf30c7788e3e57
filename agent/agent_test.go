package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragops "github.com/donkit-ai/ragops-agent"
	"github.com/donkit-ai/ragops-agent/event"
	"github.com/donkit-ai/ragops-agent/tool"
)

// mockProvider implements ragops.Provider for testing. Each Generate or
// GenerateStream call consumes the next scripted response; the declared tool
// specs of every call are recorded.
type mockProvider struct {
	responses   []mockResponse
	callCount   int
	noTools     bool
	noStreaming bool
	seenTools   [][]ragops.ToolSpec
}

type mockResponse struct {
	content   string
	toolCalls []ragops.ToolCall
	err       error
}

func (m *mockProvider) SupportsTools() bool     { return !m.noTools }
func (m *mockProvider) SupportsStreaming() bool { return !m.noStreaming }

func (m *mockProvider) next(opts ...ragops.Option) mockResponse {
	options := ragops.ApplyOptions(opts...)
	m.seenTools = append(m.seenTools, options.Tools)

	if m.callCount >= len(m.responses) {
		return mockResponse{content: "No more responses"}
	}
	resp := m.responses[m.callCount]
	m.callCount++
	return resp
}

func (m *mockProvider) Generate(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (*ragops.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := m.next(opts...)
	if resp.err != nil {
		return nil, resp.err
	}
	return &ragops.Response{Content: resp.content, ToolCalls: resp.toolCalls}, nil
}

func (m *mockProvider) GenerateStream(ctx context.Context, messages []ragops.Message, opts ...ragops.Option) (<-chan ragops.Chunk, error) {
	resp := m.next(opts...)
	ch := make(chan ragops.Chunk)
	go func() {
		defer close(ch)
		if resp.err != nil {
			select {
			case ch <- ragops.Chunk{Err: resp.err}:
			case <-ctx.Done():
			}
			return
		}
		// Stream content rune by rune to exercise delta handling.
		for _, r := range resp.content {
			select {
			case ch <- ragops.Chunk{Content: string(r)}:
			case <-ctx.Done():
				return
			}
		}
		if len(resp.toolCalls) > 0 {
			select {
			case ch <- ragops.Chunk{ToolCalls: resp.toolCalls}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func squareRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	return tool.NewRegistry().Add(tool.Tool{
		Name:        "square",
		Description: "Square a number",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"x":{"type":"integer"}},"required":["x"]}`),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			x, _ := args["x"].(float64)
			return int(x * x), nil
		},
	})
}

func squareCall(id string, x int) ragops.ToolCall {
	return ragops.ToolCall{
		ID:   id,
		Type: "function",
		Function: ragops.FunctionCall{
			Name:      "square",
			Arguments: json.RawMessage(fmt.Sprintf(`{"x":%d}`, x)),
		},
	}
}

func TestAgent_Respond_SimpleConversation(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{
			{content: "Hello! How can I help you?"},
		},
	}
	a := New(provider, tool.NewRegistry())

	history := ragops.NewHistory(ragops.NewUserMessage("Hi"))
	result, err := a.Respond(context.Background(), history)

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you?", result)
	assert.Equal(t, 1, provider.callCount)
	// Nothing but the original message: terminal turns append no messages.
	assert.Equal(t, 1, history.Len())
}

func TestAgent_Respond_WithToolCalls(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{squareCall("call_1", 5)}},
			{content: "The square of 5 is 25."},
		},
	}
	a := New(provider, squareRegistry(t))

	history := ragops.NewHistory(ragops.NewUserMessage("What is the square of 5?"))
	result, err := a.Respond(context.Background(), history)

	require.NoError(t, err)
	assert.Equal(t, "The square of 5 is 25.", result)

	// History: user, assistant tool-call turn, tool result.
	require.Equal(t, 3, history.Len())
	assert.Equal(t, ragops.RoleUser, history.At(0).Role)

	assistant := history.At(1)
	assert.Equal(t, ragops.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)

	toolMsg := history.At(2)
	assert.Equal(t, ragops.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "square", toolMsg.Name)
	assert.Equal(t, "25", toolMsg.Content)
}

func TestAgent_Respond_MultipleToolCallsOrdered(t *testing.T) {
	var invoked []string
	registry := tool.NewRegistry()
	for _, name := range []string{"first", "second", "third"} {
		name := name
		registry.MustRegister(tool.Tool{
			Name:       name,
			Parameters: json.RawMessage(`{"type":"object"}`),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				invoked = append(invoked, name)
				return name + " done", nil
			},
		})
	}

	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{
				{ID: "c1", Function: ragops.FunctionCall{Name: "first", Arguments: json.RawMessage(`{}`)}},
				{ID: "c2", Function: ragops.FunctionCall{Name: "second", Arguments: json.RawMessage(`{}`)}},
				{ID: "c3", Function: ragops.FunctionCall{Name: "third", Arguments: json.RawMessage(`{}`)}},
			}},
			{content: "done"},
		},
	}
	a := New(provider, registry)

	history := ragops.NewHistory(ragops.NewUserMessage("go"))
	_, err := a.Respond(context.Background(), history)
	require.NoError(t, err)

	// Execution is strictly sequential in provider order.
	assert.Equal(t, []string{"first", "second", "third"}, invoked)

	// One result per call, in the same order as the calls.
	require.Equal(t, 5, history.Len())
	for i, wantID := range []string{"c1", "c2", "c3"} {
		msg := history.At(2 + i)
		assert.Equal(t, ragops.RoleTool, msg.Role)
		assert.Equal(t, wantID, msg.ToolCallID)
	}
}

func TestAgent_Respond_AppendOnly(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{squareCall("call_1", 3)}},
			{content: "9"},
		},
	}
	a := New(provider, squareRegistry(t))

	history := ragops.NewHistory(
		ragops.NewSystemMessage("be brief"),
		ragops.NewUserMessage("square of 3?"),
	)
	before := make([]ragops.Message, history.Len())
	copy(before, history.Messages())

	_, err := a.Respond(context.Background(), history)
	require.NoError(t, err)

	// The pre-existing prefix is untouched.
	require.GreaterOrEqual(t, history.Len(), len(before))
	for i, want := range before {
		assert.Equal(t, want, history.At(i))
	}
}

func TestAgent_Respond_UnknownTool(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{
				{ID: "c1", Function: ragops.FunctionCall{Name: "ghost", Arguments: json.RawMessage(`{}`)}},
			}},
			{content: "recovered"},
		},
	}
	a := New(provider, tool.NewRegistry())

	history := ragops.NewHistory(ragops.NewUserMessage("use the ghost tool"))
	result, err := a.Respond(context.Background(), history)

	// An unknown tool name yields an empty result, not a failed turn.
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)

	toolMsg := history.At(2)
	assert.Equal(t, ragops.RoleTool, toolMsg.Role)
	assert.Equal(t, "", toolMsg.Content)
}

func TestAgent_Respond_HandlerErrorAborts(t *testing.T) {
	registry := tool.NewRegistry().Add(tool.Tool{
		Name:       "explode",
		Parameters: json.RawMessage(`{"type":"object"}`),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	})
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{
				{ID: "c1", Function: ragops.FunctionCall{Name: "explode", Arguments: json.RawMessage(`{}`)}},
			}},
		},
	}
	a := New(provider, registry)

	history := ragops.NewHistory(ragops.NewUserMessage("go"))
	_, err := a.Respond(context.Background(), history)

	require.Error(t, err)
	var execErr *tool.ExecutionError
	assert.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, provider.callCount)
}

func TestAgent_Respond_MalformedArguments(t *testing.T) {
	var got map[string]any
	registry := tool.NewRegistry().Add(tool.Tool{
		Name:       "probe",
		Parameters: json.RawMessage(`{"type":"object"}`),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			got = args
			return "ok", nil
		},
	})
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{
				{ID: "c1", Function: ragops.FunctionCall{Name: "probe", Arguments: json.RawMessage(`{not json`)}},
			}},
			{content: "done"},
		},
	}
	a := New(provider, registry)

	_, err := a.Respond(context.Background(), ragops.NewHistory(ragops.NewUserMessage("go")))
	require.NoError(t, err)

	// Malformed arguments degrade to an empty map, never an error.
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAgent_Respond_IterationLimit(t *testing.T) {
	loop := mockResponse{toolCalls: []ragops.ToolCall{squareCall("c", 2)}}
	provider := &mockProvider{
		responses: []mockResponse{loop, loop, loop, loop},
	}
	a := New(provider, squareRegistry(t), WithMaxIterations(2))

	result, err := a.Respond(context.Background(), ragops.NewHistory(ragops.NewUserMessage("loop forever")))

	// Exhaustion is silent: empty content, nil error, exactly two provider
	// calls made.
	require.NoError(t, err)
	assert.Equal(t, "", result)
	assert.Equal(t, 2, provider.callCount)
}

func TestAgent_Respond_EmptyContentRetry(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{
			{content: ""},
			{content: "second attempt"},
		},
	}
	a := New(provider, squareRegistry(t))

	result, err := a.Respond(context.Background(), ragops.NewHistory(ragops.NewUserMessage("hi")))

	require.NoError(t, err)
	assert.Equal(t, "second attempt", result)
	require.Len(t, provider.seenTools, 2)
	// First call declares tools, the retry does not.
	assert.NotEmpty(t, provider.seenTools[0])
	assert.Empty(t, provider.seenTools[1])
}

func TestAgent_Respond_NoToolSupport(t *testing.T) {
	provider := &mockProvider{
		noTools:   true,
		responses: []mockResponse{{content: "plain answer"}},
	}
	a := New(provider, squareRegistry(t))

	result, err := a.Respond(context.Background(), ragops.NewHistory(ragops.NewUserMessage("hi")))

	require.NoError(t, err)
	assert.Equal(t, "plain answer", result)
	// No tool declarations reach a provider that cannot use them.
	require.Len(t, provider.seenTools, 1)
	assert.Empty(t, provider.seenTools[0])
}

func TestAgent_Respond_CancelledBetweenCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	registry := tool.NewRegistry().Add(tool.Tool{
		Name:       "stop",
		Parameters: json.RawMessage(`{"type":"object"}`),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			cancel()
			return "first ran", nil
		},
	})
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{
				{ID: "c1", Function: ragops.FunctionCall{Name: "stop", Arguments: json.RawMessage(`{}`)}},
				{ID: "c2", Function: ragops.FunctionCall{Name: "stop", Arguments: json.RawMessage(`{}`)}},
			}},
		},
	}
	a := New(provider, registry)

	history := ragops.NewHistory(ragops.NewUserMessage("go"))
	_, err := a.Respond(ctx, history)

	require.ErrorIs(t, err, context.Canceled)

	// The assistant tool-call message stays paired with one result per call:
	// the executed first call and a cancelled placeholder for the second.
	require.Equal(t, 4, history.Len())
	assert.Equal(t, "first ran", history.At(2).Content)
	assert.Equal(t, "cancelled", history.At(3).Content)
	assert.Equal(t, "c2", history.At(3).ToolCallID)
}

func TestAgent_Chat(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{{content: "hello there"}},
	}
	a := New(provider, tool.NewRegistry())

	result, err := a.Chat(context.Background(), "hi", "be nice")

	require.NoError(t, err)
	assert.Equal(t, "hello there", result)
}

func collectEvents(ch <-chan event.Event) []event.Event {
	var events []event.Event
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func contentOf(events []event.Event) string {
	var out string
	for _, e := range events {
		if e.Type == event.Content {
			out += e.Content
		}
	}
	return out
}

func TestAgent_RespondStream_ContentDeltas(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{{content: "streamed hello"}},
	}
	a := New(provider, tool.NewRegistry())

	history := ragops.NewHistory(ragops.NewUserMessage("hi"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	// Concatenated deltas equal the full response.
	assert.Equal(t, "streamed hello", contentOf(events))
	for _, e := range events {
		assert.Equal(t, event.Content, e.Type)
	}
}

func TestAgent_RespondStream_ToolLifecycle(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{squareCall("call_1", 5)}},
			{content: "25"},
		},
	}
	a := New(provider, squareRegistry(t))

	history := ragops.NewHistory(ragops.NewUserMessage("square of 5?"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	var types []event.Type
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []event.Type{event.ToolCallStart, event.ToolCallEnd, event.Content, event.Content}, types)

	start := events[0]
	assert.Equal(t, "square", start.ToolName)
	assert.Equal(t, float64(5), start.ToolArgs["x"])

	// History matches what the blocking path would build.
	require.Equal(t, 3, history.Len())
	assert.Equal(t, "25", history.At(2).Content)
}

func TestAgent_RespondStream_HandlerErrorRecovered(t *testing.T) {
	registry := tool.NewRegistry().Add(tool.Tool{
		Name:       "explode",
		Parameters: json.RawMessage(`{"type":"object"}`),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	})
	provider := &mockProvider{
		responses: []mockResponse{
			{toolCalls: []ragops.ToolCall{
				{ID: "c1", Function: ragops.FunctionCall{Name: "explode", Arguments: json.RawMessage(`{}`)}},
			}},
			{content: "carried on"},
		},
	}
	a := New(provider, registry)

	history := ragops.NewHistory(ragops.NewUserMessage("go"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	// The failure is an event plus an error-tagged result, not a dead turn.
	var sawError bool
	for _, e := range events {
		if e.Type == event.ToolCallError {
			sawError = true
			assert.Equal(t, "explode", e.ToolName)
			assert.Contains(t, e.Error, "boom")
		}
	}
	assert.True(t, sawError)
	assert.Equal(t, "carried on", contentOf(events))

	toolMsg := history.At(2)
	assert.Equal(t, ragops.RoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "boom")
}

func TestAgent_RespondStream_DegradesWithoutStreaming(t *testing.T) {
	provider := &mockProvider{
		noStreaming: true,
		responses:   []mockResponse{{content: "whole answer"}},
	}
	a := New(provider, tool.NewRegistry())

	history := ragops.NewHistory(ragops.NewUserMessage("hi"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	// The entire result arrives as a single Content event.
	require.Len(t, events, 1)
	assert.Equal(t, event.Content, events[0].Type)
	assert.Equal(t, "whole answer", events[0].Content)
}

func TestAgent_RespondStream_DegradedEmptyReply(t *testing.T) {
	// Two empty responses: the blocking path retries once without tools and
	// ends up with "". The degraded stream must still deliver that result as
	// a single Content event rather than closing without any events.
	provider := &mockProvider{
		noStreaming: true,
		responses:   []mockResponse{{content: ""}, {content: ""}},
	}
	a := New(provider, tool.NewRegistry())

	history := ragops.NewHistory(ragops.NewUserMessage("hi"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	require.Len(t, events, 1)
	assert.Equal(t, event.Content, events[0].Type)
	assert.Empty(t, events[0].Content)
}

func TestAgent_RespondStream_ProviderError(t *testing.T) {
	provider := &mockProvider{
		responses: []mockResponse{{err: errors.New("rate limited")}},
	}
	a := New(provider, tool.NewRegistry())

	history := ragops.NewHistory(ragops.NewUserMessage("hi"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, event.Error, last.Type)
	assert.Contains(t, last.Error, "rate limited")
}

func TestAgent_RespondStream_IterationLimit(t *testing.T) {
	loop := mockResponse{toolCalls: []ragops.ToolCall{squareCall("c", 2)}}
	provider := &mockProvider{
		responses: []mockResponse{loop, loop, loop},
	}
	a := New(provider, squareRegistry(t), WithMaxIterations(2))

	history := ragops.NewHistory(ragops.NewUserMessage("loop"))
	events := collectEvents(a.RespondStream(context.Background(), history))

	// The channel closes silently after the budget: tool events only, no
	// Error event.
	assert.Equal(t, 2, provider.callCount)
	for _, e := range events {
		assert.NotEqual(t, event.Error, e.Type)
		assert.NotEqual(t, event.Content, e.Type)
	}
}
