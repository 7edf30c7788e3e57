package ragops

import "github.com/google/uuid"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single entry in a conversation history.
//
// A message with Role RoleTool always carries ToolCallID and Name. An
// assistant message that issues tool calls has empty Content and a non-empty
// ToolCalls slice.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// Name is the tool name on RoleTool messages.
	Name string `json:"name,omitempty"`
	// ToolCallID links a RoleTool message to the ToolCall it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls is populated on assistant messages that request tool use.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// NewUserMessage creates a user message with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system message with the given content.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates an assistant message with the given content.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolResultMessage creates the RoleTool message answering a tool call.
func NewToolResultMessage(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
		Content:    content,
	}
}

// GenerateCallID creates a unique tool-call identifier. Providers that do not
// assign call IDs themselves (the mock provider, some OpenAI-compatible
// gateways) use this to keep the call/result pairing intact.
func GenerateCallID() string {
	return "call-" + uuid.New().String()
}

// History is an append-only ordered sequence of messages. The caller owns the
// history's lifetime; a turn controller borrows it for the duration of one
// turn and is its only writer during that turn. History is not safe for
// concurrent use: concurrent turns over the same history must be serialized
// by the caller.
type History struct {
	messages []Message
}

// NewHistory creates a history seeded with the given messages.
func NewHistory(messages ...Message) *History {
	return &History{messages: append([]Message(nil), messages...)}
}

// Append adds messages to the end of the history.
func (h *History) Append(messages ...Message) {
	h.messages = append(h.messages, messages...)
}

// Messages returns the underlying message slice. The slice must be treated as
// read-only; it is reused across calls within a turn.
func (h *History) Messages() []Message {
	return h.messages
}

// Reset discards all messages and reseeds the history. Only valid between
// turns.
func (h *History) Reset(messages ...Message) {
	h.messages = append([]Message(nil), messages...)
}

// Len returns the number of messages in the history.
func (h *History) Len() int {
	return len(h.messages)
}

// At returns the message at index i.
func (h *History) At(i int) Message {
	return h.messages[i]
}

// Last returns the final message and true, or a zero message and false when
// the history is empty.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}
