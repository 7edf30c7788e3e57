package ragops

import "encoding/json"

// ToolCall is a request from the model to invoke a tool before it will
// continue the turn.
type ToolCall struct {
	// ID uniquely identifies this call and is echoed on the matching
	// RoleTool result message.
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
	// Function names the tool and carries its raw arguments.
	Function FunctionCall `json:"function"`
}

// FunctionCall is the function half of a tool call.
type FunctionCall struct {
	Name string `json:"name"`
	// Arguments is untrusted model output: a JSON object, a JSON-encoded
	// string wrapping an object, or malformed text. DecodeArguments
	// normalizes it.
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolSpec is the declaration sent to the provider so it knows what it may
// call. The wire shape follows the OpenAI function-tool convention.
type ToolSpec struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable tool: its name, what it does, and a JSON
// Schema for its parameters.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// NewToolSpec builds a function ToolSpec from a tool declaration.
func NewToolSpec(fn ToolFunction) ToolSpec {
	return ToolSpec{Type: "function", Function: fn}
}
