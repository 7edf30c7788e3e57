// Package tool provides the agent's tool registry: locally registered tools,
// remotely discovered tools, unified declaration for the provider, and
// dispatch by name.
package tool

import (
	"context"
	"encoding/json"

	ragops "github.com/donkit-ai/ragops-agent"
)

// Handler executes a tool with decoded arguments and returns its result.
// The result may be any structured value; it is serialized through
// ragops.EncodeResult before being stored as message content. Handlers are
// stateless between invocations unless they close over external state (a
// database handle, say); that state's lifecycle is the handler's
// responsibility, not the registry's.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a locally registered tool: its declaration plus its handler.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters json.RawMessage
	Handler    Handler
}

// Spec returns the declaration sent to the provider for this tool.
func (t Tool) Spec() ragops.ToolSpec {
	return ragops.NewToolSpec(ragops.ToolFunction{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	})
}

// Source is a remote tool server reachable through a discovery + invoke
// protocol. The registry does not own the source's connection; it only keeps
// a reference used to route invocation.
type Source interface {
	// ListTools returns the source's tool declarations. A failing source
	// contributes zero tools: the registry logs the error and skips it.
	ListTools(ctx context.Context) ([]ragops.ToolFunction, error)

	// CallTool invokes a tool on the source.
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}
