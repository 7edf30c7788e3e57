package tool

import (
	"context"
	"log/slog"
	"sync"

	ragops "github.com/donkit-ai/ragops-agent"
)

// remoteTool is a lazily-bound pointer to a tool served by a Source.
type remoteTool struct {
	fn     ragops.ToolFunction
	source Source
}

// Registry holds the set of locally registered tools and the set of remotely
// discovered tools, and dispatches calls by name. Local tools take precedence
// over remote tools with the same name; among remote tools the first
// discovered wins. Registry is safe for concurrent use, though a single agent
// turn only ever dispatches from one goroutine.
type Registry struct {
	mu      sync.RWMutex
	local   []Tool
	locals  map[string]int
	remote  []remoteTool
	remotes map[string]int
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for discovery and dispatch diagnostics.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		locals:  make(map[string]int),
		remotes: make(map[string]int),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a local tool. It returns an AlreadyRegisteredError when the
// name is already taken by another local tool.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.locals[t.Name]; exists {
		return &AlreadyRegisteredError{Name: t.Name}
	}
	r.locals[t.Name] = len(r.local)
	r.local = append(r.local, t)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Add registers one or more local tools, panicking on duplicate names.
// It returns the registry for fluent chaining.
func (r *Registry) Add(tools ...Tool) *Registry {
	for _, t := range tools {
		r.MustRegister(t)
	}
	return r
}

// Discover runs a best-effort synchronous discovery pass over each source.
// A source whose listing fails is logged and skipped; discovery is never
// fatal. Tools are recorded in discovery order; a remote name that collides
// with an earlier remote registration is ignored (first registered wins), and
// remote tools never shadow local ones.
func (r *Registry) Discover(ctx context.Context, sources ...Source) {
	for _, src := range sources {
		fns, err := src.ListTools(ctx)
		if err != nil {
			r.logger.Error("tool discovery failed, skipping source", "error", err)
			continue
		}

		r.mu.Lock()
		for _, fn := range fns {
			if _, exists := r.remotes[fn.Name]; exists {
				r.logger.Warn("duplicate remote tool ignored", "tool", fn.Name)
				continue
			}
			r.remotes[fn.Name] = len(r.remote)
			r.remote = append(r.remote, remoteTool{fn: fn, source: src})
		}
		r.mu.Unlock()
	}
}

// DeclareAll returns the provider-facing declarations for every known tool:
// locals first, then remotes in discovery order. The list is rebuilt on each
// call so runtime registration changes are reflected immediately.
func (r *Registry) DeclareAll() []ragops.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ragops.ToolSpec, 0, len(r.local)+len(r.remote))
	for _, t := range r.local {
		specs = append(specs, t.Spec())
	}
	for _, rt := range r.remote {
		specs = append(specs, ragops.NewToolSpec(rt.fn))
	}
	return specs
}

// Resolve looks up a tool by name. Local lookup takes precedence over remote
// lookup when both exist. Exactly one of the returns is non-nil on success;
// both are nil when the name is unknown.
func (r *Registry) Resolve(name string) (*Tool, Source) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.locals[name]; ok {
		t := r.local[i]
		return &t, nil
	}
	if i, ok := r.remotes[name]; ok {
		return nil, r.remote[i].source
	}
	return nil, nil
}

// Locals returns a copy of the locally registered tools in registration
// order. Remote tools are not included; they belong to their sources.
func (r *Registry) Locals() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, len(r.local))
	copy(out, r.local)
	return out
}

// Has reports whether the registry knows a tool with the given name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, local := r.locals[name]
	_, remote := r.remotes[name]
	return local || remote
}

// Names returns the names of all known tools, locals first.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.local)+len(r.remote))
	for _, t := range r.local {
		names = append(names, t.Name)
	}
	for _, rt := range r.remote {
		names = append(names, rt.fn.Name)
	}
	return names
}

// Len returns the number of known tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.local) + len(r.remote)
}

// Invoke dispatches a call to the resolved local handler or remote source and
// returns the serialized result content. An unknown name yields a
// NotFoundError; handler and remote failures are wrapped in ExecutionError.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	local, source := r.Resolve(name)

	switch {
	case local != nil:
		result, err := local.Handler(ctx, args)
		if err != nil {
			return "", &ExecutionError{Name: name, Err: err}
		}
		r.logger.Debug("local tool executed", "tool", name)
		return ragops.EncodeResult(result), nil

	case source != nil:
		result, err := source.CallTool(ctx, name, args)
		if err != nil {
			return "", &ExecutionError{Name: name, Err: err}
		}
		r.logger.Debug("remote tool executed", "tool", name)
		return ragops.EncodeResult(result), nil

	default:
		return "", &NotFoundError{Name: name}
	}
}
