// Package agent implements the turn orchestration engine: the blocking
// controller (Respond) and its event-emitting streaming counterpart
// (RespondStream), which drive a provider through repeated
// generate / tool-execute cycles until a final answer is produced, the
// iteration limit is hit, or an unrecoverable error occurs.
package agent

import (
	"context"
	"errors"
	"log/slog"

	ragops "github.com/donkit-ai/ragops-agent"
	"github.com/donkit-ai/ragops-agent/tool"
)

// DefaultMaxIterations bounds the number of provider calls in one turn.
const DefaultMaxIterations = 50

// Agent runs one caller-visible turn at a time over a shared message
// history. The provider and tool sources are injected at construction, never
// looked up from ambient state. An Agent is stateless between turns; the
// caller owns the history and must serialize concurrent turns over the same
// history instance.
type Agent struct {
	provider      ragops.Provider
	registry      *tool.Registry
	maxIterations int
	logger        *slog.Logger
}

// Option is a functional option for configuring an Agent.
type Option func(*Agent)

// WithMaxIterations limits the number of provider calls per turn.
// Default is DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithLogger sets the logger used for turn diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// New creates an Agent with the given provider and tool registry.
func New(provider ragops.Provider, registry *tool.Registry, opts ...Option) *Agent {
	a := &Agent{
		provider:      provider,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat performs a single turn over a fresh history built from prompt and an
// optional system instruction, and returns the assistant's reply.
func (a *Agent) Chat(ctx context.Context, prompt, system string, opts ...ragops.Option) (string, error) {
	history := ragops.NewHistory()
	if system != "" {
		history.Append(ragops.NewSystemMessage(system))
	}
	history.Append(ragops.NewUserMessage(prompt))
	return a.Respond(ctx, history, opts...)
}

// Respond performs a single assistant turn over an existing history. It
// mutates the history in place, appending assistant tool-call turns and tool
// result turns as needed, and returns the final assistant content.
//
// An empty return with a nil error means either the model had nothing to say
// or the iteration budget ran out; callers that need the distinction must
// track provider calls themselves. Tool handler failures abort the turn and
// propagate; the history keeps every message appended before the failure.
func (a *Agent) Respond(ctx context.Context, history *ragops.History, opts ...ragops.Option) (string, error) {
	genOpts := opts
	if a.provider.SupportsTools() {
		genOpts = append(append([]ragops.Option{}, opts...), ragops.WithTools(a.registry.DeclareAll()))
	}

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.provider.Generate(ctx, history.Messages(), genOpts...)
		if err != nil {
			return "", err
		}

		if a.provider.SupportsTools() && len(resp.ToolCalls) > 0 {
			if err := a.executeToolCalls(ctx, history, resp.ToolCalls, nil); err != nil {
				return "", err
			}
			continue
		}

		if resp.Content == "" {
			// Some providers return empty content with no tool calls when a
			// response is truncated. One retry without tool declarations
			// usually recovers a usable answer.
			retry, err := a.provider.Generate(ctx, history.Messages(), opts...)
			if err != nil {
				return "", err
			}
			return retry.Content, nil
		}
		return resp.Content, nil
	}

	a.logger.Warn("iteration limit reached without final content", "max_iterations", a.maxIterations)
	return "", nil
}

// toolObserver receives tool lifecycle notifications during execution. The
// streaming controller uses it to emit events; the blocking path passes nil.
type toolObserver interface {
	onStart(call ragops.ToolCall, args map[string]any) bool
	onEnd(call ragops.ToolCall) bool
	onError(call ragops.ToolCall, err error) bool
	// recoverErrors reports whether handler failures are stored as
	// error-tagged tool results instead of aborting the turn.
	recoverErrors() bool
}

// executeToolCalls appends the synthetic assistant tool-call message and then
// runs each call strictly sequentially in provider order, appending one
// RoleTool result per call in that same order. Cancellation mid-step fills in
// "cancelled" results for the calls not yet executed so the history never
// holds an assistant tool-call message without its matching results.
func (a *Agent) executeToolCalls(ctx context.Context, history *ragops.History, calls []ragops.ToolCall, obs toolObserver) error {
	history.Append(ragops.Message{Role: ragops.RoleAssistant, ToolCalls: calls})

	for i, tc := range calls {
		if err := ctx.Err(); err != nil {
			a.cancelRemaining(history, calls[i:])
			return err
		}

		args := ragops.DecodeArguments(tc.Function.Arguments)
		if obs != nil && !obs.onStart(tc, args) {
			a.cancelRemaining(history, calls[i:])
			return ctx.Err()
		}

		content, err := a.registry.Invoke(ctx, tc.Function.Name, args)

		var notFound *tool.NotFoundError
		switch {
		case err == nil:
			// fallthrough to append below

		case errors.As(err, &notFound):
			// An unknown name is the model's fault, not ours: store an empty
			// result and keep going.
			a.logger.Warn("tool not found", "tool", tc.Function.Name)
			content = ""
			err = nil

		case ctx.Err() != nil:
			a.cancelRemaining(history, calls[i:])
			return ctx.Err()

		default:
			if obs == nil || !obs.recoverErrors() {
				if obs != nil {
					obs.onError(tc, err)
				}
				return err
			}
			a.logger.Error("tool execution failed", "tool", tc.Function.Name, "error", err)
			history.Append(ragops.NewToolResultMessage(tc, "Error: "+err.Error()))
			if !obs.onError(tc, err) {
				a.cancelRemaining(history, calls[i+1:])
				return ctx.Err()
			}
			continue
		}

		history.Append(ragops.NewToolResultMessage(tc, content))
		if obs != nil && !obs.onEnd(tc) {
			a.cancelRemaining(history, calls[i+1:])
			return ctx.Err()
		}
	}
	return nil
}

// cancelRemaining appends "cancelled" results for calls that will not run,
// keeping the assistant tool-call message paired 1:1 with results.
func (a *Agent) cancelRemaining(history *ragops.History, calls []ragops.ToolCall) {
	for _, tc := range calls {
		history.Append(ragops.NewToolResultMessage(tc, "cancelled"))
	}
}
