package agent

import (
	"context"

	ragops "github.com/donkit-ai/ragops-agent"
	"github.com/donkit-ai/ragops-agent/event"
)

// ChatStream is the streaming counterpart of Chat: it builds a fresh history
// from prompt and an optional system instruction and returns the event
// channel for the turn.
func (a *Agent) ChatStream(ctx context.Context, prompt, system string, opts ...ragops.Option) <-chan event.Event {
	history := ragops.NewHistory()
	if system != "" {
		history.Append(ragops.NewSystemMessage(system))
	}
	history.Append(ragops.NewUserMessage(prompt))
	return a.RespondStream(ctx, history, opts...)
}

// RespondStream performs a single assistant turn and surfaces its progress as
// a channel of events: content deltas as they arrive from the provider, plus
// tool lifecycle markers. The channel is closed when the turn completes, the
// context is cancelled, or an unrecoverable provider error occurs; a fatal
// error is delivered as a final Error event before close.
//
// The history ends up equivalent to what Respond would have produced for the
// same provider behavior, except that streaming tool handler failures are
// recovered: the failure is stored as an error-tagged tool result and the
// turn continues, rather than aborting.
//
// If the provider does not support streaming the turn degrades to Respond
// and its entire result is delivered as a single Content event.
func (a *Agent) RespondStream(ctx context.Context, history *ragops.History, opts ...ragops.Option) <-chan event.Event {
	ch := event.NewChannel()
	go func() {
		defer close(ch)
		a.streamTurn(ctx, history, ch, opts...)
	}()
	return ch
}

func (a *Agent) streamTurn(ctx context.Context, history *ragops.History, ch chan event.Event, opts ...ragops.Option) {
	if !a.provider.SupportsStreaming() {
		content, err := a.Respond(ctx, history, opts...)
		if err != nil {
			event.Emit(ctx, ch, event.Event{Type: event.Error, Error: err.Error()})
			return
		}
		// Always exactly one Content event, even for an empty reply, so
		// consumers see the same final content Respond would have returned.
		event.Emit(ctx, ch, event.Event{Type: event.Content, Content: content})
		return
	}

	genOpts := opts
	if a.provider.SupportsTools() {
		genOpts = append(append([]ragops.Option{}, opts...), ragops.WithTools(a.registry.DeclareAll()))
	}

	for i := 0; i < a.maxIterations; i++ {
		if !a.streamIteration(ctx, history, ch, genOpts) {
			return
		}
	}
	a.logger.Warn("iteration limit reached without final content", "max_iterations", a.maxIterations)
}

// streamIteration runs one provider stream to completion or until the first
// tool-call chunk. It reports whether the turn should run another iteration:
// true only after tool calls were executed and their results appended.
func (a *Agent) streamIteration(ctx context.Context, history *ragops.History, ch chan event.Event, genOpts []ragops.Option) bool {
	// A dedicated context lets us abandon the provider stream as soon as a
	// tool-call chunk arrives; anything after it belongs to the next
	// iteration's generation.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := a.provider.GenerateStream(streamCtx, history.Messages(), genOpts...)
	if err != nil {
		event.Emit(ctx, ch, event.Event{Type: event.Error, Error: err.Error()})
		return false
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			if ctx.Err() != nil {
				return false
			}
			event.Emit(ctx, ch, event.Event{Type: event.Error, Error: chunk.Err.Error()})
			return false
		}

		if chunk.Content != "" {
			if !event.Emit(ctx, ch, event.Event{Type: event.Content, Content: chunk.Content}) {
				return false
			}
		}

		if len(chunk.ToolCalls) > 0 && a.provider.SupportsTools() {
			cancel()
			obs := &streamObserver{ctx: ctx, ch: ch}
			if err := a.executeToolCalls(ctx, history, chunk.ToolCalls, obs); err != nil {
				return false
			}
			return true
		}
	}
	// Stream exhausted without tool calls: the turn is complete. Content was
	// already delivered delta by delta, so there is nothing left to emit.
	return false
}

// streamObserver translates tool lifecycle callbacks into events on the turn
// channel. Each method reports whether emission succeeded; a false return
// means the consumer context is gone and the turn should wind down.
type streamObserver struct {
	ctx context.Context
	ch  chan event.Event
}

func (o *streamObserver) onStart(call ragops.ToolCall, args map[string]any) bool {
	return event.Emit(o.ctx, o.ch, event.Event{
		Type:     event.ToolCallStart,
		ToolName: call.Function.Name,
		ToolArgs: args,
	})
}

func (o *streamObserver) onEnd(call ragops.ToolCall) bool {
	return event.Emit(o.ctx, o.ch, event.Event{
		Type:     event.ToolCallEnd,
		ToolName: call.Function.Name,
	})
}

func (o *streamObserver) onError(call ragops.ToolCall, err error) bool {
	return event.Emit(o.ctx, o.ch, event.Event{
		Type:     event.ToolCallError,
		ToolName: call.Function.Name,
		Error:    err.Error(),
	})
}

func (o *streamObserver) recoverErrors() bool { return true }
