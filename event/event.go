// Package event defines the vocabulary the stream controller uses to report
// turn progress to a caller. Consumers must treat event types they do not
// recognize as no-ops so new lifecycle tags can be added without breaking
// existing callers.
package event

import (
	"context"
	"time"
)

// Type identifies the kind of stream event.
type Type string

const (
	// Content carries an incremental piece of assistant text.
	Content Type = "content"

	// ToolCallStart fires before a tool is executed, with its name and
	// decoded arguments.
	ToolCallStart Type = "tool_call_start"

	// ToolCallEnd fires after a tool executes successfully.
	ToolCallEnd Type = "tool_call_end"

	// ToolCallError fires when a tool handler fails. The error is recovered
	// locally: the turn continues with the stringified error as the tool
	// result.
	ToolCallError Type = "tool_call_error"

	// Error fires when the turn aborts on an unrecoverable provider or
	// transport failure. It is always the final event before the channel
	// closes.
	Error Type = "error"
)

// Event is a single observable occurrence during a streaming turn. Events are
// transient: consumed by the caller and discarded.
type Event struct {
	Type Type

	// Content is the text delta for Content events.
	Content string

	// ToolName identifies the tool for tool lifecycle events.
	ToolName string

	// ToolArgs holds the decoded arguments for ToolCallStart events.
	ToolArgs map[string]any

	// Error is the stringified failure for ToolCallError and Error events.
	Error string

	// Timestamp is when the event was emitted.
	Timestamp time.Time
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 16)
}

// Emit delivers an event to the channel, stamping its timestamp. The send
// blocks until the consumer is ready so content is delivered at least once in
// arrival order; a cancelled context abandons the send and returns false.
func Emit(ctx context.Context, ch chan<- Event, e Event) bool {
	e.Timestamp = time.Now()
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
