package tool

import "fmt"

// NotFoundError is returned when a tool call references a name that is
// neither registered locally nor known to any discovered source. An unknown
// name is attributable to the model's output, not the runtime, so the turn
// controllers swallow it into an empty tool result instead of propagating.
type NotFoundError struct {
	Name string
}

// Error returns a formatted message including the unknown tool name.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// AlreadyRegisteredError is returned when registering a local tool whose name
// is already taken.
type AlreadyRegisteredError struct {
	Name string
}

// Error returns a formatted message including the duplicate tool name.
func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// ExecutionError wraps a failure from a tool handler or a remote call.
type ExecutionError struct {
	Name string
	Err  error
}

// Error returns a formatted message including the tool name and cause.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool: %s execution failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}
