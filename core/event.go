package core

// TraceEvent is one decoded frame of the agent execution stream. Concrete
// event types implement the unexported isTraceEvent marker enabling a closed
// set; consumers switch over the four kinds exhaustively.
//
// Order is significant: no two events of a stream may be assumed independent.
type TraceEvent interface {
	isTraceEvent()
	// Kind returns the wire discriminator of the event.
	Kind() EventKind
}

// EventKind is the wire discriminator of a TraceEvent.
type EventKind string

const (
	// EventText is a streamed text fragment.
	EventText EventKind = "text"
	// EventFunctionCall is a tool invocation request.
	EventFunctionCall EventKind = "function_call"
	// EventFunctionResponse is the outcome of a tool invocation.
	EventFunctionResponse EventKind = "function_response"
	// EventDone marks the end of a turn.
	EventDone EventKind = "done"
)

// TextDelta is a text fragment. When Partial is true the content is appended
// to the active buffer; otherwise it replaces the buffer (last non-partial
// write wins).
type TextDelta struct {
	Author  string
	Content string
	Partial bool
}

func (TextDelta) isTraceEvent() {}

// Kind implements TraceEvent.
func (TextDelta) Kind() EventKind { return EventText }

// FunctionCall describes a tool invocation request emitted by the agent.
type FunctionCall struct {
	Author string
	Name   string
	Args   map[string]any
}

func (FunctionCall) isTraceEvent() {}

// Kind implements TraceEvent.
func (FunctionCall) Kind() EventKind { return EventFunctionCall }

// FunctionResponse carries the stringified outcome of a tool invocation. The
// stream carries no correlation id between a response and its call.
type FunctionResponse struct {
	Author   string
	Name     string
	Response string
}

func (FunctionResponse) isTraceEvent() {}

// Kind implements TraceEvent.
func (FunctionResponse) Kind() EventKind { return EventFunctionResponse }

// Done ends the current turn.
type Done struct {
	Author string
}

func (Done) isTraceEvent() {}

// Kind implements TraceEvent.
func (Done) Kind() EventKind { return EventDone }
