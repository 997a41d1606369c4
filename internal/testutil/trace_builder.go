package testutil

import "github.com/hupe1980/agenttrace/core"

// ExchangeTool is the inter-agent messaging tool used by Exchange and Reply.
const ExchangeTool = "send_message_to_contact"

// Turn is one scripted user message and the events streamed in response.
type Turn struct {
	Message string
	Events  []core.TraceEvent
}

// TraceBuilder provides a fluent helper for scripting trace streams.
// Example:
//
//	turns := NewTraceBuilder().User("find shoes").Stream("Look", "ing").Call("search", nil).Response("search", "3 hits").Done().Turns()
//
// Events added before the first User call belong to a turn with an empty
// message.
type TraceBuilder struct {
	author string
	turns  []Turn
}

// NewTraceBuilder creates a builder with default author "agent".
func NewTraceBuilder() *TraceBuilder { return &TraceBuilder{author: "agent"} }

// Author sets the author of following events (chainable).
func (b *TraceBuilder) Author(a string) *TraceBuilder { b.author = a; return b }

// User starts a new turn (chainable).
func (b *TraceBuilder) User(msg string) *TraceBuilder {
	b.turns = append(b.turns, Turn{Message: msg})
	return b
}

// Text adds a complete, non partial text event (chainable).
func (b *TraceBuilder) Text(content string) *TraceBuilder {
	return b.add(core.TextDelta{Author: b.author, Content: content})
}

// Stream adds one partial text event per chunk (chainable).
func (b *TraceBuilder) Stream(chunks ...string) *TraceBuilder {
	for _, c := range chunks {
		b.add(core.TextDelta{Author: b.author, Content: c, Partial: true})
	}
	return b
}

// Call adds a function call (chainable).
func (b *TraceBuilder) Call(name string, args map[string]any) *TraceBuilder {
	return b.add(core.FunctionCall{Author: b.author, Name: name, Args: args})
}

// Response adds a function response (chainable).
func (b *TraceBuilder) Response(name, response string) *TraceBuilder {
	return b.add(core.FunctionResponse{Author: b.author, Name: name, Response: response})
}

// Exchange adds a call of the messaging tool addressed to contact (chainable).
func (b *TraceBuilder) Exchange(contact, message string) *TraceBuilder {
	return b.Call(ExchangeTool, map[string]any{"contact_name": contact, "message": message})
}

// Reply adds a response of the messaging tool (chainable).
func (b *TraceBuilder) Reply(response string) *TraceBuilder {
	return b.Response(ExchangeTool, response)
}

// Done adds the turn completion event (chainable).
func (b *TraceBuilder) Done() *TraceBuilder {
	return b.add(core.Done{Author: b.author})
}

// Turns returns the scripted turns.
func (b *TraceBuilder) Turns() []Turn {
	out := make([]Turn, len(b.turns))
	for i, t := range b.turns {
		out[i] = Turn{Message: t.Message, Events: append([]core.TraceEvent(nil), t.Events...)}
	}
	return out
}

// Events returns the events of every turn in order.
func (b *TraceBuilder) Events() []core.TraceEvent {
	var out []core.TraceEvent
	for _, t := range b.turns {
		out = append(out, t.Events...)
	}
	return out
}

func (b *TraceBuilder) add(ev core.TraceEvent) *TraceBuilder {
	if len(b.turns) == 0 {
		b.turns = append(b.turns, Turn{})
	}
	last := &b.turns[len(b.turns)-1]
	last.Events = append(last.Events, ev)
	return b
}
