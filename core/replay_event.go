package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReplayType is the canonical category of a ReplayEvent.
type ReplayType string

const (
	ReplayUser         ReplayType = "user"
	ReplayAssistant    ReplayType = "assistant"
	ReplayToolCall     ReplayType = "tool_call"
	ReplayToolResponse ReplayType = "tool_response"
)

// ReplayEvent is one immutable entry of the replay log. Index defines a total
// order over the whole session; it is assigned by the log on append. Payload
// is the canonical JSON encoding of the type specific fields (see
// ToolCallPayload, ToolResponsePayload and AssistantPayload).
type ReplayEvent struct {
	ID        string          `json:"id"`
	Index     int             `json:"index"`
	Type      ReplayType      `json:"type"`
	Text      string          `json:"text,omitempty"`
	Author    string          `json:"author,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ToolCallPayload is the payload of a tool_call replay event.
type ToolCallPayload struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResponsePayload is the payload of a tool_response replay event.
type ToolResponsePayload struct {
	Name     string `json:"name"`
	Response string `json:"response"`
}

// AssistantPayload is the payload of an assistant replay event. A text
// segment without payload is an intermediate consolidated buffer write;
// TurnComplete marks the finished assistant message closing a turn.
type AssistantPayload struct {
	TurnComplete bool `json:"turn_complete,omitempty"`
}

// NewUserReplayEvent creates the event that opens a turn.
func NewUserReplayEvent(text string) ReplayEvent {
	return newReplayEvent(ReplayUser, "user", text, nil)
}

// NewAssistantTextEvent records the consolidated content of the active text
// buffer right before it is consumed.
func NewAssistantTextEvent(author, text string) ReplayEvent {
	return newReplayEvent(ReplayAssistant, author, text, nil)
}

// NewTurnCompleteEvent records the finished assistant message of a turn.
func NewTurnCompleteEvent(author, text string) ReplayEvent {
	return newReplayEvent(ReplayAssistant, author, text, mustMarshal(AssistantPayload{TurnComplete: true}))
}

// NewToolCallReplayEvent records an accepted tool invocation.
func NewToolCallReplayEvent(author, name string, args map[string]any) ReplayEvent {
	return newReplayEvent(ReplayToolCall, author, "", mustMarshal(ToolCallPayload{Name: name, Args: args}))
}

// NewToolResponseReplayEvent records a tool invocation outcome.
func NewToolResponseReplayEvent(author, name, response string) ReplayEvent {
	return newReplayEvent(ReplayToolResponse, author, "", mustMarshal(ToolResponsePayload{Name: name, Response: response}))
}

func newReplayEvent(typ ReplayType, author, text string, payload json.RawMessage) ReplayEvent {
	return ReplayEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Text:      text,
		Author:    author,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToolCall decodes the payload of a tool_call event.
func (e ReplayEvent) ToolCall() (ToolCallPayload, error) {
	var p ToolCallPayload
	if e.Type != ReplayToolCall {
		return p, fmt.Errorf("replay event %d is %s, not %s", e.Index, e.Type, ReplayToolCall)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decode tool_call payload: %w", err)
	}
	return p, nil
}

// ToolResponse decodes the payload of a tool_response event.
func (e ReplayEvent) ToolResponse() (ToolResponsePayload, error) {
	var p ToolResponsePayload
	if e.Type != ReplayToolResponse {
		return p, fmt.Errorf("replay event %d is %s, not %s", e.Index, e.Type, ReplayToolResponse)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decode tool_response payload: %w", err)
	}
	return p, nil
}

// IsTurnComplete reports whether the event is the finished assistant message
// of a turn.
func (e ReplayEvent) IsTurnComplete() bool {
	if e.Type != ReplayAssistant || len(e.Payload) == 0 {
		return false
	}
	var p AssistantPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return false
	}
	return p.TurnComplete
}

// Clone returns a copy that shares no memory with e.
func (e ReplayEvent) Clone() ReplayEvent {
	if e.Payload != nil {
		e.Payload = append(json.RawMessage(nil), e.Payload...)
	}
	return e
}

// mustMarshal encodes canonical payloads. Payload structs only hold strings,
// bools and JSON decoded argument maps, so encoding cannot fail.
func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("core: marshal replay payload: %v", err))
	}
	return b
}
