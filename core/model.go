package core

// ItemKind distinguishes ordinary tool invocations from inter-agent exchanges.
type ItemKind string

const (
	// ItemToolCall is an ordinary tool invocation.
	ItemToolCall ItemKind = "tool_call"
	// ItemAgentExchange is a delegation to another named agent.
	ItemAgentExchange ItemKind = "agent_exchange"
)

// ItemStatus is the resolution state of a ReasoningItem.
type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemDone    ItemStatus = "done"
)

// ReasoningItem is one timeline entry of a ThinkingBlock. Exactly one block
// owns an item.
type ReasoningItem struct {
	ID        string         `json:"id"`
	Kind      ItemKind       `json:"kind"`
	Label     string         `json:"label"`
	Args      map[string]any `json:"args,omitempty"`
	Target    string         `json:"target,omitempty"`  // exchange participant, empty for tool calls
	Message   string         `json:"message,omitempty"` // outbound exchange text
	Narration string         `json:"narration,omitempty"`
	Response  string         `json:"response,omitempty"`
	Status    ItemStatus     `json:"status"`
}

// Clone returns a deep copy of the item.
func (r ReasoningItem) Clone() ReasoningItem {
	r.Args = cloneArgs(r.Args)
	return r
}

// ParticipantStatus tracks where a delegated agent is in its exchange.
type ParticipantStatus string

const (
	ParticipantIdle       ParticipantStatus = "idle"
	ParticipantResponding ParticipantStatus = "responding"
	ParticipantResponded  ParticipantStatus = "responded"
)

// AgentParticipant is a named agent or contact of the participant graph. It
// lives for the whole session context, not per turn.
type AgentParticipant struct {
	Name         string            `json:"name"`
	Status       ParticipantStatus `json:"status"`
	MessageCount int               `json:"message_count"`
	Color        string            `json:"color"`
}

// EdgeStatus is the state of one exchange leg.
type EdgeStatus string

const (
	EdgeActive EdgeStatus = "active"
	EdgeDone   EdgeStatus = "done"
)

// Edge is one directed exchange leg (outbound request or inbound response).
// Edges are append-only for the lifetime of the session context.
type Edge struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Status EdgeStatus `json:"status"`
	Color  string     `json:"color"`
}

// BlockStatus is the aggregate status of a ThinkingBlock.
type BlockStatus string

const (
	BlockIdle     BlockStatus = "idle"
	BlockRunning  BlockStatus = "running"
	BlockFinished BlockStatus = "finished"
)

// ThinkingBlock aggregates all reasoning and tool activity of one user turn.
type ThinkingBlock struct {
	TurnID       string          `json:"turn_id"`
	Title        string          `json:"title"`
	PendingCount int             `json:"pending_count"`
	Status       BlockStatus     `json:"status"`
	Finalized    bool            `json:"finalized"`
	Items        []ReasoningItem `json:"items"`
}

// Clone returns a deep copy of the block.
func (b ThinkingBlock) Clone() ThinkingBlock {
	items := make([]ReasoningItem, len(b.Items))
	for i, it := range b.Items {
		items[i] = it.Clone()
	}
	b.Items = items
	return b
}

// MessageRole identifies who produced a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is a finished chat bubble.
type ChatMessage struct {
	TurnID string      `json:"turn_id"`
	Role   MessageRole `json:"role"`
	Author string      `json:"author"`
	Text   string      `json:"text"`
}

// SessionViewState is the complete derived state of a session context at a
// given point of its replay log. Live ingestion and replay must produce
// identical values for the same log prefix.
type SessionViewState struct {
	Messages     []ChatMessage      `json:"messages"`
	Blocks       []ThinkingBlock    `json:"blocks"`
	Participants []AgentParticipant `json:"participants"`
	Edges        []Edge             `json:"edges"`
}

func cloneArgs(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneArgs(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
