package trace

import (
	"github.com/hupe1980/agenttrace/core"
)

// SessionContext owns every piece of derived state of one session: the color
// registry, the participant graph, the thinking blocks, the chat messages and
// the turn scoped buffers. It is constructed fresh per session and discarded
// (or Reset) on session switch; nothing is shared between contexts.
//
// A SessionContext has a single writer, the Ingestor. It is not safe for
// concurrent use.
type SessionContext struct {
	cfg       Config
	colors    *ColorRegistry
	tools     *ToolCorrelator
	exchanges *ExchangeTracker
	narration *NarrationBuffer

	blocks   []*ThinkingBlock
	messages []core.ChatMessage
	active   *ThinkingBlock // nil outside a turn
	author   string         // last text author of the active turn
}

// NewSessionContext creates an empty context.
func NewSessionContext(cfg Config) *SessionContext {
	sc := &SessionContext{cfg: cfg.withDefaults()}
	sc.Reset()
	return sc
}

// Config returns the effective configuration.
func (sc *SessionContext) Config() Config { return sc.cfg }

// Reset drops all state, as on a session switch.
func (sc *SessionContext) Reset() {
	sc.colors = NewColorRegistry(sc.cfg.Palette)
	sc.tools = NewToolCorrelator()
	sc.exchanges = NewExchangeTracker(sc.cfg, sc.colors)
	sc.narration = NewNarrationBuffer()
	sc.blocks = nil
	sc.messages = nil
	sc.active = nil
	sc.author = ""
}

// Colors returns the color registry.
func (sc *SessionContext) Colors() *ColorRegistry { return sc.colors }

// ActiveTurn returns the id of the streaming turn, or "" outside a turn.
func (sc *SessionContext) ActiveTurn() string {
	if sc.active == nil {
		return ""
	}
	return sc.active.turnID
}

// Block returns the thinking block of turnID.
func (sc *SessionContext) Block(turnID string) (*ThinkingBlock, bool) {
	for _, b := range sc.blocks {
		if b.turnID == turnID {
			return b, true
		}
	}
	return nil, false
}

// Snapshot returns a deep copy of the derived view state.
func (sc *SessionContext) Snapshot() core.SessionViewState {
	blocks := make([]core.ThinkingBlock, len(sc.blocks))
	for i, b := range sc.blocks {
		blocks[i] = b.Snapshot()
	}
	messages := make([]core.ChatMessage, len(sc.messages))
	copy(messages, sc.messages)
	participants, edges := sc.exchanges.Graph()
	return core.SessionViewState{
		Messages:     messages,
		Blocks:       blocks,
		Participants: participants,
		Edges:        edges,
	}
}
