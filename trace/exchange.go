package trace

import (
	"fmt"

	"github.com/hupe1980/agenttrace/core"
)

// pendingExchange is one FIFO entry of the exchange tracker.
type pendingExchange struct {
	item  *core.ReasoningItem
	block *ThinkingBlock
}

// ExchangeTracker correlates calls of the inter-agent messaging tool with
// their replies and maintains the participant graph. Its FIFO is disjoint
// from the ordinary tool queue: replies always resolve the oldest pending
// exchange, whatever participant actually answered.
type ExchangeTracker struct {
	cfg          Config
	colors       *ColorRegistry
	participants []*core.AgentParticipant
	index        map[string]int
	edges        []core.Edge
	queue        []pendingExchange
}

// NewExchangeTracker creates a tracker assigning colors from colors.
func NewExchangeTracker(cfg Config, colors *ColorRegistry) *ExchangeTracker {
	return &ExchangeTracker{
		cfg:    cfg.withDefaults(),
		colors: colors,
		index:  make(map[string]int),
	}
}

// Participant returns a copy of the named participant.
func (t *ExchangeTracker) Participant(name string) (core.AgentParticipant, bool) {
	i, ok := t.index[name]
	if !ok {
		return core.AgentParticipant{}, false
	}
	return *t.participants[i], true
}

// Pending returns the number of unresolved exchanges.
func (t *ExchangeTracker) Pending() int { return len(t.queue) }

// ensure returns the named participant, creating it idle on first sight.
func (t *ExchangeTracker) ensure(name string) *core.AgentParticipant {
	if i, ok := t.index[name]; ok {
		return t.participants[i]
	}
	p := &core.AgentParticipant{
		Name:   name,
		Status: core.ParticipantIdle,
		Color:  t.colors.Color(name),
	}
	t.index[name] = len(t.participants)
	t.participants = append(t.participants, p)
	return p
}

// OnCall registers an outbound exchange: the target becomes responding, an
// active edge self→target is appended and a pending exchange item carrying
// the outbound message is added to block and pushed onto the FIFO.
func (t *ExchangeTracker) OnCall(block *ThinkingBlock, id, name string, args map[string]any) (*core.ReasoningItem, []core.Delta) {
	target := stringArg(args, t.cfg.ContactArg)
	if target == "" {
		target = "unknown"
	}
	p := t.ensure(target)
	p.Status = core.ParticipantResponding

	edge := core.Edge{From: t.cfg.SelfName, To: target, Status: core.EdgeActive, Color: p.Color}
	t.edges = append(t.edges, edge)

	item := &core.ReasoningItem{
		ID:      id,
		Kind:    core.ItemAgentExchange,
		Label:   fmt.Sprintf("%s → %s", name, target),
		Args:    args,
		Target:  target,
		Message: stringArg(args, t.cfg.MessageArg),
	}
	block.add(item)
	t.queue = append(t.queue, pendingExchange{item: item, block: block})

	return item, []core.Delta{
		core.ParticipantDelta{Participant: *p},
		core.EdgeDelta{Edge: edge},
	}
}

// OnResponse pops the oldest pending exchange and resolves it with the best
// effort reply text of response. It returns nil when no exchange is pending;
// the response is dropped.
func (t *ExchangeTracker) OnResponse(response string) (*core.ReasoningItem, *ThinkingBlock, []core.Delta) {
	t.prune()
	if len(t.queue) == 0 {
		return nil, nil, nil
	}
	head := t.queue[0]
	t.queue = t.queue[1:]

	p := t.ensure(head.item.Target)
	p.Status = core.ParticipantResponded
	p.MessageCount++

	edge := core.Edge{From: head.item.Target, To: t.cfg.SelfName, Status: core.EdgeDone, Color: p.Color}
	t.edges = append(t.edges, edge)

	head.block.resolve(head.item, ExtractReplyText(response))

	return head.item, head.block, []core.Delta{
		core.ParticipantDelta{Participant: *p},
		core.EdgeDelta{Edge: edge},
	}
}

// prune drops entries whose item was closed by a block finalize.
func (t *ExchangeTracker) prune() {
	kept := t.queue[:0]
	for _, e := range t.queue {
		if e.item.Status == core.ItemPending {
			kept = append(kept, e)
		}
	}
	t.queue = kept
}

// Graph returns copies of the participants (first seen order) and edges.
func (t *ExchangeTracker) Graph() ([]core.AgentParticipant, []core.Edge) {
	participants := make([]core.AgentParticipant, len(t.participants))
	for i, p := range t.participants {
		participants[i] = *p
	}
	edges := make([]core.Edge, len(t.edges))
	copy(edges, t.edges)
	return participants, edges
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
