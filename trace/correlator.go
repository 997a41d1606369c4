package trace

import (
	"github.com/hupe1980/agenttrace/core"
)

// ToolCorrelator pairs ordinary tool calls with their results and suppresses
// redeliveries of the still pending call.
//
// Responses are matched first-pending-first-served among ordinary items of the
// active block: the stream guarantees neither an id nor name level
// correlation.
type ToolCorrelator struct {
	lastKey  ToolCallKey
	lastItem *core.ReasoningItem
}

// NewToolCorrelator returns an empty correlator.
func NewToolCorrelator() *ToolCorrelator { return &ToolCorrelator{} }

// Duplicate reports whether key equals the key of the currently pending call.
func (c *ToolCorrelator) Duplicate(key ToolCallKey) bool {
	return c.lastItem != nil && c.lastItem.Status == core.ItemPending && c.lastKey == key
}

// remember makes item the currently pending call for dedupe purposes.
func (c *ToolCorrelator) remember(key ToolCallKey, item *core.ReasoningItem) {
	c.lastKey = key
	c.lastItem = item
}

// OnCall creates a pending ordinary item in block. It returns nil when the
// call is a redelivery of the currently pending one.
func (c *ToolCorrelator) OnCall(block *ThinkingBlock, id, name string, args map[string]any) *core.ReasoningItem {
	canon, _ := canonicalArgs(args)
	key := CallKey(name, canon)
	if c.Duplicate(key) {
		return nil
	}
	item := &core.ReasoningItem{
		ID:    id,
		Kind:  core.ItemToolCall,
		Label: name,
		Args:  canon,
	}
	block.add(item)
	c.remember(key, item)
	return item
}

// OnResponse resolves the oldest pending ordinary item of block with
// response. It returns nil when nothing is pending; the response is dropped.
func (c *ToolCorrelator) OnResponse(block *ThinkingBlock, response string) *core.ReasoningItem {
	item := block.firstPending(core.ItemToolCall)
	if item == nil {
		return nil
	}
	block.resolve(item, response)
	return item
}

// Reset forgets the dedupe state. Called at turn boundaries.
func (c *ToolCorrelator) Reset() {
	c.lastKey = ""
	c.lastItem = nil
}
