package trace

import (
	"fmt"

	"github.com/hupe1980/agenttrace/core"
)

// ThinkingBlock aggregates the reasoning items of one user turn. It is created
// when a user message starts the turn, mutated by every tool event of that
// turn and frozen by Finalize. Blocks are never reused across turns.
type ThinkingBlock struct {
	turnID    string
	items     []*core.ReasoningItem
	pending   int
	status    core.BlockStatus
	finalized bool
}

func newThinkingBlock(turnID string) *ThinkingBlock {
	return &ThinkingBlock{turnID: turnID, status: core.BlockIdle}
}

// TurnID returns the id of the owning turn.
func (b *ThinkingBlock) TurnID() string { return b.turnID }

// Status returns the aggregate status.
func (b *ThinkingBlock) Status() core.BlockStatus { return b.status }

// PendingCount returns the number of unresolved items.
func (b *ThinkingBlock) PendingCount() int { return b.pending }

// Len returns the number of items.
func (b *ThinkingBlock) Len() int { return len(b.items) }

// Finalized reports whether Finalize ran.
func (b *ThinkingBlock) Finalized() bool { return b.finalized }

// Title is always "reviewed N actions".
func (b *ThinkingBlock) Title() string {
	return fmt.Sprintf("reviewed %d actions", len(b.items))
}

// add appends a pending item.
func (b *ThinkingBlock) add(item *core.ReasoningItem) {
	item.Status = core.ItemPending
	b.items = append(b.items, item)
	b.pending++
	b.status = core.BlockRunning
}

// resolve marks item done with response. The block finishes when the last
// pending item resolves.
func (b *ThinkingBlock) resolve(item *core.ReasoningItem, response string) {
	if item.Status == core.ItemDone {
		return
	}
	item.Status = core.ItemDone
	item.Response = response
	if b.pending > 0 {
		b.pending--
	}
	if b.pending == 0 {
		b.status = core.BlockFinished
	}
}

// firstPending returns the oldest pending item of kind.
func (b *ThinkingBlock) firstPending(kind core.ItemKind) *core.ReasoningItem {
	for _, it := range b.items {
		if it.Kind == kind && it.Status == core.ItemPending {
			return it
		}
	}
	return nil
}

// last returns the most recent item or nil.
func (b *ThinkingBlock) last() *core.ReasoningItem {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[len(b.items)-1]
}

// Finalize force-marks every still pending item as done and finishes the
// block. The stream may end without a response for every call. It returns
// the items that were closed this way.
func (b *ThinkingBlock) Finalize() []*core.ReasoningItem {
	var forced []*core.ReasoningItem
	for _, it := range b.items {
		if it.Status == core.ItemPending {
			it.Status = core.ItemDone
			forced = append(forced, it)
		}
	}
	b.pending = 0
	b.status = core.BlockFinished
	b.finalized = true
	return forced
}

// Snapshot returns a deep copy of the block as a view value.
func (b *ThinkingBlock) Snapshot() core.ThinkingBlock {
	items := make([]core.ReasoningItem, len(b.items))
	for i, it := range b.items {
		items[i] = it.Clone()
	}
	return core.ThinkingBlock{
		TurnID:       b.turnID,
		Title:        b.Title(),
		PendingCount: b.pending,
		Status:       b.status,
		Finalized:    b.finalized,
		Items:        items,
	}
}

// Summary returns the block summary delta.
func (b *ThinkingBlock) Summary() core.BlockDelta {
	return core.BlockDelta{
		TurnID:       b.turnID,
		Title:        b.Title(),
		Status:       b.status,
		PendingCount: b.pending,
	}
}
