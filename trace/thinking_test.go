package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttrace/core"
)

func TestThinkingBlock_Lifecycle(t *testing.T) {
	b := newThinkingBlock("turn-0")
	assert.Equal(t, core.BlockIdle, b.Status())

	c := NewToolCorrelator()
	first := c.OnCall(b, "item-1", "a", nil)
	second := c.OnCall(b, "item-2", "b", nil)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, core.BlockRunning, b.Status())
	assert.Equal(t, 2, b.PendingCount())
	assert.Equal(t, "reviewed 2 actions", b.Title())

	// Responses are matched first pending first served, whatever the name.
	assert.Same(t, first, c.OnResponse(b, "r1"))
	assert.Equal(t, core.BlockRunning, b.Status())
	assert.Same(t, second, c.OnResponse(b, "r2"))
	assert.Equal(t, core.BlockFinished, b.Status())
	assert.Nil(t, c.OnResponse(b, "r3"))

	assert.Empty(t, b.Finalize())
	assert.True(t, b.Finalized())
}

func TestThinkingBlock_FinalizeForcesPending(t *testing.T) {
	b := newThinkingBlock("turn-0")
	c := NewToolCorrelator()
	c.OnCall(b, "item-1", "a", nil)
	c.OnCall(b, "item-2", "b", nil)
	c.OnResponse(b, "done")

	forced := b.Finalize()
	require.Len(t, forced, 1)
	assert.Equal(t, "item-2", forced[0].ID)

	snap := b.Snapshot()
	assert.Equal(t, core.BlockFinished, snap.Status)
	assert.Zero(t, snap.PendingCount)
	assert.Equal(t, "done", snap.Items[0].Response)
	assert.Empty(t, snap.Items[1].Response)
}

func TestThinkingBlock_SnapshotIsDeepCopy(t *testing.T) {
	b := newThinkingBlock("turn-0")
	NewToolCorrelator().OnCall(b, "item-1", "a", map[string]any{"k": "v"})

	snap := b.Snapshot()
	snap.Items[0].Args["k"] = "changed"
	assert.Equal(t, "v", b.items[0].Args["k"])
}
