package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agenttrace/core"
)

func TestSplitFinal(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		hadToolCalls  bool
		wantNarration string
		wantAnswer    string
	}{
		{name: "no tool calls", text: "a\n\nb", wantAnswer: "a\n\nb"},
		{name: "single block", text: "answer", hadToolCalls: true, wantAnswer: "answer"},
		{name: "two blocks", text: "thinking\n\nanswer", hadToolCalls: true, wantNarration: "thinking", wantAnswer: "answer"},
		{name: "whitespace separator", text: "a\n  \nb\n\t\nc", hadToolCalls: true, wantNarration: "a\n\nb", wantAnswer: "c"},
		{name: "single newline is not a block", text: "line1\nline2", hadToolCalls: true, wantAnswer: "line1\nline2"},
		{name: "trailing blank blocks ignored", text: "a\n\nb\n\n\n\n", hadToolCalls: true, wantNarration: "a", wantAnswer: "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			narration, answer := SplitFinal(tt.text, tt.hadToolCalls)
			assert.Equal(t, tt.wantNarration, narration)
			assert.Equal(t, tt.wantAnswer, answer)
		})
	}
}

func TestNarrationBuffer_Routing(t *testing.T) {
	n := NewNarrationBuffer()
	n.Write("fin", true)
	n.Write("al", true)
	assert.Equal(t, "final", n.Active())

	item := &core.ReasoningItem{ID: "item-1"}
	n.Open(item)
	assert.True(t, n.IsOpen())
	n.Write("narr", true)
	n.Write("narration", false)
	assert.Equal(t, "narration", n.Active())

	text, target := n.TakeNarration()
	assert.Equal(t, "narration", text)
	assert.Same(t, item, target)
	n.Close()
	assert.Equal(t, "final", n.TakeFinal())
	assert.Empty(t, n.Active())
}

func TestAppendNarration(t *testing.T) {
	item := &core.ReasoningItem{}
	appendNarration(item, "  ")
	assert.Empty(t, item.Narration)
	appendNarration(item, "a")
	appendNarration(item, "b")
	assert.Equal(t, "a\n\nb", item.Narration)
}
