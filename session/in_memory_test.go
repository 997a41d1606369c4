package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttrace/core"
)

// Interface compliance (compile-time assertion)
var _ core.LogStore = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendLoad(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.Load(ctx, "s1")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	require.NoError(t, s.Create(ctx, "s1"))
	events, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, events)

	user := core.NewUserReplayEvent("hi")
	done := core.NewTurnCompleteEvent("agent", "hello")
	done.Index = 7
	require.NoError(t, s.Append(ctx, "s1", user))
	require.NoError(t, s.Append(ctx, "s1", done))

	events, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, user.ID, events[0].ID)
	assert.True(t, events[1].IsTurnComplete())
	assert.Equal(t, 1, events[1].Index)

	// Create keeps existing entries.
	require.NoError(t, s.Create(ctx, "s1"))
	events, _ = s.Load(ctx, "s1")
	assert.Len(t, events, 2)
}

func TestInMemoryStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", core.NewToolCallReplayEvent("agent", "search", map[string]any{"q": "x"})))

	events, _ := s.Load(ctx, "s1")
	events[0].Payload[0] = 'X'
	events[0].Text = "mutated"

	again, _ := s.Load(ctx, "s1")
	assert.Equal(t, byte('{'), again[0].Payload[0])
	assert.Empty(t, again[0].Text)
}

func TestInMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", core.NewUserReplayEvent("hi")))
	require.NoError(t, s.Delete(ctx, "s1"))
	_, err := s.Load(ctx, "s1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.NoError(t, s.Delete(ctx, "unknown"))
}
