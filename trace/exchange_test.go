package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/internal/testutil"
)

func TestExchangeTracker_UnknownContact(t *testing.T) {
	tr := NewExchangeTracker(DefaultConfig, NewColorRegistry(nil))
	b := newThinkingBlock("turn-0")

	item, deltas := tr.OnCall(b, "item-1", "send_message_to_contact", map[string]any{"message": "hi"})
	assert.Equal(t, "unknown", item.Target)
	assert.Equal(t, "hi", item.Message)
	require.Len(t, deltas, 2)
	assert.Equal(t, 1, tr.Pending())
}

func TestExchangeTracker_OutboundMessage(t *testing.T) {
	cfg := DefaultConfig
	cfg.ContactArg = "to"
	cfg.MessageArg = "body"
	tr := NewExchangeTracker(cfg, NewColorRegistry(nil))
	b := newThinkingBlock("turn-0")

	item, _ := tr.OnCall(b, "item-1", cfg.ExchangeToolName, map[string]any{"to": "Bob", "body": "where is it?", "message": "ignored"})
	assert.Equal(t, "Bob", item.Target)
	assert.Equal(t, "where is it?", item.Message)

	item, _ = tr.OnCall(b, "item-2", cfg.ExchangeToolName, map[string]any{"to": "Ann", "body": 42})
	assert.Equal(t, "42", item.Message)

	item, _ = tr.OnCall(b, "item-3", cfg.ExchangeToolName, map[string]any{"to": "Ann"})
	assert.Empty(t, item.Message)
}

func TestExchangeTracker_MessageSurvivesReplay(t *testing.T) {
	rec := &sliceRecorder{}
	live := NewIngestor(NewSessionContext(DefaultConfig), func(o *IngestorOptions) { o.Recorder = rec })
	feed(live, testutil.NewTraceBuilder().User("ask").Exchange("Bob", "got milk?").Turns())

	replayed := newTestIngestor()
	for _, ev := range rec.events {
		_, err := replayed.Replay(ev)
		require.NoError(t, err)
	}
	items := replayed.Context().Snapshot().Blocks[0].Items
	require.Len(t, items, 1)
	assert.Equal(t, "got milk?", items[0].Message)
}

func TestExchangeTracker_FinalizedExchangesArePruned(t *testing.T) {
	in := newTestIngestor()
	feed(in, testutil.NewTraceBuilder().
		User("first").
		Exchange("Bob", "hi").
		Done().
		User("second").
		Reply("late bob").
		Turns())

	state := in.Context().Snapshot()
	require.Len(t, state.Blocks, 2)
	assert.Empty(t, state.Blocks[0].Items[0].Response)
	assert.Zero(t, in.Context().exchanges.Pending())

	bob, ok := in.Context().exchanges.Participant("Bob")
	require.True(t, ok)
	assert.Equal(t, core.ParticipantResponding, bob.Status)
	assert.Zero(t, bob.MessageCount)
}

func TestExchangeTracker_AbortedExchangeResolvedByLaterReply(t *testing.T) {
	in := newTestIngestor()
	feed(in, testutil.NewTraceBuilder().User("first").Exchange("Bob", "hi").Turns())
	in.Abort()
	feed(in, testutil.NewTraceBuilder().User("second").Reply("bob finally").Turns())

	state := in.Context().Snapshot()
	first := state.Blocks[0]
	assert.Equal(t, "bob finally", first.Items[0].Response)
	assert.Equal(t, core.ItemDone, first.Items[0].Status)
	assert.Equal(t, core.BlockFinished, first.Status)
	assert.False(t, first.Finalized)
	assert.Empty(t, state.Blocks[1].Items)
}

func TestExchangeTracker_ParticipantColorsStableAcrossTurns(t *testing.T) {
	in := newTestIngestor()
	feed(in, testutil.NewTraceBuilder().
		User("one").Exchange("Bob", "a").Reply("x").Done().
		User("two").Exchange("Cara", "b").Exchange("Bob", "c").Reply("y").Reply("z").Done().
		Turns())

	state := in.Context().Snapshot()
	require.Len(t, state.Participants, 2)
	assert.Equal(t, "Bob", state.Participants[0].Name)
	assert.Equal(t, DefaultPalette[0], state.Participants[0].Color)
	assert.Equal(t, 2, state.Participants[0].MessageCount)
	assert.Equal(t, DefaultPalette[1], state.Participants[1].Color)
	assert.Len(t, state.Edges, 6)
}
