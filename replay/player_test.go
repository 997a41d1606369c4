package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/internal/testutil"
	"github.com/hupe1980/agenttrace/logging"
	"github.com/hupe1980/agenttrace/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleLog(t *testing.T) []core.ReplayEvent {
	t.Helper()
	return liveRun(t, turnSteps(testutil.NewTraceBuilder().
		User("ask").Stream("Asking.").Exchange("Bob", "hi").Reply("hello").Text("Bob says hello.").Done().
		Turns())).Events()
}

func TestPlayer_StartsAtEnd(t *testing.T) {
	events := sampleLog(t)
	p, err := NewPlayer(events)
	require.NoError(t, err)

	assert.Equal(t, len(events), p.Cursor())
	want, err := Reconstruct(events, len(events), trace.DefaultConfig)
	require.NoError(t, err)
	assert.Equal(t, want, p.State())
	assert.False(t, p.Playing())
}

func TestPlayer_ScrubAndStep(t *testing.T) {
	events := sampleLog(t)
	p, err := NewPlayer(events)
	require.NoError(t, err)

	require.NoError(t, p.Scrub(-3))
	assert.Zero(t, p.Cursor())
	assert.Empty(t, p.State().Messages)

	ok, err := p.Step()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, p.Cursor())
	assert.Len(t, p.State().Messages, 1)

	require.NoError(t, p.Scrub(1000))
	assert.Equal(t, len(events), p.Cursor())
	ok, err = p.Step()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlayer_LogsReconstructions(t *testing.T) {
	events := sampleLog(t)
	zc, logs := observer.New(zapcore.DebugLevel)
	p, err := NewPlayer(events, func(o *PlayerOptions) {
		o.Logger = logging.NewZapAdapter(zap.New(zc))
	})
	require.NoError(t, err)
	require.NoError(t, p.Scrub(2))

	entries := logs.FilterMessage("Replay reconstructed").All()
	require.Len(t, entries, 2)
	last := entries[1].ContextMap()
	assert.EqualValues(t, 2, last["upto"])
	assert.EqualValues(t, len(events), last["total"])
}

func TestPlayer_TickPlaysToEnd(t *testing.T) {
	events := sampleLog(t)
	var cursors []int
	p, err := NewPlayer(events, func(o *PlayerOptions) {
		o.OnStep = func(cursor int, _ core.SessionViewState) { cursors = append(cursors, cursor) }
	})
	require.NoError(t, err)
	cursors = nil

	// Tick without Play does nothing.
	playing, err := p.Tick()
	require.NoError(t, err)
	assert.False(t, playing)

	require.NoError(t, p.Play())
	assert.Zero(t, p.Cursor())
	for {
		playing, err := p.Tick()
		require.NoError(t, err)
		if !playing {
			break
		}
	}
	assert.Equal(t, len(events), p.Cursor())
	assert.False(t, p.Playing())

	want := []int{0}
	for i := 1; i <= len(events); i++ {
		want = append(want, i)
	}
	assert.Equal(t, want, cursors)
}

func TestPlayer_StopKeepsCursor(t *testing.T) {
	p, err := NewPlayer(sampleLog(t))
	require.NoError(t, err)
	require.NoError(t, p.Scrub(2))
	require.NoError(t, p.Play())
	_, err = p.Tick()
	require.NoError(t, err)
	p.Stop()

	assert.Equal(t, 3, p.Cursor())
	playing, err := p.Tick()
	require.NoError(t, err)
	assert.False(t, playing)

	require.NoError(t, p.ResetToEnd())
	assert.Equal(t, p.Len(), p.Cursor())
}

func TestPlayer_Run(t *testing.T) {
	events := sampleLog(t)
	p, err := NewPlayer(events, func(o *PlayerOptions) { o.Delay = time.Millisecond })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, len(events), p.Cursor())
}

func TestPlayer_RunCancelled(t *testing.T) {
	p, err := NewPlayer(sampleLog(t), func(o *PlayerOptions) { o.Delay = time.Hour })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.False(t, p.Playing())
}

func TestPlayer_EmptyLog(t *testing.T) {
	p, err := NewPlayer(nil)
	require.NoError(t, err)
	assert.Zero(t, p.Cursor())
	require.NoError(t, p.Play())
	playing, err := p.Tick()
	require.NoError(t, err)
	assert.False(t, playing)
}
