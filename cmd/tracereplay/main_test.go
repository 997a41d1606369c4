package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/internal/testutil"
	"github.com/hupe1980/agenttrace/stream"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSSE(t *testing.T, events []core.TraceEvent) string {
	t.Helper()
	var buf bytes.Buffer
	for _, ev := range events {
		require.NoError(t, stream.WriteSSE(&buf, ev))
	}
	path := filepath.Join(t.TempDir(), "trace.sse")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestIngestReplayLog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")
	sse := writeSSE(t, testutil.NewTraceBuilder().
		Stream("Let me ", "check.").
		Call("search", map[string]any{"q": "shoes"}).
		Response("search", "2 hits").
		Text("Two pairs found.").
		Done().
		Events())

	out, err := execute(t, "--db", db, "--log-level", "error", "ingest", "demo", "-m", "find shoes", "--sse", sse)
	require.NoError(t, err)
	assert.Contains(t, out, "assistant agent: Two pairs found.")
	assert.Contains(t, out, "session demo:")
	assert.Contains(t, out, "5 log entries")

	out, err = execute(t, "--db", db, "--log-level", "error", "replay", "demo", "-o", "json")
	require.NoError(t, err)
	var state core.SessionViewState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "Two pairs found.", state.Messages[1].Text)
	require.Len(t, state.Blocks, 1)
	require.Len(t, state.Blocks[0].Items, 1)
	assert.Equal(t, "2 hits", state.Blocks[0].Items[0].Response)
	assert.Equal(t, "Let me check.", state.Blocks[0].Items[0].Narration)

	out, err = execute(t, "--db", db, "--log-level", "error", "replay", "demo", "--upto", "1", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "text: find shoes")
	assert.NotContains(t, out, "Two pairs found.")

	out, err = execute(t, "--db", db, "--log-level", "error", "log", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "tool_call")
	assert.Contains(t, out, "(turn complete) Two pairs found.")

	out, err = execute(t, "--db", db, "--log-level", "error", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
}

func TestImportAndPlay(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "trace.db")
	rows := testutil.NewHistoryBuilder().
		User("ask bob").
		Call("agent", testutil.ExchangeTool, map[string]any{"contact_name": "Bob", "message": "hi"}).
		Response("agent", testutil.ExchangeTool, "{'result': 'hello'}").
		Assistant("agent", "Bob says hello.").
		Build()
	data, err := json.Marshal(rows)
	require.NoError(t, err)
	file := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(file, data, 0o600))

	out, err := execute(t, "--db", db, "--log-level", "error", "import", "hist", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 4 rows as 4 log entries into hist")

	out, err = execute(t, "--db", db, "--log-level", "error", "play", "hist", "--delay", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/4]")
	assert.Contains(t, out, "[4/4]")
	assert.Contains(t, out, "1 agents")
	assert.Contains(t, out, "stopped at 4/4")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "tracereplay.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`db: `+filepath.Join(dir, "cfg.db")+`
log_level: error
trace:
  agent_name: shopper
`), 0o600))
	sse := writeSSE(t, testutil.NewTraceBuilder().Author("").Text("Hi there.").Done().Events())

	_, err := execute(t, "--config", cfg, "ingest", "s1", "-m", "hello", "--sse", sse, "-q")
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "replay", "s1", "-o", "json")
	require.NoError(t, err)
	var state core.SessionViewState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "shopper", state.Messages[1].Author)
}

func TestIngest_RequiresSource(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")
	_, err := execute(t, "--db", db, "ingest", "s1", "-m", "hello")
	assert.Error(t, err)
}

func TestWriteValue_UnknownFormat(t *testing.T) {
	err := writeValue(&bytes.Buffer{}, "toml", core.SessionViewState{})
	assert.ErrorContains(t, err, "unknown output format")
}
