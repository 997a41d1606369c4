package stream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttrace/core"
)

func drain(t *testing.T, src Source) ([]core.TraceEvent, int) {
	t.Helper()
	var (
		events []core.TraceEvent
		bad    int
	)
	for {
		ev, err := src.Next(context.Background())
		if err == io.EOF {
			return events, bad
		}
		if Recoverable(err) {
			bad++
			continue
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestSSESource(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		`data: {"type":"text","content":"Hi","partial":true}`,
		"",
		"event: message",
		`data: {"type":"function_call",`,
		`data: "name":"search","args":{}}`,
		"",
		`data: {"type":`,
		"",
		`data: {"type":"done"}`,
	}, "\r\n")

	events, bad := drain(t, NewSSESource(strings.NewReader(body)))
	assert.Equal(t, 1, bad)
	assert.Equal(t, []core.TraceEvent{
		core.TextDelta{Content: "Hi", Partial: true},
		core.FunctionCall{Name: "search"},
		core.Done{},
	}, events)
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSSE(&buf, core.Done{Author: "agent"}))
	assert.Equal(t, "data: {\"type\":\"done\",\"author\":\"agent\"}\n\n", buf.String())

	events, _ := drain(t, NewSSESource(&buf))
	assert.Equal(t, []core.TraceEvent{core.Done{Author: "agent"}}, events)
}

func TestOpenSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_ = WriteSSE(w, core.TextDelta{Content: "ok"})
		_ = WriteSSE(w, core.Done{})
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	src, err := OpenSSE(context.Background(), srv.Client(), req)
	require.NoError(t, err)
	defer src.Close()

	events, bad := drain(t, src)
	assert.Zero(t, bad)
	assert.Len(t, events, 2)
}

func TestOpenSSE_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = OpenSSE(context.Background(), srv.Client(), req)
	assert.Error(t, err)
}

func TestWebSocketSource(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, ev := range []core.TraceEvent{core.TextDelta{Content: "a"}, core.Done{}} {
			b, _ := Encode(ev)
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer src.Close()

	events, bad := drain(t, src)
	assert.Equal(t, 1, bad)
	assert.Equal(t, []core.TraceEvent{core.TextDelta{Content: "a"}, core.Done{}}, events)
}

func TestChanSource_Cancel(t *testing.T) {
	ch := make(chan core.TraceEvent)
	src := NewChanSource(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(ch)
	_, err = src.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource(core.Done{})
	events, _ := drain(t, src)
	assert.Len(t, events, 1)
}
