package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttrace/core"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want core.TraceEvent
	}{
		{
			name: "partial text",
			in:   `{"type":"text","author":"planner","content":"Hel","partial":true}`,
			want: core.TextDelta{Author: "planner", Content: "Hel", Partial: true},
		},
		{
			name: "function call with object args",
			in:   `{"type":"function_call","author":"planner","name":"search","args":{"q":"shoes","limit":3}}`,
			want: core.FunctionCall{Author: "planner", Name: "search", Args: map[string]any{"q": "shoes", "limit": float64(3)}},
		},
		{
			name: "function call with stringified args",
			in:   `{"type":"function_call","name":"search","args":"{\"q\": \"shoes\"}"}`,
			want: core.FunctionCall{Name: "search", Args: map[string]any{"q": "shoes"}},
		},
		{
			name: "function call with repairable args",
			in:   `{"type":"function_call","name":"search","args":"{'q': 'shoes'}"}`,
			want: core.FunctionCall{Name: "search", Args: map[string]any{"q": "shoes"}},
		},
		{
			name: "function call without args",
			in:   `{"type":"function_call","name":"list"}`,
			want: core.FunctionCall{Name: "list"},
		},
		{
			name: "string response",
			in:   `{"type":"function_response","name":"search","response":"3 results"}`,
			want: core.FunctionResponse{Name: "search", Response: "3 results"},
		},
		{
			name: "object response",
			in:   `{"type":"function_response","name":"search","response":{ "result": "ok" }}`,
			want: core.FunctionResponse{Name: "search", Response: `{"result":"ok"}`},
		},
		{
			name: "done",
			in:   `{"type":"done"}`,
			want: core.Done{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	require.ErrorIs(t, err, core.ErrMalformedFrame)
	assert.True(t, Recoverable(err))

	_, err = Decode([]byte(`{"content":"x"}`))
	require.ErrorIs(t, err, core.ErrMalformedFrame)

	_, err = Decode([]byte(`{"type":"function_call","args":{}}`))
	require.ErrorIs(t, err, core.ErrMalformedFrame)

	_, err = Decode([]byte(`{"type":"heartbeat"}`))
	require.ErrorIs(t, err, core.ErrUnknownEventType)
	assert.True(t, Recoverable(err))
}

func TestEncodeDecode(t *testing.T) {
	events := []core.TraceEvent{
		core.TextDelta{Author: "a", Content: "hi", Partial: true},
		core.FunctionCall{Author: "a", Name: "send_message_to_contact", Args: map[string]any{"contact_name": "Shop", "message": "price?"}},
		core.FunctionResponse{Author: "a", Name: "send_message_to_contact", Response: "{'result': 'ok'}"},
		core.Done{Author: "a"},
	}
	for _, ev := range events {
		b, err := Encode(ev)
		require.NoError(t, err)
		got, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
}
