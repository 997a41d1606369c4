package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hupe1980/agenttrace/core"
)

// frame is the wire shape of a trace event.
type frame struct {
	Type     string          `json:"type"`
	Author   string          `json:"author,omitempty"`
	Content  string          `json:"content,omitempty"`
	Partial  bool            `json:"partial,omitempty"`
	Name     string          `json:"name,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Decode parses one JSON frame.
func Decode(data []byte) (core.TraceEvent, error) {
	var f frame
	if err := json.Unmarshal(bytes.TrimSpace(data), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedFrame, err)
	}

	switch core.EventKind(f.Type) {
	case core.EventText:
		return core.TextDelta{Author: f.Author, Content: f.Content, Partial: f.Partial}, nil
	case core.EventFunctionCall:
		if f.Name == "" {
			return nil, fmt.Errorf("%w: function_call without name", core.ErrMalformedFrame)
		}
		args, err := decodeArgs(f.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: args of %s: %v", core.ErrMalformedFrame, f.Name, err)
		}
		return core.FunctionCall{Author: f.Author, Name: f.Name, Args: args}, nil
	case core.EventFunctionResponse:
		return core.FunctionResponse{Author: f.Author, Name: f.Name, Response: responseText(f.Response)}, nil
	case core.EventDone:
		return core.Done{Author: f.Author}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", core.ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEventType, f.Type)
	}
}

// decodeArgs accepts an object, a JSON encoded object string (repaired when
// it is not strict JSON) or null.
func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(s), &args); err == nil {
			if len(args) == 0 {
				return nil, nil
			}
			return args, nil
		}
		repaired, err := jsonrepair.JSONRepair(s)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(repaired), &args); err != nil {
			return nil, err
		}
		return args, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

// responseText returns a string response as is and any other JSON value in
// its compact encoding.
func responseText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Encode renders ev as a wire frame.
func Encode(ev core.TraceEvent) ([]byte, error) {
	var f frame
	switch e := ev.(type) {
	case core.TextDelta:
		f = frame{Type: string(core.EventText), Author: e.Author, Content: e.Content, Partial: e.Partial}
	case core.FunctionCall:
		args := e.Args
		if args == nil {
			args = map[string]any{}
		}
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode args of %s: %w", e.Name, err)
		}
		f = frame{Type: string(core.EventFunctionCall), Author: e.Author, Name: e.Name, Args: b}
	case core.FunctionResponse:
		b, err := json.Marshal(e.Response)
		if err != nil {
			return nil, err
		}
		f = frame{Type: string(core.EventFunctionResponse), Author: e.Author, Name: e.Name, Response: b}
	case core.Done:
		f = frame{Type: string(core.EventDone), Author: e.Author}
	default:
		return nil, fmt.Errorf("%w: %T", core.ErrUnknownEventType, ev)
	}
	return json.Marshal(f)
}
