package trace

import (
	"encoding/json"
	"fmt"
)

// ToolCallKey identifies a call by tool name and canonical arguments. It only
// suppresses redeliveries of the same still pending call; it is not a
// correlation id for responses.
type ToolCallKey string

// CallKey derives the key of a call.
func CallKey(name string, args map[string]any) ToolCallKey {
	_, canon := canonicalArgs(args)
	return ToolCallKey(name + "\x00" + canon)
}

// canonicalArgs returns args normalized through a JSON round trip (so live
// values match values decoded from the replay log) together with their
// canonical encoding. encoding/json sorts map keys, which makes the encoding
// independent of map iteration order. Empty argument sets normalize to nil.
// Values JSON cannot carry (NaN, infinities, funcs, channels) are replaced
// by their %v text so every call can be logged.
func canonicalArgs(args map[string]any) (map[string]any, string) {
	if len(args) == 0 {
		return nil, "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		args = encodable(args).(map[string]any)
		if b, err = json.Marshal(args); err != nil {
			return nil, "{}"
		}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, "{}"
	}
	return out, string(b)
}

// encodable returns v with every value that fails to encode replaced by its
// %v text. Maps and slices of any are walked so only the offending leaves
// change.
func encodable(v any) any {
	if _, err := json.Marshal(v); err == nil {
		return v
	}
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = encodable(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = encodable(e)
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}
