package trace

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const maxReplyDepth = 8

// ExtractReplyText pulls the readable reply out of an agent exchange
// response. It is a tolerant best-effort parse, never an error:
//
//  1. blank input is returned as is
//  2. input that does not look like JSON is returned as is
//  3. JSON is decoded, repairing it first when strict decoding fails
//     (responses are often the Python repr of a dict, e.g. {'result': ...})
//  4. the envelope is unwrapped: result, parts[].text, status.message.parts,
//     artifacts[].parts, text, message, response, content
//  5. when nothing readable is found the raw response is returned
func ExtractReplyText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	v, ok := decodeLoose(trimmed)
	if !ok {
		return raw
	}
	if text, ok := replyText(v, 0); ok && strings.TrimSpace(text) != "" {
		return text
	}
	return raw
}

func decodeLoose(s string) (any, bool) {
	switch s[0] {
	case '{', '[', '"':
	default:
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, true
	}
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	return v, true
}

func replyText(v any, depth int) (string, bool) {
	if depth > maxReplyDepth {
		return "", false
	}
	switch t := v.(type) {
	case string:
		// Envelopes are sometimes stringified twice.
		if s := strings.TrimSpace(t); s != "" {
			if inner, ok := decodeLoose(s); ok {
				if _, isString := inner.(string); !isString {
					if text, ok := replyText(inner, depth+1); ok {
						return text, true
					}
				}
			}
		}
		return t, true
	case []any:
		return partsText(t)
	case map[string]any:
		return envelopeText(t, depth)
	default:
		return "", false
	}
}

func envelopeText(m map[string]any, depth int) (string, bool) {
	if r, ok := m["result"]; ok && r != nil {
		if text, ok := replyText(r, depth+1); ok {
			return text, true
		}
	}
	if parts, ok := m["parts"].([]any); ok {
		if text, ok := partsText(parts); ok {
			return text, true
		}
	}
	// Task shaped result: status message first, then artifacts.
	var texts []string
	if status, ok := m["status"].(map[string]any); ok {
		if msg, ok := status["message"].(map[string]any); ok {
			if parts, ok := msg["parts"].([]any); ok {
				if text, ok := partsText(parts); ok {
					texts = append(texts, text)
				}
			}
		}
	}
	if artifacts, ok := m["artifacts"].([]any); ok {
		for _, a := range artifacts {
			am, ok := a.(map[string]any)
			if !ok {
				continue
			}
			if parts, ok := am["parts"].([]any); ok {
				if text, ok := partsText(parts); ok {
					texts = append(texts, text)
				}
			}
		}
	}
	if len(texts) > 0 {
		return strings.Join(texts, "\n"), true
	}
	if text, ok := m["text"].(string); ok {
		return text, true
	}
	for _, key := range []string{"message", "response", "content"} {
		if inner, ok := m[key]; ok && inner != nil {
			if text, ok := replyText(inner, depth+1); ok {
				return text, true
			}
		}
	}
	return "", false
}

func partsText(parts []any) (string, bool) {
	var texts []string
	for _, p := range parts {
		switch pt := p.(type) {
		case string:
			texts = append(texts, pt)
		case map[string]any:
			if text, ok := pt["text"].(string); ok {
				texts = append(texts, text)
				continue
			}
			if root, ok := pt["root"].(map[string]any); ok {
				if text, ok := root["text"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	return strings.Join(texts, "\n"), true
}
