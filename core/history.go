package core

import "encoding/json"

// HistoryMessage is one persisted chat row as stored by the chat history
// service. User rows carry plain text; assistant rows carry either the final
// text of a turn or, when Metadata holds a "type" of function_call or
// function_response, the original stream payload of that event.
type HistoryMessage struct {
	Role     MessageRole     `json:"role"`
	Author   string          `json:"author"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata_json,omitempty"`
}
