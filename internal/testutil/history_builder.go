package testutil

import (
	"encoding/json"

	"github.com/hupe1980/agenttrace/core"
)

// HistoryBuilder scripts persisted chat rows the way the chat service stores
// them: tool rows keep their stream frame in the metadata.
type HistoryBuilder struct {
	rows []core.HistoryMessage
}

// NewHistoryBuilder creates an empty builder.
func NewHistoryBuilder() *HistoryBuilder { return &HistoryBuilder{} }

// User adds a user row (chainable).
func (b *HistoryBuilder) User(text string) *HistoryBuilder {
	b.rows = append(b.rows, core.HistoryMessage{Role: core.RoleUser, Author: "user", Content: text, Metadata: json.RawMessage(`{}`)})
	return b
}

// Assistant adds a final assistant text row (chainable).
func (b *HistoryBuilder) Assistant(author, text string) *HistoryBuilder {
	b.rows = append(b.rows, core.HistoryMessage{Role: core.RoleAssistant, Author: author, Content: text, Metadata: json.RawMessage(`{}`)})
	return b
}

// Call adds a function_call row (chainable).
func (b *HistoryBuilder) Call(author, name string, args map[string]any) *HistoryBuilder {
	return b.frame(author, name, map[string]any{"type": "function_call", "author": author, "name": name, "args": args})
}

// Response adds a function_response row (chainable).
func (b *HistoryBuilder) Response(author, name, response string) *HistoryBuilder {
	return b.frame(author, name, map[string]any{"type": "function_response", "author": author, "name": name, "response": response})
}

// Raw adds a row with arbitrary metadata (chainable).
func (b *HistoryBuilder) Raw(role core.MessageRole, author, content, metadata string) *HistoryBuilder {
	b.rows = append(b.rows, core.HistoryMessage{Role: role, Author: author, Content: content, Metadata: json.RawMessage(metadata)})
	return b
}

// Build returns the rows.
func (b *HistoryBuilder) Build() []core.HistoryMessage {
	return append([]core.HistoryMessage(nil), b.rows...)
}

func (b *HistoryBuilder) frame(author, name string, payload map[string]any) *HistoryBuilder {
	meta, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	b.rows = append(b.rows, core.HistoryMessage{Role: core.RoleAssistant, Author: author, Content: name, Metadata: meta})
	return b
}
