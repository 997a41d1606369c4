package trace

import (
	"regexp"
	"strings"

	"github.com/hupe1980/agenttrace/core"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// NarrationBuffer routes text fragments of a turn. While a tool call is open
// and unanswered, text is narration of that call; otherwise it accumulates
// into the final response.
type NarrationBuffer struct {
	open      bool
	narration string
	final     string
	target    *core.ReasoningItem
}

// NewNarrationBuffer returns an empty buffer.
func NewNarrationBuffer() *NarrationBuffer { return &NarrationBuffer{} }

// IsOpen reports whether a call is open.
func (n *NarrationBuffer) IsOpen() bool { return n.open }

// Write appends content to the active buffer, or replaces it when partial is
// false.
func (n *NarrationBuffer) Write(content string, partial bool) {
	buf := &n.final
	if n.open {
		buf = &n.narration
	}
	if partial {
		*buf += content
		return
	}
	*buf = content
}

// Active returns the content of the active buffer.
func (n *NarrationBuffer) Active() string {
	if n.open {
		return n.narration
	}
	return n.final
}

// Open marks target as the open call receiving narration.
func (n *NarrationBuffer) Open(target *core.ReasoningItem) {
	n.open = true
	n.target = target
}

// Close clears the open call flag; following text routes to the final
// response.
func (n *NarrationBuffer) Close() {
	n.open = false
}

// TakeNarration empties the narration buffer and returns its content with the
// call it belongs to.
func (n *NarrationBuffer) TakeNarration() (string, *core.ReasoningItem) {
	text := n.narration
	n.narration = ""
	return text, n.target
}

// TakeFinal empties the final response buffer and returns its content.
func (n *NarrationBuffer) TakeFinal() string {
	text := n.final
	n.final = ""
	return text
}

// Reset clears all turn scoped state.
func (n *NarrationBuffer) Reset() {
	*n = NarrationBuffer{}
}

// SplitFinal separates reasoning from the answer when the agent interleaved
// both in one text stream. If text holds several blank line separated blocks
// and the turn made at least one tool call, all blocks but the last are
// narration; the last block is the visible answer.
func SplitFinal(text string, hadToolCalls bool) (narration, answer string) {
	if !hadToolCalls {
		return "", text
	}
	var blocks []string
	for _, b := range blankLine.Split(text, -1) {
		if s := strings.TrimSpace(b); s != "" {
			blocks = append(blocks, s)
		}
	}
	if len(blocks) < 2 {
		return "", text
	}
	return strings.Join(blocks[:len(blocks)-1], "\n\n"), blocks[len(blocks)-1]
}

// appendNarration attaches text to item's narration.
func appendNarration(item *core.ReasoningItem, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if item.Narration == "" {
		item.Narration = text
		return
	}
	item.Narration += "\n\n" + text
}

// setFinal replaces the final response buffer regardless of routing. Replay
// uses it to restore the text carried by a turn completion entry.
func (n *NarrationBuffer) setFinal(text string) {
	n.final = text
}
