package replay

import (
	"bytes"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/stream"
)

// FromHistory converts persisted chat rows into replay entries. User rows open
// turns, assistant rows whose metadata holds a function_call or
// function_response frame become tool entries and plain assistant rows become
// the finished message of the turn. A turn left open by the rows is completed
// with an empty message before the next user row and at the end. Rows whose
// metadata cannot be decoded are skipped.
func FromHistory(rows []core.HistoryMessage) []core.ReplayEvent {
	var (
		out  []core.ReplayEvent
		open bool
	)
	push := func(ev core.ReplayEvent) {
		ev.Index = len(out)
		out = append(out, ev)
	}
	closeTurn := func() {
		if open {
			push(core.NewTurnCompleteEvent("", ""))
			open = false
		}
	}

	for _, row := range rows {
		if row.Role == core.RoleUser {
			closeTurn()
			push(core.NewUserReplayEvent(row.Content))
			open = true
			continue
		}
		if !open {
			continue
		}

		if hasFrame(row) {
			if ev, ok := frameEvent(row); ok {
				push(ev)
			}
			continue
		}
		push(core.NewTurnCompleteEvent(row.Author, row.Content))
		open = false
	}
	closeTurn()
	return out
}

// hasFrame reports whether the row carries a stream frame in its metadata.
func hasFrame(row core.HistoryMessage) bool {
	meta := bytes.TrimSpace(row.Metadata)
	return len(meta) > 0 && !bytes.Equal(meta, []byte("{}")) && !bytes.Equal(meta, []byte("null"))
}

// frameEvent decodes the stream frame kept in the metadata of a tool row.
func frameEvent(row core.HistoryMessage) (core.ReplayEvent, bool) {
	ev, err := stream.Decode(row.Metadata)
	if err != nil {
		return core.ReplayEvent{}, false
	}
	author := row.Author
	switch e := ev.(type) {
	case core.FunctionCall:
		if author == "" {
			author = e.Author
		}
		return core.NewToolCallReplayEvent(author, e.Name, e.Args), true
	case core.FunctionResponse:
		if author == "" {
			author = e.Author
		}
		return core.NewToolResponseReplayEvent(author, e.Name, e.Response), true
	default:
		return core.ReplayEvent{}, false
	}
}
