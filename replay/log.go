package replay

import (
	"sync"

	"github.com/hupe1980/agenttrace/core"
)

// Log is an append-only, ordered sequence of replay events. Appending assigns
// the entry's index; stored entries are never modified. Log is safe for
// concurrent use.
type Log struct {
	mu     sync.RWMutex
	events []core.ReplayEvent
}

// NewLog creates a log holding copies of events, re-indexed from zero.
func NewLog(events ...core.ReplayEvent) *Log {
	l := &Log{}
	for _, ev := range events {
		l.Append(ev)
	}
	return l
}

// Append stores a copy of ev at the end of the log and returns the stored
// entry with its index assigned.
func (l *Log) Append(ev core.ReplayEvent) core.ReplayEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev = ev.Clone()
	ev.Index = len(l.events)
	l.events = append(l.events, ev)
	return ev.Clone()
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// At returns a copy of entry i.
func (l *Log) At(i int) (core.ReplayEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.events) {
		return core.ReplayEvent{}, false
	}
	return l.events[i].Clone(), true
}

// Events returns a copy of every entry.
func (l *Log) Events() []core.ReplayEvent {
	return l.Since(0)
}

// Since returns copies of the entries from index n on.
func (l *Log) Since(n int) []core.ReplayEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(l.events) {
		return nil
	}
	out := make([]core.ReplayEvent, 0, len(l.events)-n)
	for _, ev := range l.events[n:] {
		out = append(out, ev.Clone())
	}
	return out
}
