package session

import (
	"context"
	"sync"

	"github.com/hupe1980/agenttrace/core"
)

// InMemoryStore is a volatile LogStore implementation keeping replay logs in
// a process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Events are cloned on the way in and out to
// prevent external mutation of stored entries.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]core.ReplayEvent
}

// NewInMemoryStore constructs an empty in‑memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{logs: make(map[string][]core.ReplayEvent)}
}

// Create registers an empty log for sessionID. Creating an existing session
// keeps its entries.
func (s *InMemoryStore) Create(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createLocked(sessionID)
	return nil
}

// Append adds events to the end of the session log, creating it lazily.
// Stored entries are indexed by their position in the log.
func (s *InMemoryStore) Append(_ context.Context, sessionID string, events ...core.ReplayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.createLocked(sessionID)
	for _, ev := range events {
		ev = ev.Clone()
		ev.Index = len(log)
		log = append(log, ev)
	}
	s.logs[sessionID] = log
	return nil
}

// Load returns a copy of the session log.
func (s *InMemoryStore) Load(_ context.Context, sessionID string) ([]core.ReplayEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[sessionID]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	out := make([]core.ReplayEvent, len(log))
	for i, ev := range log {
		out[i] = ev.Clone()
	}
	return out, nil
}

// Delete drops the session log. Deleting an unknown session is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sessionID)
	return nil
}

// createLocked returns the log of sessionID, allocating it first if needed;
// caller must already hold the write lock.
func (s *InMemoryStore) createLocked(sessionID string) []core.ReplayEvent {
	log, ok := s.logs[sessionID]
	if !ok {
		log = []core.ReplayEvent{}
		s.logs[sessionID] = log
	}
	return log
}
