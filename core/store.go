package core

import "context"

// LogStore persists replay logs per session. Implementations must preserve
// append order and must never rewrite an entry once stored.
//
// Contract:
//   - Append stores events in the given order after any existing entries
//   - Load returns ErrSessionNotFound for unknown sessions
//   - Load returns events ordered by Index
type LogStore interface {
	Create(ctx context.Context, sessionID string) error
	Append(ctx context.Context, sessionID string, events ...ReplayEvent) error
	Load(ctx context.Context, sessionID string) ([]ReplayEvent, error)
	Delete(ctx context.Context, sessionID string) error
}
