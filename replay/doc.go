// Package replay provides the append-only replay log of a session and the
// operations that rebuild derived view state from it.
//
// A Log is the single source of truth for a session: every canonical event
// the trace.Ingestor produces is appended to it. Reconstruct rebuilds the
// SessionViewState of the first N entries by running them through a fresh
// SessionContext, which gives the same result live ingestion produced at that
// point. Player drives step-wise and timed playback on top of Reconstruct.
//
// FromHistory converts stored chat history rows into replay entries so
// sessions persisted by other backends can be replayed too.
package replay
