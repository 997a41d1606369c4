// Package runner implements the live driving layer for agenttrace.
//
// The Runner owns one live session context per session id, rebuilt from the
// stored replay log on first use and kept in a bounded LRU cache. For every
// turn it:
//
//   - enforces that at most one turn per session streams at a time
//   - feeds the transport's events to the session's ingestor one at a time
//   - persists each replay event the ingestor appends
//   - delivers the resulting view-model deltas on a channel
//   - skips malformed frames and turns transport failures into a system
//     notice, releasing the turn without finalizing its thinking block
//
// Turns can be cancelled by run id. See runner.go for details.
package runner
