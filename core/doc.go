// Package core provides the foundational domain types and interfaces used by
// agenttrace. It defines:
//
//   - TraceEvents (the closed union decoded from the agent execution stream)
//   - ReasoningItems, ThinkingBlocks and the participant graph (view model)
//   - ReplayEvents (immutable, ordered entries of the replay log)
//   - Deltas (structured view-model updates for the rendering layer)
//   - LogStore (pluggable persistence of replay logs)
//
// The package keeps behaviour out of scope: correlation lives in package
// trace, reconstruction in package replay.
package core
