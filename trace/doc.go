// Package trace reconstructs a coherent record of an agent turn from the
// one-directional, possibly duplicated and loosely correlated TraceEvent
// stream.
//
// A SessionContext owns all derived state of one session: thinking blocks,
// the participant graph, the color registry and the turn scoped buffers. The
// Ingestor is the single writer of that state. It processes exactly one event
// per call, synchronously, and records every produced canonical event to a
// Recorder (normally a replay.Log) so the same state can later be rebuilt
// from the log alone.
//
// Correlation rules:
//   - A FunctionCall equal (name plus canonical args) to the still pending
//     previous call is a redelivery and is ignored.
//   - Ordinary tool responses resolve the oldest pending ordinary item of the
//     active block.
//   - Responses of the agent exchange tool resolve the oldest pending
//     exchange. The stream carries no correlation id, so out of order replies
//     resolve the wrong exchange.
//   - Text routes to narration while a call is open, otherwise to the final
//     answer.
package trace
