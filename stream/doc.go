// Package stream decodes agent trace frames into core.TraceEvent values and
// provides the transports a turn can be streamed from.
//
// Frames are JSON objects discriminated by "type" (text, function_call,
// function_response, done). A Source yields one decoded event per Next call.
// Frames that cannot be decoded are reported with an error wrapping
// core.ErrMalformedFrame; the source stays usable and callers skip them.
//
// Transports:
//   - SSESource reads "data: {json}" server sent events from an io.Reader
//   - WebSocketSource reads one frame per websocket message
//   - SliceSource and ChanSource feed in-memory events (tests, replays)
package stream
