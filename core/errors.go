package core

import "errors"

var (
	// ErrTurnInProgress is returned when a turn is started while another turn
	// of the same session is still streaming.
	ErrTurnInProgress = errors.New("turn already in progress")
	// ErrSessionNotFound is returned by stores for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMalformedFrame marks a transport frame that could not be decoded into
	// a TraceEvent. Such frames are skipped without terminating the stream.
	ErrMalformedFrame = errors.New("malformed trace frame")
	// ErrUnknownEventType marks a frame whose type discriminator is unknown.
	ErrUnknownEventType = errors.New("unknown trace event type")
	// ErrEmptyMessage is returned when a turn is started without text.
	ErrEmptyMessage = errors.New("empty user message")
)
