package stream

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/agenttrace/core"
)

// Source yields the trace events of one turn in stream order. Next returns
// io.EOF when the stream ended. An error wrapping core.ErrMalformedFrame or
// core.ErrUnknownEventType reports a single bad frame; any other error means
// the transport failed and the source is unusable.
type Source interface {
	Next(ctx context.Context) (core.TraceEvent, error)
}

// Recoverable reports whether err only concerns a single frame.
func Recoverable(err error) bool {
	return errors.Is(err, core.ErrMalformedFrame) || errors.Is(err, core.ErrUnknownEventType)
}

// SliceSource replays a fixed list of events.
type SliceSource struct {
	events []core.TraceEvent
	pos    int
}

// NewSliceSource creates a source yielding events in order.
func NewSliceSource(events ...core.TraceEvent) *SliceSource {
	return &SliceSource{events: events}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (core.TraceEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

// ChanSource yields events received from a channel until it is closed.
type ChanSource struct {
	ch <-chan core.TraceEvent
}

// NewChanSource creates a source reading from ch.
func NewChanSource(ch <-chan core.TraceEvent) *ChanSource {
	return &ChanSource{ch: ch}
}

// Next implements Source. It blocks until an event arrives, the channel is
// closed or ctx is done.
func (s *ChanSource) Next(ctx context.Context) (core.TraceEvent, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	}
}
