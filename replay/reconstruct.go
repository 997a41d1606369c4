package replay

import (
	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/trace"
)

// Clamp bounds upto to [0, n].
func Clamp(upto, n int) int {
	if upto < 0 {
		return 0
	}
	if upto > n {
		return n
	}
	return upto
}

// Reconstruct rebuilds the view state produced by the first upto events of a
// log. upto is clamped to [0, len(events)]. Reconstruction always starts from
// an empty SessionContext, so a playback scrub to any position is
// deterministic regardless of the previous position.
func Reconstruct(events []core.ReplayEvent, upto int, cfg trace.Config) (core.SessionViewState, error) {
	upto = Clamp(upto, len(events))
	in := trace.NewIngestor(trace.NewSessionContext(cfg))
	for i, ev := range events[:upto] {
		ev.Index = i
		if _, err := in.Replay(ev); err != nil {
			return core.SessionViewState{}, err
		}
	}
	return in.Context().Snapshot(), nil
}
