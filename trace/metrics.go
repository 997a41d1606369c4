package trace

import "github.com/hupe1980/agenttrace/core"

// Metrics receives ingestion counters. Implementations must be cheap; they run
// inline on the ingestion path.
type Metrics interface {
	EventIngested(kind core.EventKind)
	EventOutsideTurn(kind core.EventKind)
	CallDeduplicated(tool string)
	ResponseDropped(tool string)
	TurnFinished(items, forced int)
}

// NoOpMetrics discards all measurements.
type NoOpMetrics struct{}

// EventIngested implements Metrics.
func (NoOpMetrics) EventIngested(core.EventKind) {}

// EventOutsideTurn implements Metrics.
func (NoOpMetrics) EventOutsideTurn(core.EventKind) {}

// CallDeduplicated implements Metrics.
func (NoOpMetrics) CallDeduplicated(string) {}

// ResponseDropped implements Metrics.
func (NoOpMetrics) ResponseDropped(string) {}

// TurnFinished implements Metrics.
func (NoOpMetrics) TurnFinished(int, int) {}
