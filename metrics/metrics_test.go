package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/trace"
)

var _ trace.Metrics = (*Metrics)(nil)

func TestMetrics_IngestCounters(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())

	m.EventIngested(core.EventText)
	m.EventIngested(core.EventText)
	m.EventIngested(core.EventDone)
	m.EventOutsideTurn(core.EventDone)
	m.CallDeduplicated("search")
	m.ResponseDropped("search")
	m.TurnFinished(3, 1)
	m.FrameSkipped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsIngested.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsIngested.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsOutside.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsDeduped.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.responsesDropped.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsForced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesSkipped))
}

func TestMetrics_TurnGauge(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())

	m.TurnStarted()
	m.TurnStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.turnsActive))

	m.TurnEnded("done", time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turnsActive))
	assert.Equal(t, 1, testutil.CollectAndCount(m.turnDuration))
}

func TestMetrics_WiredIntoIngestor(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	in := trace.NewIngestor(trace.NewSessionContext(trace.DefaultConfig), func(o *trace.IngestorOptions) { o.Metrics = m })

	in.StartTurn("hi")
	in.Ingest(core.FunctionCall{Name: "search"})
	in.Ingest(core.FunctionCall{Name: "search"})
	in.Ingest(core.Done{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsIngested.WithLabelValues("function_call")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsDeduped.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsForced))
}
