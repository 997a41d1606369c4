// Package metrics exposes Prometheus collectors reporting ingestion and turn
// activity. A *Metrics satisfies both trace.Metrics and runner.Metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/agenttrace/core"
)

const namespace = "agenttrace"

// Metrics holds the collectors.
type Metrics struct {
	eventsIngested   *prometheus.CounterVec
	eventsOutside    *prometheus.CounterVec
	callsDeduped     *prometheus.CounterVec
	responsesDropped *prometheus.CounterVec
	itemsPerTurn     prometheus.Histogram
	itemsForced      prometheus.Counter
	framesSkipped    prometheus.Counter
	turnsActive      prometheus.Gauge
	turnDuration     *prometheus.HistogramVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// Default returns the instance registered with the global Prometheus
// registry. Collectors are created only once.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNew(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNew constructs Metrics registered with reg. Registration errors panic;
// tests pass a fresh prometheus.NewRegistry().
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		eventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Trace events received by the ingestor.",
		}, []string{"kind"}),
		eventsOutside: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_outside_turn_total",
			Help:      "Trace events dropped because no turn was active.",
		}, []string{"kind"}),
		callsDeduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "calls_deduplicated_total",
			Help:      "Redelivered function calls that were ignored.",
		}, []string{"tool"}),
		responsesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "responses_dropped_total",
			Help:      "Function responses without a pending call.",
		}, []string{"tool"}),
		itemsPerTurn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "items",
			Help:      "Reasoning items per finished turn.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		itemsForced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "items_forced_total",
			Help:      "Pending items closed by turn completion.",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_skipped_total",
			Help:      "Malformed transport frames that were skipped.",
		}),
		turnsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "active",
			Help:      "Turns currently streaming.",
		}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "duration_seconds",
			Help:      "Wall time of streamed turns.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.eventsIngested, m.eventsOutside, m.callsDeduped, m.responsesDropped,
		m.itemsPerTurn, m.itemsForced, m.framesSkipped, m.turnsActive, m.turnDuration)
	return m
}

// EventIngested implements trace.Metrics.
func (m *Metrics) EventIngested(kind core.EventKind) {
	m.eventsIngested.WithLabelValues(string(kind)).Inc()
}

// EventOutsideTurn implements trace.Metrics.
func (m *Metrics) EventOutsideTurn(kind core.EventKind) {
	m.eventsOutside.WithLabelValues(string(kind)).Inc()
}

// CallDeduplicated implements trace.Metrics.
func (m *Metrics) CallDeduplicated(tool string) {
	m.callsDeduped.WithLabelValues(tool).Inc()
}

// ResponseDropped implements trace.Metrics.
func (m *Metrics) ResponseDropped(tool string) {
	m.responsesDropped.WithLabelValues(tool).Inc()
}

// TurnFinished implements trace.Metrics.
func (m *Metrics) TurnFinished(items, forced int) {
	m.itemsPerTurn.Observe(float64(items))
	m.itemsForced.Add(float64(forced))
}

// FrameSkipped counts a malformed frame.
func (m *Metrics) FrameSkipped() {
	m.framesSkipped.Inc()
}

// TurnStarted marks a turn as streaming.
func (m *Metrics) TurnStarted() {
	m.turnsActive.Inc()
}

// TurnEnded records the outcome (done, aborted, failed) and duration of a
// turn.
func (m *Metrics) TurnEnded(outcome string, d time.Duration) {
	m.turnsActive.Dec()
	m.turnDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
