package trace

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/logging"
)

// Recorder receives every canonical event the ingestor produces. Append
// returns the stored event with its log index assigned.
type Recorder interface {
	Append(ev core.ReplayEvent) core.ReplayEvent
}

// countingRecorder numbers events without keeping them.
type countingRecorder struct{ n int }

func (r *countingRecorder) Append(ev core.ReplayEvent) core.ReplayEvent {
	ev.Index = r.n
	r.n++
	return ev
}

// IngestorOptions configures an Ingestor.
type IngestorOptions struct {
	// Recorder receives produced replay events. Defaults to a recorder that
	// only numbers them.
	Recorder Recorder
	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
	// Metrics defaults to NoOpMetrics.
	Metrics Metrics
}

// Ingestor is the single writer of a SessionContext. It accepts one event at
// a time, in stream order, dispatches it to the correlators and returns the
// resulting view-model deltas. Live events are recorded to the Recorder;
// replayed log entries are applied through the same code paths without being
// recorded again.
type Ingestor struct {
	sc       *SessionContext
	recorder Recorder
	logger   logging.Logger
	metrics  Metrics

	// origin is the log entry being replayed; nil for live events.
	origin *core.ReplayEvent
}

// NewIngestor creates an ingestor writing to sc.
func NewIngestor(sc *SessionContext, optFns ...func(o *IngestorOptions)) *Ingestor {
	opts := IngestorOptions{
		Recorder: &countingRecorder{},
		Logger:   logging.NoOpLogger{},
		Metrics:  NoOpMetrics{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Ingestor{
		sc:       sc,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Context returns the session context written by the ingestor.
func (in *Ingestor) Context() *SessionContext { return in.sc }

// StartTurn opens a turn for a user message: a fresh thinking block is
// created and the turn scoped state is reset.
func (in *Ingestor) StartTurn(text string) []core.Delta {
	sc := in.sc
	idx := in.record(core.NewUserReplayEvent(text))
	turnID := fmt.Sprintf("turn-%d", idx)

	sc.narration.Reset()
	sc.tools.Reset()
	sc.author = ""

	block := newThinkingBlock(turnID)
	sc.blocks = append(sc.blocks, block)
	sc.active = block

	msg := core.ChatMessage{TurnID: turnID, Role: core.RoleUser, Author: "user", Text: text}
	sc.messages = append(sc.messages, msg)

	return []core.Delta{core.MessageDelta{Message: msg}, block.Summary()}
}

// Ingest processes exactly one stream event. Events arriving outside a turn
// are dropped.
func (in *Ingestor) Ingest(ev core.TraceEvent) []core.Delta {
	if ev == nil {
		return nil
	}
	in.meter().EventIngested(ev.Kind())
	if in.sc.active == nil {
		in.meter().EventOutsideTurn(ev.Kind())
		in.log().Debug("trace event outside turn dropped", "kind", ev.Kind())
		return nil
	}

	switch e := ev.(type) {
	case core.TextDelta:
		return in.text(e.Author, e.Content, e.Partial)
	case core.FunctionCall:
		return in.call(e.Author, e.Name, e.Args)
	case core.FunctionResponse:
		return in.response(e.Author, e.Name, e.Response)
	case core.Done:
		return in.done(e.Author)
	default:
		in.log().Warn("unsupported trace event dropped", "type", fmt.Sprintf("%T", ev))
		return nil
	}
}

// Abort ends the active turn without finalizing its block, as when the live
// stream fails or is stopped. The block keeps whatever status it reached.
func (in *Ingestor) Abort() {
	sc := in.sc
	if sc.active != nil {
		in.log().Debug("turn aborted", "turn_id", sc.active.turnID, "pending", sc.active.pending)
	}
	sc.active = nil
	sc.narration.Reset()
	sc.tools.Reset()
	sc.author = ""
}

// Replay applies one log entry through the live code paths. Entries are not
// recorded again; ids derive from the entry's index.
func (in *Ingestor) Replay(ev core.ReplayEvent) ([]core.Delta, error) {
	in.origin = &ev
	defer func() { in.origin = nil }()

	sc := in.sc
	switch ev.Type {
	case core.ReplayUser:
		return in.StartTurn(ev.Text), nil
	case core.ReplayAssistant:
		if sc.active == nil {
			return nil, nil
		}
		if ev.IsTurnComplete() {
			sc.narration.setFinal(ev.Text)
			return in.done(ev.Author), nil
		}
		return in.text(ev.Author, ev.Text, false), nil
	case core.ReplayToolCall:
		p, err := ev.ToolCall()
		if err != nil {
			return nil, err
		}
		if sc.active == nil {
			return nil, nil
		}
		return in.call(ev.Author, p.Name, p.Args), nil
	case core.ReplayToolResponse:
		p, err := ev.ToolResponse()
		if err != nil {
			return nil, err
		}
		if sc.active == nil {
			return nil, nil
		}
		return in.response(ev.Author, p.Name, p.Response), nil
	default:
		return nil, fmt.Errorf("%w: replay entry %d has type %q", core.ErrUnknownEventType, ev.Index, ev.Type)
	}
}

func (in *Ingestor) text(author, content string, partial bool) []core.Delta {
	sc := in.sc
	if author != "" {
		sc.author = author
	}
	sc.narration.Write(content, partial)
	return []core.Delta{core.DraftDelta{
		TurnID:    sc.active.turnID,
		Text:      sc.narration.Active(),
		Narration: sc.narration.IsOpen(),
	}}
}

func (in *Ingestor) call(author, name string, args map[string]any) []core.Delta {
	sc := in.sc
	block := sc.active

	canon, _ := canonicalArgs(args)
	key := CallKey(name, canon)
	if sc.tools.Duplicate(key) {
		in.meter().CallDeduplicated(name)
		in.log().Debug("duplicate function call ignored", "turn_id", block.turnID, "tool", name)
		return nil
	}

	var deltas []core.Delta

	// The active buffer is consumed by the call: narration of a previous
	// open call goes to that call, text produced since the last action
	// becomes narration of this one.
	var pre string
	if sc.narration.IsOpen() {
		text, target := sc.narration.TakeNarration()
		in.recordText(text)
		if target != nil && text != "" {
			appendNarration(target, text)
			deltas = append(deltas, core.ItemDelta{TurnID: block.turnID, Item: target.Clone()})
		}
	} else {
		pre = sc.narration.TakeFinal()
		in.recordText(pre)
	}

	idx := in.record(core.NewToolCallReplayEvent(in.authorOr(author), name, canon))
	id := fmt.Sprintf("item-%d", idx)

	var item *core.ReasoningItem
	if name == sc.cfg.ExchangeToolName {
		var graph []core.Delta
		item, graph = sc.exchanges.OnCall(block, id, name, canon)
		sc.tools.remember(key, item)
		deltas = append(deltas, graph...)
	} else {
		item = sc.tools.OnCall(block, id, name, canon)
	}
	if item == nil {
		return deltas
	}

	appendNarration(item, pre)
	sc.narration.Open(item)

	return append(deltas, core.ItemDelta{TurnID: block.turnID, Item: item.Clone()}, block.Summary())
}

func (in *Ingestor) response(author, name, response string) []core.Delta {
	sc := in.sc

	var (
		item   *core.ReasoningItem
		owner  *ThinkingBlock
		deltas []core.Delta
	)
	if name == sc.cfg.ExchangeToolName {
		item, owner, deltas = sc.exchanges.OnResponse(response)
	} else {
		owner = sc.active
		item = sc.tools.OnResponse(owner, response)
	}

	if item != nil && sc.narration.IsOpen() {
		text, target := sc.narration.TakeNarration()
		in.recordText(text)
		if target != nil && text != "" {
			appendNarration(target, text)
			if target != item {
				deltas = append(deltas, core.ItemDelta{TurnID: sc.active.turnID, Item: target.Clone()})
			}
		}
		sc.narration.Close()
	}

	in.record(core.NewToolResponseReplayEvent(in.authorOr(author), name, response))

	if item == nil {
		in.meter().ResponseDropped(name)
		in.log().Debug("unmatched function response dropped", "turn_id", sc.active.turnID, "tool", name)
		return nil
	}

	return append(deltas, core.ItemDelta{TurnID: owner.turnID, Item: item.Clone()}, owner.Summary())
}

func (in *Ingestor) done(author string) []core.Delta {
	sc := in.sc
	block := sc.active

	var deltas []core.Delta

	if sc.narration.IsOpen() {
		text, target := sc.narration.TakeNarration()
		in.recordText(text)
		if target == nil {
			target = block.last()
		}
		if target != nil && text != "" {
			appendNarration(target, text)
			deltas = append(deltas, core.ItemDelta{TurnID: block.turnID, Item: target.Clone()})
		}
		sc.narration.Close()
	}

	final := sc.narration.TakeFinal()
	author = in.authorOr(author)
	in.record(core.NewTurnCompleteEvent(author, final))

	narration, answer := SplitFinal(final, block.Len() > 0)
	if narration != "" {
		if last := block.last(); last != nil {
			appendNarration(last, narration)
			deltas = append(deltas, core.ItemDelta{TurnID: block.turnID, Item: last.Clone()})
		}
	}

	forced := block.Finalize()
	for _, it := range forced {
		deltas = append(deltas, core.ItemDelta{TurnID: block.turnID, Item: it.Clone()})
	}
	if len(forced) > 0 {
		in.log().Debug("pending items closed at turn end", "turn_id", block.turnID, "count", len(forced))
	}
	deltas = append(deltas, block.Summary())

	if answer = strings.TrimSpace(answer); answer != "" {
		msg := core.ChatMessage{TurnID: block.turnID, Role: core.RoleAssistant, Author: author, Text: answer}
		sc.messages = append(sc.messages, msg)
		deltas = append(deltas, core.MessageDelta{Message: msg})
	}

	in.meter().TurnFinished(block.Len(), len(forced))

	sc.active = nil
	sc.narration.Reset()
	sc.tools.Reset()
	sc.author = ""

	return deltas
}

// record appends ev in live mode and returns its log index. While replaying,
// the index of the entry being replayed is returned and nothing is recorded.
func (in *Ingestor) record(ev core.ReplayEvent) int {
	if in.origin != nil {
		return in.origin.Index
	}
	return in.recorder.Append(ev).Index
}

// recordText logs the consolidated content of a consumed text buffer.
func (in *Ingestor) recordText(text string) {
	if text == "" {
		return
	}
	in.record(core.NewAssistantTextEvent(in.authorOr(""), text))
}

// meter and log are silenced while replaying, so rebuilding a session from
// its log does not count or report the same turn twice.
func (in *Ingestor) meter() Metrics {
	if in.origin != nil {
		return NoOpMetrics{}
	}
	return in.metrics
}

func (in *Ingestor) log() logging.Logger {
	if in.origin != nil {
		return logging.NoOpLogger{}
	}
	return in.logger
}

func (in *Ingestor) authorOr(author string) string {
	if author != "" {
		return author
	}
	if in.sc.author != "" {
		return in.sc.author
	}
	return in.sc.cfg.AgentName
}
