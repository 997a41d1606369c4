// Package agenttrace provides a high-level façade over the trace correlation
// engine, the replay log and the live runner. Most applications interact with
// this package by:
//  1. Creating an AgentTrace via New() (optionally overriding the in‑memory store)
//  2. Streaming turns from a transport source (Run or RunSync)
//  3. Rebuilding or playing back the view state of a session (State, Player)
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable store (session/sqlite) and a
// structured logger.
package agenttrace

import (
	"context"
	"fmt"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/logging"
	"github.com/hupe1980/agenttrace/replay"
	"github.com/hupe1980/agenttrace/runner"
	"github.com/hupe1980/agenttrace/session"
	"github.com/hupe1980/agenttrace/stream"
	"github.com/hupe1980/agenttrace/trace"
)

// Options configures the AgentTrace instance.
type Options struct {
	// Trace defines the naming conventions used to interpret streams: the
	// local participant, the default agent author and the messaging tool.
	Trace trace.Config

	// Store persists replay logs (defaults to an in-memory store).
	Store core.LogStore

	// MaxSessions bounds the live session contexts kept in memory.
	MaxSessions int

	// DeltaBufferSize sets the channel buffer size for delta delivery.
	DeltaBufferSize int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics (defaults to NoOp metrics if nil)
	Metrics runner.Metrics
}

// AgentTrace is the high-level façade aggregating the runner and the store.
type AgentTrace struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new AgentTrace instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentTrace {
	opts := Options{
		Trace:           trace.DefaultConfig,
		Store:           session.NewInMemoryStore(),
		MaxSessions:     64,
		DeltaBufferSize: 100,
		Logger:          logging.NoOpLogger{},
		Metrics:         runner.NoOpMetrics{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = runner.NoOpMetrics{}
	}
	opts.Logger = logging.Wrap(opts.Logger)

	r := runner.New(func(o *runner.Options) {
		o.Store = opts.Store
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.Trace = opts.Trace
		o.MaxSessions = opts.MaxSessions
		o.DeltaBufferSize = opts.DeltaBufferSize
	})

	return &AgentTrace{opts: opts, runner: r}
}

// Run starts an asynchronous turn returning delta & error channels.
func (a *AgentTrace) Run(
	ctx context.Context,
	sessionID string,
	message string,
	src stream.Source,
) (string, <-chan core.Delta, <-chan error, error) {
	return a.runner.Run(ctx, sessionID, message, src)
}

// RunSync is a synchronous helper that drains the async channels and returns
// every delta of the turn.
func (a *AgentTrace) RunSync(
	ctx context.Context,
	sessionID string,
	message string,
	src stream.Source,
) ([]core.Delta, error) {
	_, deltasCh, errorsCh, err := a.runner.Run(ctx, sessionID, message, src)
	if err != nil {
		return nil, err
	}

	var deltas []core.Delta
	for d := range deltasCh {
		deltas = append(deltas, d)
	}
	// The error channel is closed right after the delta channel.
	if err := <-errorsCh; err != nil {
		return deltas, err
	}
	return deltas, ctx.Err()
}

// Cancel stops a streaming turn by run id.
func (a *AgentTrace) Cancel(runID string) error { return a.runner.Cancel(runID) }

// State returns the current view state of a session.
func (a *AgentTrace) State(ctx context.Context, sessionID string) (core.SessionViewState, error) {
	return a.runner.Open(ctx, sessionID)
}

// Log returns the replay log of a session.
func (a *AgentTrace) Log(ctx context.Context, sessionID string) ([]core.ReplayEvent, error) {
	return a.runner.Log(ctx, sessionID)
}

// StateAt rebuilds the view state of the first upto log entries.
func (a *AgentTrace) StateAt(ctx context.Context, sessionID string, upto int) (core.SessionViewState, error) {
	events, err := a.runner.Log(ctx, sessionID)
	if err != nil {
		return core.SessionViewState{}, err
	}
	return replay.Reconstruct(events, upto, a.opts.Trace)
}

// Player returns a playback navigator over the session's log.
func (a *AgentTrace) Player(ctx context.Context, sessionID string, optFns ...func(o *replay.PlayerOptions)) (*replay.Player, error) {
	events, err := a.runner.Log(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fns := append([]func(o *replay.PlayerOptions){func(o *replay.PlayerOptions) {
		o.Trace = a.opts.Trace
		o.Logger = logging.Wrap(a.opts.Logger).WithComponent("replay")
	}}, optFns...)
	return replay.NewPlayer(events, fns...)
}

// ImportHistory appends the replay entries derived from persisted chat rows
// to the session's log and applies them to its live context. It fails with
// core.ErrTurnInProgress while a turn of the session streams.
func (a *AgentTrace) ImportHistory(ctx context.Context, sessionID string, rows []core.HistoryMessage) (int, error) {
	events := replay.FromHistory(rows)
	if err := a.runner.Import(ctx, sessionID, events); err != nil {
		return 0, fmt.Errorf("failed to import history: %w", err)
	}
	return len(events), nil
}
