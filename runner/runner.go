package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/logging"
	"github.com/hupe1980/agenttrace/replay"
	"github.com/hupe1980/agenttrace/session"
	"github.com/hupe1980/agenttrace/stream"
	"github.com/hupe1980/agenttrace/trace"
)

// Turn outcomes reported to Metrics.TurnEnded.
const (
	OutcomeDone      = "done"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Metrics extends trace.Metrics with turn level measurements.
type Metrics interface {
	trace.Metrics
	FrameSkipped()
	TurnStarted()
	TurnEnded(outcome string, d time.Duration)
}

// NoOpMetrics discards all measurements.
type NoOpMetrics struct{ trace.NoOpMetrics }

// FrameSkipped implements Metrics.
func (NoOpMetrics) FrameSkipped() {}

// TurnStarted implements Metrics.
func (NoOpMetrics) TurnStarted() {}

// TurnEnded implements Metrics.
func (NoOpMetrics) TurnEnded(string, time.Duration) {}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Store persists replay logs.
	Store core.LogStore
	// Logger receives runner and ingestion logs.
	Logger logging.Logger
	// Metrics receives runner and ingestion measurements.
	Metrics Metrics
	// Trace configures the session contexts.
	Trace trace.Config
	// MaxSessions bounds the number of live session contexts kept in memory.
	// The least recently used session is torn down when the bound is hit.
	MaxSessions int
	// DeltaBufferSize sets channel buffering for deltas.
	DeltaBufferSize int
}

// Runner drives live turns: it enforces one streaming turn per session,
// feeds stream events to the session's ingestor, persists every appended
// replay event and delivers the resulting deltas. Public methods are safe for
// concurrent use.
type Runner struct {
	store           core.LogStore
	logger          logging.Logger
	turnLogger      *logging.TraceLogger
	metrics         Metrics
	traceConfig     trace.Config
	deltaBufferSize int

	loadMu   sync.Mutex
	sessions *lru.Cache[string, *liveSession]

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Store:           session.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
		Metrics:         NoOpMetrics{},
		Trace:           trace.DefaultConfig,
		MaxSessions:     64,
		DeltaBufferSize: 100,
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 64
	}

	r := &Runner{
		store:           opts.Store,
		logger:          opts.Logger,
		turnLogger:      logging.Wrap(opts.Logger).WithComponent("runner"),
		metrics:         opts.Metrics,
		traceConfig:     opts.Trace,
		deltaBufferSize: opts.DeltaBufferSize,
		activeRuns:      make(map[string]context.CancelFunc),
	}
	// NewWithEvict only errors on non-positive size which we guard above.
	r.sessions, _ = lru.NewWithEvict(opts.MaxSessions, func(id string, s *liveSession) {
		r.logger.Debug("session context evicted", "session_id", id)
		s.teardown()
	})
	return r
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string { return uuid.NewString() }

// Open loads the session, reconstructing its view state from the stored log,
// and returns that state. Unknown sessions are created empty.
func (r *Runner) Open(ctx context.Context, sessionID string) (core.SessionViewState, error) {
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return core.SessionViewState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.in.Context().Snapshot(), nil
}

// Log returns the replay log of the session.
func (r *Runner) Log(ctx context.Context, sessionID string) ([]core.ReplayEvent, error) {
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.log.Events(), nil
}

// Close drops the live context of a session. Its stored log is kept.
func (r *Runner) Close(sessionID string) {
	r.sessions.Remove(sessionID)
}

// Run starts streaming a turn: message opens it, src yields the agent's
// events. It returns a run id for Cancel, a channel of view-model deltas and
// a channel of errors; both are closed when the turn ends. Starting a turn
// while another turn of the session streams fails with core.ErrTurnInProgress.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	message string,
	src stream.Source,
) (string, <-chan core.Delta, <-chan error, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil, nil, core.ErrEmptyMessage
	}
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return "", nil, nil, err
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.runID != "" {
		s.mu.Unlock()
		cancel()
		return "", nil, nil, core.ErrTurnInProgress
	}
	initial := s.in.StartTurn(message)
	turnID := s.in.Context().ActiveTurn()
	if err := r.persist(ctx, s); err != nil {
		s.in.Abort()
		s.mu.Unlock()
		cancel()
		return "", nil, nil, err
	}
	s.runID = runID
	s.cancel = cancel
	s.mu.Unlock()

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	deltasCh := make(chan core.Delta, r.deltaBufferSize)
	errorsCh := make(chan error, 1)

	r.metrics.TurnStarted()
	r.logger.Debug("turn started", "session_id", sessionID, "turn_id", turnID, "run_id", runID)

	go func() {
		start := time.Now()
		res := turnResult{outcome: OutcomeDone}
		defer func() {
			s.mu.Lock()
			if s.runID == runID {
				s.runID = ""
				s.cancel = nil
			}
			s.mu.Unlock()

			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			cancel()

			dur := time.Since(start)
			r.metrics.TurnEnded(res.outcome, dur)
			r.turnLogger.WithSession(sessionID, turnID).
				WithContext("outcome", res.outcome).
				LogTurn(turnID, res.events, dur, res.err)
			close(deltasCh)
			close(errorsCh)
		}()

		res = r.stream(ctx, s, turnID, src, initial, deltasCh, errorsCh)
	}()

	return runID, deltasCh, errorsCh, nil
}

// Cancel cancels a running turn by run id. The turn's thinking block keeps
// the status it reached.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// turnResult summarizes a streamed turn for metrics and the turn log.
type turnResult struct {
	outcome string
	events  int // stream events ingested
	err     error
}

// stream consumes src until the turn completes or fails.
func (r *Runner) stream(
	ctx context.Context,
	s *liveSession,
	turnID string,
	src stream.Source,
	initial []core.Delta,
	deltasCh chan<- core.Delta,
	errorsCh chan<- error,
) turnResult {
	res := turnResult{outcome: OutcomeCancelled}
	if !send(ctx, deltasCh, initial) {
		r.abort(s, turnID)
		return res
	}

	for {
		ev, err := src.Next(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			r.abort(s, turnID)
			return res
		case stream.Recoverable(err):
			r.metrics.FrameSkipped()
			r.logger.Debug("malformed frame skipped", "turn_id", turnID, "error", err)
			continue
		default:
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("stream of %s ended before turn completion: %w", turnID, io.ErrUnexpectedEOF)
			}
			r.fail(ctx, s, turnID, err, deltasCh, errorsCh)
			return turnResult{outcome: OutcomeFailed, events: res.events, err: err}
		}

		s.mu.Lock()
		if s.in.Context().ActiveTurn() != turnID {
			// Torn down by eviction.
			s.mu.Unlock()
			return res
		}
		deltas := s.in.Ingest(ev)
		res.events++
		perr := r.persist(ctx, s)
		finished := s.in.Context().ActiveTurn() == ""
		s.mu.Unlock()

		if perr != nil {
			r.fail(ctx, s, turnID, perr, deltasCh, errorsCh)
			return turnResult{outcome: OutcomeFailed, events: res.events, err: perr}
		}
		if !send(ctx, deltasCh, deltas) {
			if !finished {
				r.abort(s, turnID)
			}
			return res
		}
		if finished {
			res.outcome = OutcomeDone
			return res
		}
	}
}

// fail aborts the turn and surfaces err as a system notice and on the error
// channel. The error itself is logged with the turn.
func (r *Runner) fail(ctx context.Context, s *liveSession, turnID string, err error, deltasCh chan<- core.Delta, errorsCh chan<- error) {
	r.abort(s, turnID)
	send(ctx, deltasCh, []core.Delta{core.SystemNotice{Text: fmt.Sprintf("Connection lost: %v", err)}})
	select {
	case errorsCh <- err:
	default:
	}
}

func (r *Runner) abort(s *liveSession, turnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in.Context().ActiveTurn() == turnID {
		s.in.Abort()
	}
}

// Import appends events to the session's log as if they had been replayed
// after its last entry and persists them. A trailing incomplete turn is
// closed the same way a rebuild closes it. Importing while a turn of the
// session streams fails with core.ErrTurnInProgress.
func (r *Runner) Import(ctx context.Context, sessionID string, events []core.ReplayEvent) error {
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.runID != "" {
		s.mu.Unlock()
		return core.ErrTurnInProgress
	}
	err = r.absorb(ctx, s, events)
	s.mu.Unlock()

	if err != nil {
		// The live state may be ahead of the store; rebuild it on next use.
		r.sessions.Remove(sessionID)
		return err
	}
	return nil
}

// absorb replays events onto a live session. Caller must hold s.mu.
func (r *Runner) absorb(ctx context.Context, s *liveSession, events []core.ReplayEvent) error {
	for _, ev := range events {
		stored := s.log.Append(ev)
		if _, err := s.in.Replay(stored); err != nil {
			return fmt.Errorf("failed to import into session %s: %w", s.id, err)
		}
	}
	s.in.Abort()
	return r.persist(ctx, s)
}

// persist appends log entries not yet stored. Caller must hold s.mu.
// Persistence is not bound to the turn's cancellation.
func (r *Runner) persist(ctx context.Context, s *liveSession) error {
	pending := s.log.Since(s.persisted)
	if len(pending) == 0 {
		return nil
	}
	if err := r.store.Append(context.WithoutCancel(ctx), s.id, pending...); err != nil {
		return fmt.Errorf("failed to persist replay events: %w", err)
	}
	s.persisted += len(pending)
	return nil
}

// load returns the live session, rebuilding it from the store on a miss.
func (r *Runner) load(ctx context.Context, sessionID string) (*liveSession, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if s, ok := r.sessions.Get(sessionID); ok {
		return s, nil
	}

	events, err := r.store.Load(ctx, sessionID)
	if errors.Is(err, core.ErrSessionNotFound) {
		if err := r.store.Create(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		events, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s, err := r.rebuild(sessionID, events)
	if err != nil {
		return nil, err
	}
	r.sessions.Add(sessionID, s)
	return s, nil
}

func (r *Runner) rebuild(sessionID string, events []core.ReplayEvent) (*liveSession, error) {
	log := replay.NewLog(events...)
	sc := trace.NewSessionContext(r.traceConfig)
	in := trace.NewIngestor(sc, func(o *trace.IngestorOptions) {
		o.Recorder = log
		o.Logger = r.logger
		o.Metrics = r.metrics
	})
	for _, ev := range log.Events() {
		if _, err := in.Replay(ev); err != nil {
			return nil, fmt.Errorf("failed to replay session %s: %w", sessionID, err)
		}
	}
	// A stored turn without completion was interrupted.
	in.Abort()
	return &liveSession{id: sessionID, log: log, in: in, persisted: log.Len()}, nil
}

func send(ctx context.Context, ch chan<- core.Delta, deltas []core.Delta) bool {
	for _, d := range deltas {
		select {
		case <-ctx.Done():
			return false
		case ch <- d:
		}
	}
	return true
}

// liveSession is the in-memory state of one session.
type liveSession struct {
	id string

	mu        sync.Mutex
	log       *replay.Log
	in        *trace.Ingestor
	persisted int
	runID     string
	cancel    context.CancelFunc
}

// teardown cancels a streaming turn and drops the derived state.
func (s *liveSession) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.in.Abort()
	s.in.Context().Reset()
}
