package replay

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/logging"
	"github.com/hupe1980/agenttrace/trace"
)

// DefaultDelay is the pause between two automatic playback steps.
const DefaultDelay = 600 * time.Millisecond

// PlayerOptions configures a Player.
type PlayerOptions struct {
	// Delay between steps of Run. Defaults to DefaultDelay.
	Delay time.Duration
	// Trace configures the reconstruction contexts.
	Trace trace.Config
	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
	// OnStep, if set, receives every state the cursor moves to. It runs
	// outside the player's lock.
	OnStep func(cursor int, state core.SessionViewState)
}

// Player navigates a replay log. Every position change rebuilds the view
// state from the first entry; nothing is cached between positions. A new
// player starts at the end of the log.
type Player struct {
	opts   PlayerOptions
	events []core.ReplayEvent
	logger *logging.TraceLogger

	mu      sync.Mutex
	cursor  int
	state   core.SessionViewState
	playing bool
}

// NewPlayer creates a player over a copy of events.
func NewPlayer(events []core.ReplayEvent, optFns ...func(o *PlayerOptions)) (*Player, error) {
	opts := PlayerOptions{
		Delay:  DefaultDelay,
		Trace:  trace.DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	cp := make([]core.ReplayEvent, len(events))
	for i, ev := range events {
		cp[i] = ev.Clone()
	}
	p := &Player{opts: opts, events: cp, logger: logging.Wrap(opts.Logger)}
	if err := p.ResetToEnd(); err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of log entries.
func (p *Player) Len() int { return len(p.events) }

// Cursor returns the number of applied entries.
func (p *Player) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// State returns the view state at the cursor.
func (p *Player) State() core.SessionViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Playing reports whether automatic playback is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Scrub jumps to position upto, clamped to [0, Len()].
func (p *Player) Scrub(upto int) error {
	return p.seek(func(int) int { return upto })
}

// Step advances exactly one entry. It reports false at the end of the log.
func (p *Player) Step() (bool, error) {
	advanced := false
	err := p.seek(func(cur int) int {
		if cur >= len(p.events) {
			return cur
		}
		advanced = true
		return cur + 1
	})
	return advanced, err
}

// ResetToEnd snaps to the full reconstruction and stops playback.
func (p *Player) ResetToEnd() error {
	p.Stop()
	return p.Scrub(len(p.events))
}

// Play starts automatic playback from the cursor. At the end of the log,
// playback restarts from the beginning.
func (p *Player) Play() error {
	p.mu.Lock()
	atEnd := p.cursor >= len(p.events)
	p.playing = true
	p.mu.Unlock()
	if atEnd {
		return p.Scrub(0)
	}
	return nil
}

// Stop ends automatic playback. The cursor stays where it is.
func (p *Player) Stop() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Tick performs one playback step while playing. Playback stops at the end
// of the log. It reports whether playback is still active.
func (p *Player) Tick() (bool, error) {
	if !p.Playing() {
		return false, nil
	}
	advanced, err := p.Step()
	if err != nil {
		p.Stop()
		return false, err
	}
	if !advanced || p.Cursor() >= len(p.events) {
		p.Stop()
		return false, nil
	}
	return true, nil
}

// Run plays the log from the cursor, one step per Delay, until the end is
// reached, Stop is called or ctx is done.
func (p *Player) Run(ctx context.Context) error {
	if err := p.Play(); err != nil {
		return err
	}
	ticker := time.NewTicker(p.opts.Delay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case <-ticker.C:
			playing, err := p.Tick()
			if err != nil {
				return err
			}
			if !playing {
				return nil
			}
		}
	}
}

func (p *Player) seek(target func(cur int) int) error {
	p.mu.Lock()
	upto := Clamp(target(p.cursor), len(p.events))
	start := time.Now()
	state, err := Reconstruct(p.events, upto, p.opts.Trace)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.cursor = upto
	p.state = state
	p.mu.Unlock()

	p.logger.LogReplay(upto, len(p.events), time.Since(start))
	if p.opts.OnStep != nil {
		p.opts.OnStep(upto, state)
	}
	return nil
}
