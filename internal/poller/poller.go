// package poller drives periodic playback-state fetches.
//
// The poll rate adapts to the active view: fast while Now Playing is focused,
// slow otherwise. A tick is skipped outright when the previous poll is still
// in flight, a rate-limit response backs the poller off until the indicated
// retry-after elapses, and an unauthorized response pauses polling entirely
// until re-authentication.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/spotify"
	"github.com/desertthunder/strum/internal/state"
)

// Fetcher retrieves the current playback snapshot. Implemented by
// [spotify.Client.CurrentPlayback].
type Fetcher func(ctx context.Context) (*models.Snapshot, error)

// Event is one poll outcome delivered to the dispatcher's merged stream.
type Event struct {
	Snapshot       *models.Snapshot
	Seq            uint64
	Err            error
	SessionExpired bool
}

// Poller issues playback-state fetches on an adaptive interval.
type Poller struct {
	fetch  Fetcher
	seq    *state.Sequencer
	logger *log.Logger
	events chan Event
	nudge  chan struct{}

	fast time.Duration
	slow time.Duration

	mu          sync.Mutex
	fastMode    bool
	inFlight    bool
	paused      bool      // unauthorized; cleared by Resume
	pausedUntil time.Time // rate-limit backoff deadline
}

// New creates a poller. Interval values come from configuration; they are
// tunable, not load-bearing.
func New(fetch Fetcher, seq *state.Sequencer, fast, slow time.Duration, logger *log.Logger) *Poller {
	if fast <= 0 {
		fast = 2 * time.Second
	}
	if slow <= 0 {
		slow = 5 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Poller{
		fetch:  fetch,
		seq:    seq,
		logger: logger,
		events: make(chan Event, 8),
		nudge:  make(chan struct{}, 1),
		fast:   fast,
		slow:   slow,
	}
}

// Events delivers poll outcomes in the order they were produced.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// SetFast switches between the fast and slow intervals.
func (p *Poller) SetFast(fast bool) {
	p.mu.Lock()
	p.fastMode = fast
	p.mu.Unlock()
}

// Resume clears the unauthorized pause after re-authentication.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.pausedUntil = time.Time{}
	p.mu.Unlock()
	p.Nudge()
}

// Nudge requests an immediate poll, used after transport commands so the UI
// reflects the new remote state without waiting out the interval.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

func (p *Poller) interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fastMode {
		return p.fast
	}
	return p.slow
}

// Run polls until ctx is cancelled. The first poll fires immediately.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.nudge:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		p.tick(ctx)
		timer.Reset(p.interval())
	}
}

// tick issues one poll unless the poller is paused, backing off, or the
// previous poll is still in flight. Never queues concurrent polls.
func (p *Poller) tick(ctx context.Context) {
	p.mu.Lock()
	if p.paused || p.inFlight || time.Now().Before(p.pausedUntil) {
		p.mu.Unlock()
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	seq := p.seq.Next()

	// The fetch runs off the timer loop so a slow network call suspends only
	// this task; in-flight detection keeps polls from stacking up.
	go p.poll(ctx, seq)
}

func (p *Poller) poll(ctx context.Context, seq uint64) {
	snap, err := p.fetch(ctx)

	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	event := Event{Snapshot: snap, Seq: seq, Err: err}

	if err != nil {
		switch kind, _ := spotify.KindOf(err); kind {
		case spotify.KindRateLimited:
			retryAfter := spotify.RetryAfterOf(err)
			if retryAfter <= 0 {
				retryAfter = p.slow
			}
			p.mu.Lock()
			p.pausedUntil = time.Now().Add(retryAfter)
			p.mu.Unlock()
			p.logger.Warn("poll rate limited", "retry_after", retryAfter)
		case spotify.KindUnauthorized:
			p.mu.Lock()
			p.paused = true
			p.mu.Unlock()
			event.SessionExpired = true
			p.logger.Warn("poll unauthorized, pausing until re-authentication")
		}
	}

	select {
	case p.events <- event:
	case <-ctx.Done():
	}
}
