// package queue carries user-initiated intents from the input layer to a
// background worker.
//
// The queue is bounded to provide backpressure: enqueue never blocks the
// input loop, and when the queue is full a rapid duplicate intent (volume-up
// spam) coalesces into the already-queued one instead of surfacing an error.
// A single worker drains the queue in FIFO order, one command at a time, so
// contradictory playback commands can never race each other to the remote
// service.
package queue

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/shared"
)

// Kind discriminates queued commands. Coalescing treats two commands of the
// same kind as duplicates.
type Kind int

const (
	KindPlay Kind = iota
	KindResume
	KindPause
	KindNext
	KindPrevious
	KindSeek
	KindVolume
	KindShuffle
	KindRepeat
	KindTransfer
	KindToggleSave
	KindFetchPlaylists
	KindFetchPlaylistTracks
	KindFetchSavedTracks
	KindFetchDevices
	KindFetchRecent
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindPlay:
		return "play"
	case KindResume:
		return "resume"
	case KindPause:
		return "pause"
	case KindNext:
		return "next"
	case KindPrevious:
		return "previous"
	case KindSeek:
		return "seek"
	case KindVolume:
		return "volume"
	case KindShuffle:
		return "shuffle"
	case KindRepeat:
		return "repeat"
	case KindTransfer:
		return "transfer"
	case KindToggleSave:
		return "toggle-save"
	case KindFetchPlaylists:
		return "fetch-playlists"
	case KindFetchPlaylistTracks:
		return "fetch-playlist-tracks"
	case KindFetchSavedTracks:
		return "fetch-saved-tracks"
	case KindFetchDevices:
		return "fetch-devices"
	case KindFetchRecent:
		return "fetch-recent"
	case KindSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Command is one user intent. Seq orders results for last-writer-wins
// resolution; Gen tags the view instance that issued a fetch so abandoned
// views can discard late results.
type Command struct {
	ID     string
	Kind   Kind
	Seq    uint64
	Gen    uint64
	Target string   // playlist, track, or device id
	Query  string   // search term
	URIs   []string // explicit track URIs for play
	Value  int      // seek position, volume percent
	Offset int      // pagination cursor
	Flag   bool     // shuffle on, track currently saved
}

// Result pairs a finished command with its outcome. Data holds whatever the
// executor produced for that command kind.
type Result struct {
	Command Command
	Data    any
	Err     error
}

// Executor performs a command against the API gateway.
type Executor func(ctx context.Context, cmd Command) (any, error)

// DefaultCapacity bounds queued intents. Small on purpose: anything deeper
// than this is key-repeat spam, not intent.
const DefaultCapacity = 32

// Queue is a bounded FIFO of pending commands with a single draining worker.
type Queue struct {
	capacity int
	exec     Executor
	logger   *log.Logger
	results  chan Result
	wake     chan struct{}

	mu     sync.Mutex
	items  []Command
	closed bool
}

// New creates a queue with the given capacity (DefaultCapacity when <= 0).
func New(capacity int, exec Executor, logger *log.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Queue{
		capacity: capacity,
		exec:     exec,
		logger:   logger,
		results:  make(chan Result, capacity),
		wake:     make(chan struct{}, 1),
	}
}

// Results delivers finished commands in completion order, which for a single
// worker is enqueue order.
func (q *Queue) Results() <-chan Result {
	return q.results
}

// Len returns the number of queued (unstarted) commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Enqueue adds a command without blocking. When the queue is full, the oldest
// unstarted command of the same kind is dropped in favor of the new one
// (coalescing). With no duplicate to drop, the new command is rejected with
// [shared.ErrQueueFull]; callers treat that as coalesced, never as a user
// visible failure.
func (q *Queue) Enqueue(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return shared.ErrQueueClosed
	}

	if len(q.items) >= q.capacity {
		dropped := false
		for i, queued := range q.items {
			if queued.Kind == cmd.Kind {
				q.items = append(q.items[:i], q.items[i+1:]...)
				q.logger.Debug("coalesced duplicate command", "kind", cmd.Kind, "id", queued.ID)
				dropped = true
				break
			}
		}
		if !dropped {
			return shared.ErrQueueFull
		}
	}

	q.items = append(q.items, cmd)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run drains the queue until ctx is cancelled, executing one command at a
// time in FIFO order.
func (q *Queue) Run(ctx context.Context) {
	defer q.close()

	for {
		cmd, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}

		data, err := q.exec(ctx, cmd)
		if ctx.Err() != nil {
			return
		}

		select {
		case q.results <- Result{Command: cmd, Data: data, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) pop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Command{}, false
	}
	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd, true
}

func (q *Queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
