package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/spotify"
	"github.com/desertthunder/strum/internal/state"
)

func waitEvent(t *testing.T, p *Poller) Event {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll event")
		return Event{}
	}
}

func TestPolling(t *testing.T) {
	t.Run("emits snapshots with increasing sequence", func(t *testing.T) {
		fetch := func(ctx context.Context) (*models.Snapshot, error) {
			return &models.Snapshot{Track: &models.Track{ID: "t1"}, UpdatedAt: time.Now()}, nil
		}
		p := New(fetch, &state.Sequencer{}, 10*time.Millisecond, 10*time.Millisecond, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		first := waitEvent(t, p)
		second := waitEvent(t, p)
		if first.Err != nil || second.Err != nil {
			t.Fatalf("unexpected errors: %v %v", first.Err, second.Err)
		}
		if second.Seq <= first.Seq {
			t.Errorf("expected increasing sequence, got %d then %d", first.Seq, second.Seq)
		}
	})

	t.Run("skips ticks while a poll is in flight", func(t *testing.T) {
		var mu sync.Mutex
		active, maxActive := 0, 0
		release := make(chan struct{})
		fetch := func(ctx context.Context) (*models.Snapshot, error) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			<-release
			mu.Lock()
			active--
			mu.Unlock()
			return nil, nil
		}

		p := New(fetch, &state.Sequencer{}, 5*time.Millisecond, 5*time.Millisecond, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		// Several intervals elapse while the first fetch is blocked.
		time.Sleep(50 * time.Millisecond)
		close(release)
		waitEvent(t, p)

		mu.Lock()
		defer mu.Unlock()
		if maxActive != 1 {
			t.Errorf("expected one poll in flight at a time, saw %d", maxActive)
		}
	})

	t.Run("nudge triggers an immediate poll", func(t *testing.T) {
		calls := make(chan struct{}, 16)
		fetch := func(ctx context.Context) (*models.Snapshot, error) {
			calls <- struct{}{}
			return nil, nil
		}
		p := New(fetch, &state.Sequencer{}, time.Hour, time.Hour, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		// First poll fires immediately on startup.
		<-calls
		waitEvent(t, p)

		p.Nudge()
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("expected nudge to trigger a poll before the interval")
		}
	})
}

func TestBackoff(t *testing.T) {
	t.Run("rate limit pauses until retry-after", func(t *testing.T) {
		var mu sync.Mutex
		calls := 0
		fetch := func(ctx context.Context) (*models.Snapshot, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return nil, &spotify.APIError{Kind: spotify.KindRateLimited, Status: 429, RetryAfter: time.Hour}
			}
			return nil, nil
		}

		p := New(fetch, &state.Sequencer{}, 5*time.Millisecond, 5*time.Millisecond, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		ev := waitEvent(t, p)
		if kind, _ := spotify.KindOf(ev.Err); kind != spotify.KindRateLimited {
			t.Fatalf("expected rate limit event, got %v", ev.Err)
		}

		// Many intervals pass; the hour-long backoff must swallow all of them.
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		if calls != 1 {
			t.Errorf("expected no polls during backoff, got %d calls", calls)
		}
	})

	t.Run("unauthorized pauses until resume", func(t *testing.T) {
		var mu sync.Mutex
		calls := 0
		fetch := func(ctx context.Context) (*models.Snapshot, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return nil, &spotify.APIError{Kind: spotify.KindUnauthorized, Status: 401}
			}
			return &models.Snapshot{UpdatedAt: time.Now()}, nil
		}

		p := New(fetch, &state.Sequencer{}, 5*time.Millisecond, 5*time.Millisecond, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		ev := waitEvent(t, p)
		if !ev.SessionExpired {
			t.Fatal("expected session-expired event")
		}

		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		paused := calls
		mu.Unlock()
		if paused != 1 {
			t.Fatalf("expected polling paused after unauthorized, got %d calls", paused)
		}

		p.Resume()
		ev = waitEvent(t, p)
		if ev.Err != nil {
			t.Errorf("expected successful poll after resume, got %v", ev.Err)
		}
	})
}
