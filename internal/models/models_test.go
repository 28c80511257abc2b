package models

import (
	"testing"
	"time"
)

func TestRepeatState(t *testing.T) {
	t.Run("cycles through all modes", func(t *testing.T) {
		order := []RepeatState{RepeatOff, RepeatContext, RepeatTrack, RepeatOff}
		current := RepeatOff
		for i := 1; i < len(order); i++ {
			current = current.Next()
			if current != order[i] {
				t.Fatalf("step %d: expected %s, got %s", i, order[i], current)
			}
		}
	})

	t.Run("unknown state resets to off", func(t *testing.T) {
		if got := RepeatState("bogus").Next(); got != RepeatOff {
			t.Errorf("expected off, got %s", got)
		}
	})
}

func TestTrackURL(t *testing.T) {
	track := Track{ID: "4uLU6hMCjMI75M1A2tKUQC"}
	want := "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"
	if got := track.URL(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSnapshotSupersedes(t *testing.T) {
	base := time.Now()
	track := &Track{ID: "track1", DurationMS: 200000}

	t.Run("any snapshot supersedes nil", func(t *testing.T) {
		snap := &Snapshot{Track: track, UpdatedAt: base}
		if !snap.Supersedes(nil) {
			t.Error("expected snapshot to supersede nil")
		}
	})

	t.Run("nil never supersedes", func(t *testing.T) {
		var snap *Snapshot
		prev := &Snapshot{Track: track, UpdatedAt: base}
		if snap.Supersedes(prev) {
			t.Error("expected nil snapshot not to supersede")
		}
	})

	t.Run("track change always supersedes", func(t *testing.T) {
		prev := &Snapshot{Track: track, ProgressMS: 100000, UpdatedAt: base}
		next := &Snapshot{Track: &Track{ID: "track2"}, ProgressMS: 0, UpdatedAt: base.Add(-time.Second)}
		if !next.Supersedes(prev) {
			t.Error("expected new track to supersede regardless of progress")
		}
	})

	t.Run("advancing progress supersedes", func(t *testing.T) {
		prev := &Snapshot{Track: track, ProgressMS: 10000, UpdatedAt: base}
		next := &Snapshot{Track: track, ProgressMS: 12000, UpdatedAt: base.Add(2 * time.Second)}
		if !next.Supersedes(prev) {
			t.Error("expected advancing snapshot to supersede")
		}
	})

	t.Run("stale same-track snapshot is rejected", func(t *testing.T) {
		prev := &Snapshot{Track: track, ProgressMS: 12000, UpdatedAt: base}
		stale := &Snapshot{Track: track, ProgressMS: 10000, UpdatedAt: base.Add(-time.Second)}
		if stale.Supersedes(prev) {
			t.Error("expected earlier-progress, older snapshot to be rejected")
		}
	})

	t.Run("rewound progress with newer timestamp supersedes", func(t *testing.T) {
		// A seek backwards produces a legitimately newer snapshot with less
		// progress.
		prev := &Snapshot{Track: track, ProgressMS: 60000, UpdatedAt: base}
		next := &Snapshot{Track: track, ProgressMS: 5000, UpdatedAt: base.Add(time.Second)}
		if !next.Supersedes(prev) {
			t.Error("expected newer snapshot to supersede after a rewind")
		}
	})
}
