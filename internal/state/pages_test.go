package state

import (
	"testing"

	"github.com/desertthunder/strum/internal/models"
)

func TestPaginated(t *testing.T) {
	t.Run("pages concatenate in order", func(t *testing.T) {
		var list Paginated[models.Track]
		list.AppendPage([]models.Track{{ID: "a"}, {ID: "b"}}, 4, 0)
		list.AppendPage([]models.Track{{ID: "c"}, {ID: "d"}}, 4, 2)

		if len(list.Items) != 4 {
			t.Fatalf("expected 4 items, got %d", len(list.Items))
		}
		for i, want := range []string{"a", "b", "c", "d"} {
			if list.Items[i].ID != want {
				t.Errorf("item %d: expected %s, got %s", i, want, list.Items[i].ID)
			}
		}
		if list.HasMore() {
			t.Error("expected list complete")
		}
	})

	t.Run("out of order page is dropped", func(t *testing.T) {
		var list Paginated[models.Track]
		list.AppendPage([]models.Track{{ID: "a"}}, 3, 0)
		if list.AppendPage([]models.Track{{ID: "c"}}, 3, 2) {
			t.Error("expected gap-creating page to be dropped")
		}
		if list.AppendPage([]models.Track{{ID: "a"}}, 3, 0) {
			t.Error("expected duplicate page to be dropped")
		}
		if len(list.Items) != 1 {
			t.Errorf("expected 1 item, got %d", len(list.Items))
		}
	})

	t.Run("start fetch blocks concurrent fetches", func(t *testing.T) {
		var list Paginated[models.Track]
		if !list.StartFetch(1) {
			t.Fatal("expected first fetch to start")
		}
		if list.StartFetch(1) {
			t.Error("expected second fetch to be refused while in flight")
		}
		list.AppendPage([]models.Track{{ID: "a"}}, 2, 0)
		if !list.StartFetch(1) {
			t.Error("expected fetch to start again after page arrived")
		}
	})

	t.Run("complete list refuses fetches", func(t *testing.T) {
		var list Paginated[models.Track]
		list.AppendPage([]models.Track{{ID: "a"}}, 1, 0)
		if list.StartFetch(1) {
			t.Error("expected no fetch for a complete list")
		}
	})

	t.Run("abort clears in flight", func(t *testing.T) {
		var list Paginated[models.Track]
		list.StartFetch(1)
		list.AbortFetch()
		if !list.StartFetch(1) {
			t.Error("expected fetch to restart after abort")
		}
	})

	t.Run("cursor clamps to loaded items", func(t *testing.T) {
		var list Paginated[models.Track]
		list.AppendPage([]models.Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}, 3, 0)

		list.MoveCursor(-5)
		if list.Cursor != 0 {
			t.Errorf("expected cursor clamped at 0, got %d", list.Cursor)
		}
		list.MoveCursor(10)
		if list.Cursor != 2 {
			t.Errorf("expected cursor clamped at 2, got %d", list.Cursor)
		}
		item, ok := list.Selected()
		if !ok || item.ID != "c" {
			t.Errorf("expected item c selected, got %v %v", item, ok)
		}
	})

	t.Run("near end detects pagination trigger", func(t *testing.T) {
		var list Paginated[models.Track]
		list.AppendPage(make([]models.Track, 20), 40, 0)
		if list.NearEnd(5) {
			t.Error("cursor at 0 of 20 should not be near the end")
		}
		list.Cursor = 16
		if !list.NearEnd(5) {
			t.Error("cursor at 16 of 20 should be near the end")
		}
	})

	t.Run("reset returns to never-loaded", func(t *testing.T) {
		var list Paginated[models.Track]
		list.AppendPage([]models.Track{{ID: "a"}}, 1, 0)
		list.Reset()
		if list.Loaded() || len(list.Items) != 0 || list.NextOffset() != 0 {
			t.Error("expected pristine list after reset")
		}
	})
}
