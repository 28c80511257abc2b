package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/spotify"
	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("load on empty store returns nil", func(t *testing.T) {
		repo := NewSessionRepository(openTestDB(t))
		sess, err := repo.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess != nil {
			t.Errorf("expected nil session, got %+v", sess)
		}
	})

	t.Run("save then load round-trips exactly", func(t *testing.T) {
		repo := NewSessionRepository(openTestDB(t))
		saved := &spotify.Session{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Date(2026, 8, 25, 12, 30, 45, 123456789, time.UTC),
		}
		if err := repo.Save(saved); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded == nil {
			t.Fatal("expected a session")
		}
		if loaded.AccessToken != saved.AccessToken || loaded.RefreshToken != saved.RefreshToken {
			t.Errorf("token mismatch: %+v", loaded)
		}
		if !loaded.Expiry.Equal(saved.Expiry) {
			t.Errorf("expiry mismatch: saved %v, loaded %v", saved.Expiry, loaded.Expiry)
		}
	})

	t.Run("save replaces the previous session", func(t *testing.T) {
		repo := NewSessionRepository(openTestDB(t))
		repo.Save(&spotify.Session{AccessToken: "first", RefreshToken: "r1", Expiry: time.Now().UTC()})
		repo.Save(&spotify.Session{AccessToken: "second", RefreshToken: "r2", Expiry: time.Now().UTC()})

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded.AccessToken != "second" {
			t.Errorf("expected latest session, got %s", loaded.AccessToken)
		}
	})

	t.Run("clear removes the session", func(t *testing.T) {
		repo := NewSessionRepository(openTestDB(t))
		repo.Save(&spotify.Session{AccessToken: "token", RefreshToken: "r", Expiry: time.Now().UTC()})
		if err := repo.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded != nil {
			t.Errorf("expected nil after clear, got %+v", loaded)
		}
	})

	t.Run("clear on empty store is a no-op", func(t *testing.T) {
		repo := NewSessionRepository(openTestDB(t))
		if err := repo.Clear(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
