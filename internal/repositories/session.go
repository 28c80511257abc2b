package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/spotify"
)

// SessionRepository implements [spotify.SessionStore] on SQLite. The table
// holds at most one row; Save replaces it wholesale so a reload always yields
// exactly what was saved.
type SessionRepository struct {
	db *sql.DB
}

var _ spotify.SessionStore = (*SessionRepository)(nil)

// NewSessionRepository creates a [SessionRepository] with the given database connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load reads the persisted session. Returns (nil, nil) when none is stored.
// An unreadable row is reported as [shared.ErrCorruptStore], which is fatal
// at startup.
func (r *SessionRepository) Load() (*spotify.Session, error) {
	query := `SELECT access_token, refresh_token, expiry FROM sessions WHERE id = 1`

	var accessToken, refreshToken, expiry string
	err := r.db.QueryRow(query).Scan(&accessToken, &refreshToken, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptStore, err)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expiry %q", shared.ErrCorruptStore, expiry)
	}

	if accessToken == "" && refreshToken == "" {
		return nil, fmt.Errorf("%w: empty token row", shared.ErrCorruptStore)
	}

	return &spotify.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       expiresAt,
	}, nil
}

// Save replaces the stored session.
func (r *SessionRepository) Save(sess *spotify.Session) error {
	if sess == nil {
		return fmt.Errorf("%w: nil session", shared.ErrInvalidArgument)
	}

	query := `
		INSERT INTO sessions (id, access_token, refresh_token, expiry, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		sess.AccessToken,
		sess.RefreshToken,
		sess.Expiry.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Clear deletes the stored session, used at logout.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
