package spotify

import "time"

// Session holds the OAuth token state for the authenticated user. It is owned
// exclusively by the [Client]: only the refresh routine mutates it, and no
// other package reads its fields directly.
type Session struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// expirySlack refreshes slightly before the reported expiry so a token never
// dies mid-request.
const expirySlack = 10 * time.Second

// Expired reports whether the access token is expired or within the slack
// window of expiring.
func (s *Session) Expired(now time.Time) bool {
	if s.Expiry.IsZero() {
		return false
	}
	return !s.Expiry.After(now.Add(expirySlack))
}

// SessionStore persists token state between runs. The format is the store's
// concern; the client only calls Load at construction, Save after every
// successful refresh or exchange, and Clear on logout.
type SessionStore interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}
