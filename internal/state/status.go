package state

import "time"

// Severity grades a status message for rendering.
type Severity int

const (
	StatusInfo Severity = iota
	StatusWarn
	StatusError
)

// StatusMessage is a transient message shown in the status line, superseded
// by the next message or cleared after its expiry.
type StatusMessage struct {
	Text     string
	Severity Severity
	Expiry   time.Time
}

// Expired reports whether the message should no longer render.
func (m *StatusMessage) Expired(now time.Time) bool {
	return !m.Expiry.After(now)
}

// statusTTL is how long a status message stays on screen unless superseded.
const statusTTL = 5 * time.Second
