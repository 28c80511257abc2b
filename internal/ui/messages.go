package ui

import (
	"time"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/mpris"
	"github.com/desertthunder/strum/internal/poller"
	"github.com/desertthunder/strum/internal/queue"
	"github.com/desertthunder/strum/internal/state"
)

// The dispatcher consumes one merged stream of messages. Terminal input
// arrives as tea.KeyMsg; everything below wraps the other event sources so
// each processing step stays a pure (state, event) transition.

// snapshotMsg carries one poll outcome: a fresh snapshot, a poller error, or
// a session-expired notice.
type snapshotMsg poller.Event

// commandResultMsg carries one finished queue command.
type commandResultMsg queue.Result

// mediaKeyMsg is a media-key press from the desktop side channel.
type mediaKeyMsg mpris.Key

// tickMsg drives status-message expiry and play-bar extrapolation.
type tickMsg time.Time

// statusNoteMsg reports the outcome of a local side effect (clipboard copy)
// back to the dispatcher.
type statusNoteMsg struct {
	text     string
	severity state.Severity
}

// Typed payloads produced by the command executor for fetch commands.

// playlistPage is one fetched page of the user's playlists.
type playlistPage struct {
	Items  []models.Playlist
	Total  int
	Offset int
}

// trackPage is one fetched page of playlist or saved tracks.
type trackPage struct {
	Items  []models.Track
	Total  int
	Offset int
}
