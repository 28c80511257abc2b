// package state holds the single source of truth for everything the terminal
// renders.
//
// AppState has exactly one writer: the dispatcher in internal/ui applies
// events to it one at a time. Background tasks never touch it; they produce
// events carrying sequence numbers, and the bookkeeping here (sequence
// numbers per resource, a generation counter per view instance) decides
// whether a result is applied or discarded.
package state

import (
	"sync/atomic"
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// View identifies which dataset the renderer reads. Exactly one is active at
// a time.
type View int

const (
	LibraryView View = iota
	SearchView
	PlaylistView
	DevicesView
	NowPlayingView
	ErrorView
)

func (v View) String() string {
	switch v {
	case LibraryView:
		return "library"
	case SearchView:
		return "search"
	case PlaylistView:
		return "playlist"
	case DevicesView:
		return "devices"
	case NowPlayingView:
		return "now playing"
	case ErrorView:
		return "error"
	default:
		return "unknown"
	}
}

// Sequencer hands out the monotonically increasing sequence numbers tagging
// every issued command and poll. Safe for use from multiple producers.
type Sequencer struct {
	n atomic.Uint64
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// route is one entry of the navigation stack.
type route struct {
	view         View
	playlistID   string
	playlistName string
}

// AppState is the shared application state. All fields are mutated only from
// the dispatcher's event-processing step.
type AppState struct {
	view         View
	stack        []route
	playlistID   string
	playlistName string

	// generation identifies the current view instance; fetches issued by an
	// abandoned view carry an older generation and are dropped on arrival.
	generation uint64

	// LibraryTab selects between the playlists (0) and saved tracks (1)
	// sections of the library view.
	LibraryTab  int
	Playlists   Paginated[models.Playlist]
	Tracks      Paginated[models.Track]
	SavedTracks Paginated[models.Track]

	Devices      []models.Device
	DeviceCursor int

	Search       *models.SearchResults
	SearchCursor int

	Recent       []models.Track
	RecentCursor int

	Snapshot    *models.Snapshot
	snapshotSeq uint64

	pending map[string]uint64
	Status  *StatusMessage

	ErrorMsg string
}

// New creates an empty AppState positioned at the library view.
func New() *AppState {
	return &AppState{
		view:    LibraryView,
		pending: make(map[string]uint64),
	}
}

// View returns the active view.
func (s *AppState) View() View {
	return s.view
}

// Generation returns the tag identifying the current view instance.
func (s *AppState) Generation() uint64 {
	return s.generation
}

// PlaylistID returns the id of the open playlist, if any.
func (s *AppState) PlaylistID() string {
	return s.playlistID
}

// PlaylistName returns the name of the open playlist, if any.
func (s *AppState) PlaylistName() string {
	return s.playlistName
}

// Navigate pushes the current route and switches to v. Switching views bumps
// the generation so in-flight fetches belonging to the abandoned view are
// discarded on arrival, and drops datasets owned by the view being left.
func (s *AppState) Navigate(v View) {
	if v == s.view {
		return
	}
	s.stack = append(s.stack, route{view: s.view, playlistID: s.playlistID, playlistName: s.playlistName})
	s.leave(s.view)
	s.view = v
	s.generation++
}

// OpenPlaylist navigates to the playlist view for the given playlist.
func (s *AppState) OpenPlaylist(id, name string) {
	s.Navigate(PlaylistView)
	s.playlistID = id
	s.playlistName = name
	s.Tracks.Reset()
}

// Back pops the navigation stack. Returns false at the root.
func (s *AppState) Back() bool {
	if len(s.stack) == 0 {
		return false
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.leave(s.view)
	s.view = top.view
	s.playlistID = top.playlistID
	s.playlistName = top.playlistName
	s.generation++
	return true
}

// leave discards datasets owned by the view being abandoned. PaginatedList
// entries persist for the lifetime of the owning view only.
func (s *AppState) leave(v View) {
	switch v {
	case PlaylistView:
		s.Tracks.Reset()
		s.playlistID = ""
		s.playlistName = ""
	case SearchView:
		s.Search = nil
		s.SearchCursor = 0
	case DevicesView:
		s.Devices = nil
		s.DeviceCursor = 0
	case ErrorView:
		s.ErrorMsg = ""
	}
}

// CurrentGen reports whether gen tags the current view instance.
func (s *AppState) CurrentGen(gen uint64) bool {
	return gen == s.generation
}

// ApplySnapshot installs a playback snapshot if it is newer than the last one
// applied, by sequence number first and by the snapshot's own plausibility
// check second (last-writer-wins by sequence, not by arrival time).
func (s *AppState) ApplySnapshot(snap *models.Snapshot, seq uint64) bool {
	if seq <= s.snapshotSeq {
		return false
	}
	if snap != nil && !snap.Supersedes(s.Snapshot) {
		return false
	}
	s.Snapshot = snap
	s.snapshotSeq = seq
	return true
}

// SnapshotSeq returns the sequence number of the applied snapshot.
func (s *AppState) SnapshotSeq() uint64 {
	return s.snapshotSeq
}

// BeginOp records a remote operation awaiting its result, keyed by the
// operation kind. Rendering reads this to show optimistic/disabled
// affordances.
func (s *AppState) BeginOp(key string, seq uint64) {
	s.pending[key] = seq
}

// CompleteOp resolves a pending operation. Returns false for a late-arriving
// result whose sequence number is older than the latest issued for that key,
// in which case the result must be discarded.
func (s *AppState) CompleteOp(key string, seq uint64) bool {
	latest, ok := s.pending[key]
	if !ok {
		return false
	}
	if seq < latest {
		return false
	}
	delete(s.pending, key)
	return true
}

// OpPending reports whether an operation of the given kind awaits a result.
func (s *AppState) OpPending(key string) bool {
	_, ok := s.pending[key]
	return ok
}

// SetStatus replaces the status line message. The previous message is
// superseded regardless of its remaining lifetime.
func (s *AppState) SetStatus(text string, severity Severity, now time.Time) {
	s.Status = &StatusMessage{Text: text, Severity: severity, Expiry: now.Add(statusTTL)}
}

// ExpireStatus clears a lapsed status message. Returns true when the message
// was cleared, signalling a redraw.
func (s *AppState) ExpireStatus(now time.Time) bool {
	if s.Status != nil && s.Status.Expired(now) {
		s.Status = nil
		return true
	}
	return false
}

// FailView transitions to the error view with a terminal message.
func (s *AppState) FailView(msg string) {
	s.Navigate(ErrorView)
	s.ErrorMsg = msg
}
