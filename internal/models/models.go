// package models defines the data model for the strum terminal client
package models

import (
	"fmt"
	"time"
)

// Track is the renderable representation of a song.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	DurationMS int
	Saved      bool
	URI        string
}

// URL returns the public web URL for the track, used for clipboard copy.
func (t Track) URL() string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", t.ID)
}

// Playlist is the renderable representation of a playlist.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	TrackCount  int
	Public      bool
}

// Device represents a playback device registered with the user's account.
type Device struct {
	ID            string
	Name          string
	Type          string
	Active        bool
	VolumePercent int
}

// RepeatState enumerates the remote repeat modes.
type RepeatState string

const (
	RepeatOff     RepeatState = "off"
	RepeatContext RepeatState = "context"
	RepeatTrack   RepeatState = "track"
)

// Next cycles off → context → track → off, matching the remote service's
// toggle order.
func (r RepeatState) Next() RepeatState {
	switch r {
	case RepeatOff:
		return RepeatContext
	case RepeatContext:
		return RepeatTrack
	default:
		return RepeatOff
	}
}

// Snapshot is a complete, immutable copy of playback state at a point in
// time. Snapshots replace each other wholesale; they are never patched.
type Snapshot struct {
	Track      *Track
	ProgressMS int
	Playing    bool
	Volume     int
	Shuffle    bool
	Repeat     RepeatState
	DeviceID   string
	DeviceName string
	UpdatedAt  time.Time
}

// Supersedes reports whether s is a plausible successor to prev. Progress is
// monotonically non-decreasing between snapshots of the same track unless
// playback state changed (seek, pause, skip are delivered as commands, not
// polls), so a same-track snapshot with earlier progress and an older
// timestamp is a stale poll result.
func (s *Snapshot) Supersedes(prev *Snapshot) bool {
	if prev == nil {
		return true
	}
	if s == nil {
		return false
	}
	if s.Track == nil || prev.Track == nil || s.Track.ID != prev.Track.ID {
		return true
	}
	if s.ProgressMS < prev.ProgressMS && !s.UpdatedAt.After(prev.UpdatedAt) {
		return false
	}
	return true
}

// SearchResults groups the result sets of a single search query.
type SearchResults struct {
	Query     string
	Tracks    []Track
	Playlists []Playlist
}
