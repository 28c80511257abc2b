// Package models defines domain entities shared across the strum client.
//
// The package contains lightweight structs mapped from Spotify Web API
// responses by the gateway in internal/spotify:
//   - [Track] : song metadata as rendered in lists and the play bar
//   - [Playlist] : playlist metadata from the user's library
//   - [Device] : playback devices available for transfer
//   - [Snapshot] : a wholesale copy of remote playback state
//   - [SearchResults] : grouped results for a search query
//
// Snapshots carry the staleness check ([Snapshot.Supersedes]) used by the
// dispatcher to reject out-of-order poll results.
package models
