// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	Images      []Image  `json:"images"`
	URI         string   `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	Popularity int      `json:"popularity"`
	URI        string   `json:"uri"`
}

// Model maps the API track object to the renderable domain type.
func (t Track) Model() models.Track {
	m := models.Track{
		ID:         t.ID,
		Title:      t.Name,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		URI:        t.URI,
	}
	if len(t.Artists) > 0 {
		m.Artist = t.Artists[0].Name
	}
	return m
}

// SavedTrack represents a track saved in the user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// PlayHistoryItem represents one entry of the recently-played feed.
type PlayHistoryItem struct {
	PlayedAt string `json:"played_at"`
	Track    Track  `json:"track"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackTotal struct {
	Total int `json:"total"`
}

// SimplePlaylist represents a simplified playlist object (used in lists).
type SimplePlaylist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       owner      `json:"owner"`
	Public      bool       `json:"public"`
	Tracks      trackTotal `json:"tracks"`
	Images      []Image    `json:"images"`
	URI         string     `json:"uri"`
}

// Model maps the API playlist object to the renderable domain type.
func (p SimplePlaylist) Model() models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
	}
}

// PlaylistItem represents a track within a playlist context.
type PlaylistItem struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// PlaylistsPage represents a paginated response of playlists.
type PlaylistsPage struct {
	Items    []SimplePlaylist `json:"items"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
}

// SavedTracksPage represents a paginated response of saved tracks.
type SavedTracksPage struct {
	Items    []SavedTrack `json:"items"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
}

// PlaylistItemsPage represents a paginated response of playlist tracks.
type PlaylistItemsPage struct {
	Items    []PlaylistItem `json:"items"`
	Total    int            `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
}

// tracksPage is the inner paging object of a search response.
type tracksPage struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
}

// SearchResponse groups the result pages of a search request.
type SearchResponse struct {
	Tracks    tracksPage `json:"tracks"`
	Playlists struct {
		Items []SimplePlaylist `json:"items"`
		Total int              `json:"total"`
	} `json:"playlists"`
}

// Device represents a playback device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// Model maps the API device object to the renderable domain type.
func (d Device) Model() models.Device {
	return models.Device{
		ID:            d.ID,
		Name:          d.Name,
		Type:          d.Type,
		Active:        d.IsActive,
		VolumePercent: d.VolumePercent,
	}
}

// DevicesResponse wraps the device listing endpoint's payload.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// PlaybackState represents the current playback context reported by the
// player endpoint.
type PlaybackState struct {
	Device       Device `json:"device"`
	ShuffleState bool   `json:"shuffle_state"`
	RepeatState  string `json:"repeat_state"`
	Timestamp    int64  `json:"timestamp"`
	ProgressMS   int    `json:"progress_ms"`
	IsPlaying    bool   `json:"is_playing"`
	Item         *Track `json:"item"`
}

// UserProfile represents the authenticated user's profile.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// Snapshot converts the playback state into a wholesale [models.Snapshot]
// timestamped at now.
func (ps *PlaybackState) Snapshot(now time.Time) *models.Snapshot {
	snap := &models.Snapshot{
		ProgressMS: ps.ProgressMS,
		Playing:    ps.IsPlaying,
		Volume:     ps.Device.VolumePercent,
		Shuffle:    ps.ShuffleState,
		Repeat:     models.RepeatState(ps.RepeatState),
		DeviceID:   ps.Device.ID,
		DeviceName: ps.Device.Name,
		UpdatedAt:  now,
	}
	if ps.Item != nil {
		t := ps.Item.Model()
		snap.Track = &t
	}
	return snap
}

// errorBody is the error envelope the API returns for non-2xx responses.
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
