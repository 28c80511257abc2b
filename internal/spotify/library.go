package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

// Profile retrieves the current authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (c *Client) UserPlaylists(ctx context.Context, limit, offset int) (*PlaylistsPage, error) {
	var page PlaylistsPage
	if err := c.do(ctx, http.MethodGet, "/me/playlists", pageQuery(limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PlaylistItems retrieves one page of a playlist's tracks.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*PlaylistItemsPage, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	var page PlaylistItemsPage
	if err := c.do(ctx, http.MethodGet, endpoint, pageQuery(limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (c *Client) SavedTracks(ctx context.Context, limit, offset int) (*SavedTracksPage, error) {
	var page SavedTracksPage
	if err := c.do(ctx, http.MethodGet, "/me/tracks", pageQuery(limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RecentlyPlayed retrieves the user's most recently played tracks.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]PlayHistoryItem, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var response struct {
		Items []PlayHistoryItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/player/recently-played", q, nil, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

// Search queries tracks and playlists matching the search term.
func (c *Client) Search(ctx context.Context, term string, limit int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("type", "track,playlist")
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var response SearchResponse
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SaveTrack adds a track to the user's library.
func (c *Client) SaveTrack(ctx context.Context, trackID string) error {
	q := url.Values{}
	q.Set("ids", trackID)
	return c.do(ctx, http.MethodPut, "/me/tracks", q, nil, nil)
}

// RemoveSavedTrack removes a track from the user's library.
func (c *Client) RemoveSavedTrack(ctx context.Context, trackID string) error {
	q := url.Values{}
	q.Set("ids", trackID)
	return c.do(ctx, http.MethodDelete, "/me/tracks", q, nil, nil)
}

// ContainsSavedTracks checks which of the given tracks are in the user's
// library (up to 50 IDs).
func (c *Client) ContainsSavedTracks(ctx context.Context, trackIDs []string) ([]bool, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	if len(trackIDs) > 50 {
		return nil, fmt.Errorf("maximum 50 track IDs allowed")
	}

	q := url.Values{}
	q.Set("ids", strings.Join(trackIDs, ","))

	var contains []bool
	if err := c.do(ctx, http.MethodGet, "/me/tracks/contains", q, nil, &contains); err != nil {
		return nil, err
	}
	return contains, nil
}
