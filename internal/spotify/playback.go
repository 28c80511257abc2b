package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// CurrentPlayback fetches the current playback state. Returns (nil, nil) when
// nothing is playing on any device.
func (c *Client) CurrentPlayback(ctx context.Context) (*models.Snapshot, error) {
	var ps PlaybackState
	if err := c.do(ctx, http.MethodGet, "/me/player", nil, nil, &ps); err != nil {
		return nil, err
	}

	// A 204 or empty body leaves the struct zeroed.
	if ps.Item == nil && ps.Timestamp == 0 {
		return nil, nil
	}

	return ps.Snapshot(time.Now()), nil
}

// Devices lists the playback devices registered with the user's account.
func (c *Client) Devices(ctx context.Context) ([]models.Device, error) {
	var response DevicesResponse
	if err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, nil, &response); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		devices = append(devices, d.Model())
	}
	return devices, nil
}

func deviceQuery(deviceID string) url.Values {
	if deviceID == "" {
		return nil
	}
	q := url.Values{}
	q.Set("device_id", deviceID)
	return q
}

// playRequest is the body of the start/resume endpoint. Exactly one of
// ContextURI or URIs is set; both empty resumes the paused track.
type playRequest struct {
	ContextURI string      `json:"context_uri,omitempty"`
	URIs       []string    `json:"uris,omitempty"`
	Offset     *playOffset `json:"offset,omitempty"`
}

type playOffset struct {
	Position int `json:"position"`
}

// Play starts playback of a context (album/playlist URI) at the given track
// position on the given device. Empty contextURI with URIs plays those tracks
// directly; everything empty resumes.
func (c *Client) Play(ctx context.Context, deviceID, contextURI string, uris []string, position int) error {
	var body any
	if contextURI != "" || len(uris) > 0 {
		req := playRequest{ContextURI: contextURI, URIs: uris}
		if position > 0 {
			req.Offset = &playOffset{Position: position}
		}
		body = req
	}
	return c.do(ctx, http.MethodPut, "/me/player/play", deviceQuery(deviceID), body, nil)
}

// Resume resumes the paused playback.
func (c *Client) Resume(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/me/player/play", nil, nil, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/me/player/pause", nil, nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/me/player/next", nil, nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/me/player/previous", nil, nil, nil)
}

// Seek jumps to the given position in the current track.
func (c *Client) Seek(ctx context.Context, positionMS int) error {
	if positionMS < 0 {
		positionMS = 0
	}
	q := url.Values{}
	q.Set("position_ms", strconv.Itoa(positionMS))
	return c.do(ctx, http.MethodPut, "/me/player/seek", q, nil, nil)
}

// SetVolume sets the device volume as a percentage.
func (c *Client) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	q := url.Values{}
	q.Set("volume_percent", strconv.Itoa(percent))
	return c.do(ctx, http.MethodPut, "/me/player/volume", q, nil, nil)
}

// SetShuffle toggles shuffle mode.
func (c *Client) SetShuffle(ctx context.Context, on bool) error {
	q := url.Values{}
	q.Set("state", strconv.FormatBool(on))
	return c.do(ctx, http.MethodPut, "/me/player/shuffle", q, nil, nil)
}

// SetRepeat sets the repeat mode (off, context, or track).
func (c *Client) SetRepeat(ctx context.Context, state models.RepeatState) error {
	q := url.Values{}
	q.Set("state", string(state))
	return c.do(ctx, http.MethodPut, "/me/player/repeat", q, nil, nil)
}

// TransferPlayback moves playback to the given device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string) error {
	body := struct {
		DeviceIDs []string `json:"device_ids"`
		Play      bool     `json:"play"`
	}{
		DeviceIDs: []string{deviceID},
		Play:      true,
	}
	return c.do(ctx, http.MethodPut, "/me/player", nil, body, nil)
}
