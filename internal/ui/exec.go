package ui

import (
	"context"
	"fmt"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/queue"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/spotify"
)

// NewExecutor adapts the API gateway to the command queue: one function
// translating each command kind into the corresponding gateway call. Fetch
// kinds return the typed page payloads the dispatcher applies to state;
// transport kinds return nil data.
func NewExecutor(client *spotify.Client, pageSize int) queue.Executor {
	return func(ctx context.Context, cmd queue.Command) (any, error) {
		switch cmd.Kind {
		case queue.KindPlay:
			return nil, client.Play(ctx, "", cmd.Target, cmd.URIs, cmd.Value)

		case queue.KindResume:
			return nil, client.Resume(ctx)

		case queue.KindPause:
			return nil, client.Pause(ctx)

		case queue.KindNext:
			return nil, client.Next(ctx)

		case queue.KindPrevious:
			return nil, client.Previous(ctx)

		case queue.KindSeek:
			return nil, client.Seek(ctx, cmd.Value)

		case queue.KindVolume:
			return nil, client.SetVolume(ctx, cmd.Value)

		case queue.KindShuffle:
			return nil, client.SetShuffle(ctx, cmd.Flag)

		case queue.KindRepeat:
			return nil, client.SetRepeat(ctx, models.RepeatState(cmd.Target))

		case queue.KindTransfer:
			return nil, client.TransferPlayback(ctx, cmd.Target)

		case queue.KindToggleSave:
			if cmd.Flag {
				return nil, client.RemoveSavedTrack(ctx, cmd.Target)
			}
			return nil, client.SaveTrack(ctx, cmd.Target)

		case queue.KindFetchPlaylists:
			page, err := client.UserPlaylists(ctx, pageSize, cmd.Offset)
			if err != nil {
				return nil, err
			}
			items := make([]models.Playlist, 0, len(page.Items))
			for _, p := range page.Items {
				items = append(items, p.Model())
			}
			return playlistPage{Items: items, Total: page.Total, Offset: page.Offset}, nil

		case queue.KindFetchPlaylistTracks:
			page, err := client.PlaylistItems(ctx, cmd.Target, pageSize, cmd.Offset)
			if err != nil {
				return nil, err
			}
			items := make([]models.Track, 0, len(page.Items))
			for _, it := range page.Items {
				items = append(items, it.Track.Model())
			}
			return trackPage{Items: items, Total: page.Total, Offset: page.Offset}, nil

		case queue.KindFetchSavedTracks:
			page, err := client.SavedTracks(ctx, pageSize, cmd.Offset)
			if err != nil {
				return nil, err
			}
			items := make([]models.Track, 0, len(page.Items))
			for _, st := range page.Items {
				track := st.Track.Model()
				track.Saved = true
				items = append(items, track)
			}
			return trackPage{Items: items, Total: page.Total, Offset: page.Offset}, nil

		case queue.KindFetchDevices:
			return client.Devices(ctx)

		case queue.KindFetchRecent:
			history, err := client.RecentlyPlayed(ctx, pageSize)
			if err != nil {
				return nil, err
			}
			tracks := make([]models.Track, 0, len(history))
			for _, h := range history {
				tracks = append(tracks, h.Track.Model())
			}
			return tracks, nil

		case queue.KindSearch:
			response, err := client.Search(ctx, cmd.Query, pageSize)
			if err != nil {
				return nil, err
			}
			results := &models.SearchResults{Query: cmd.Query}
			for _, t := range response.Tracks.Items {
				results.Tracks = append(results.Tracks, t.Model())
			}
			for _, p := range response.Playlists.Items {
				results.Playlists = append(results.Playlists, p.Model())
			}
			return results, nil

		default:
			return nil, fmt.Errorf("%w: command %s", shared.ErrNotImplemented, cmd.Kind)
		}
	}
}
