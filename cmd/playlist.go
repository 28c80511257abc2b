package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/strum/internal/formatter"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/spotify"
	"github.com/urfave/cli/v3"
)

// PlaylistList prints the user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		page, err := client.UserPlaylists(ctx, int(cmd.Int("limit")), 0)
		if err != nil {
			return err
		}

		playlists := make([]models.Playlist, 0, len(page.Items))
		for _, p := range page.Items {
			playlists = append(playlists, p.Model())
		}

		if cmd.Bool("json") {
			return r.writeJSON(playlists, true)
		}

		for _, p := range playlists {
			r.writePlainln("%s  %s (%d tracks)", p.ID, p.Name, p.TrackCount)
		}
		r.writePlainln("\n%d of %d playlists", len(playlists), page.Total)
		return nil
	})
}

// PlaylistExport fetches every track of a playlist and writes it as CSV or a
// numbered plain text listing.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		id := cmd.String("id")

		var tracks []models.Track
		for offset := 0; ; {
			page, err := client.PlaylistItems(ctx, id, 50, offset)
			if err != nil {
				return err
			}
			for _, item := range page.Items {
				tracks = append(tracks, item.Track.Model())
			}
			offset += len(page.Items)
			if len(page.Items) == 0 || offset >= page.Total {
				break
			}
		}

		var data []byte
		var err error
		switch format := cmd.String("format"); format {
		case "csv":
			data, err = formatter.ExportTracksCSV(tracks)
		case "text":
			data = formatter.ExportTracksText(id, tracks)
		default:
			return fmt.Errorf("unknown export format %q (want csv or text)", format)
		}
		if err != nil {
			return err
		}

		if path := cmd.String("output"); path != "" {
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			r.writePlainln("Exported %d tracks to %s.", len(tracks), path)
			return nil
		}
		return r.writePlain("%s", data)
	})
}
