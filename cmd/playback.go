package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/strum/internal/formatter"
	"github.com/desertthunder/strum/internal/spotify"
	"github.com/urfave/cli/v3"
)

// withClient handles the shared bootstrapping of one-shot commands: load
// config, open the store, build an authenticated gateway.
func (r *Runner) withClient(cmd *cli.Command, fn func(client *spotify.Client) error) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, repo, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := r.openClient(config, repo)
	if err != nil {
		return err
	}
	return fn(client)
}

// PlaybackStatus prints the current playback snapshot.
func (r *Runner) PlaybackStatus(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		snap, err := client.CurrentPlayback(ctx)
		if err != nil {
			return err
		}
		if snap == nil || snap.Track == nil {
			r.writePlainln("Nothing playing.")
			return nil
		}

		if cmd.Bool("json") {
			return r.writeJSON(snap, cmd.Bool("pretty"))
		}

		stateWord := "Paused"
		if snap.Playing {
			stateWord = "Playing"
		}
		r.writePlainln("%s: %s", stateWord, formatter.FormatTrack(*snap.Track))
		r.writePlainln("  %s  vol %d%%  on %s",
			formatter.FormatProgress(snap.ProgressMS, snap.Track.DurationMS),
			snap.Volume,
			snap.DeviceName,
		)
		return nil
	})
}

func (r *Runner) PlaybackResume(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		return client.Resume(ctx)
	})
}

func (r *Runner) PlaybackPause(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		return client.Pause(ctx)
	})
}

func (r *Runner) PlaybackNext(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		return client.Next(ctx)
	})
}

func (r *Runner) PlaybackPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		return client.Previous(ctx)
	})
}

// PlaybackVolume sets the volume to the given percent.
func (r *Runner) PlaybackVolume(ctx context.Context, cmd *cli.Command) error {
	percent := int(cmd.IntArg("percent"))
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", percent)
	}
	return r.withClient(cmd, func(client *spotify.Client) error {
		return client.SetVolume(ctx, percent)
	})
}

// PlaybackDevices lists the devices registered with the user's account.
func (r *Runner) PlaybackDevices(ctx context.Context, cmd *cli.Command) error {
	return r.withClient(cmd, func(client *spotify.Client) error {
		devices, err := client.Devices(ctx)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			return r.writeJSON(devices, true)
		}

		if len(devices) == 0 {
			r.writePlainln("No devices found.")
			return nil
		}
		for _, d := range devices {
			marker := " "
			if d.Active {
				marker = "*"
			}
			r.writePlainln("%s %s (%s) vol %d%%", marker, d.Name, d.Type, d.VolumePercent)
		}
		return nil
	})
}
