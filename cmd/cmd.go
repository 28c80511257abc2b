// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// setupCommand initializes the config file and session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file and initialize the session database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify via the browser OAuth flow",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Destroy the stored session",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// playbackCommand exposes one-shot playback control without the TUI.
func playbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playback",
		Aliases: []string{"pb"},
		Usage:   "Control playback from the command line",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show current playback state",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.PlaybackStatus,
			},
			{
				Name:   "resume",
				Usage:  "Resume playback",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaybackResume,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaybackPause,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaybackNext,
			},
			{
				Name:    "previous",
				Aliases: []string{"prev"},
				Usage:   "Skip to the previous track",
				Flags:   []cli.Flag{configFlag()},
				Action:  r.PlaybackPrevious,
			},
			{
				Name:  "volume",
				Usage: "Set playback volume (0-100)",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "percent"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaybackVolume,
			},
			{
				Name:  "devices",
				Usage: "List playback devices",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PlaybackDevices,
			},
		},
	}
}

// playlistCommand lists and exports playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "export",
				Usage: "Export a playlist's tracks to CSV or plain text",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv or text)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (stdout when omitted)",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command, the main entry point.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
