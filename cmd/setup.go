package main

import (
	"context"

	"github.com/desertthunder/strum/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file and initializes the session database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = defaultConfigPath
	}

	if err := shared.CreateConfigFile(path); err != nil {
		r.logger.Warn("config file not created", "err", err)
	} else {
		r.writePlainln("Wrote %s. Fill in your Spotify client credentials.", path)
	}

	config, err := r.loadConfig(path)
	if err != nil {
		config = r.config
	}

	db, _, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlainln("Session database ready at %s.", config.Database.Path)
	return nil
}
