package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/strum/internal/mpris"
	"github.com/desertthunder/strum/internal/poller"
	"github.com/desertthunder/strum/internal/queue"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/state"
	"github.com/desertthunder/strum/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI wires the gateway, command queue, poller, and media-key listener
// together and runs the interactive player until quit.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	// Terminal output belongs to the TUI; logs go to a file instead.
	logger, err := shared.NewFileLogger("strum.log")
	if err != nil {
		logger = r.logger
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
	if !client.Authenticated() {
		r.writePlainln("Not authenticated. Run 'strum auth login' first.")
		return shared.ErrNotAuthenticated
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	seq := &state.Sequencer{}

	commandQueue := queue.New(queue.DefaultCapacity, ui.NewExecutor(client, config.UI.PageSize), logger)
	go commandQueue.Run(runCtx)

	playbackPoller := poller.New(client.CurrentPlayback, seq, config.Poller.FastInterval(), config.Poller.SlowInterval(), logger)
	go playbackPoller.Run(runCtx)

	media := mpris.Connect(logger)
	defer media.Close()

	model := ui.NewModel(runCtx, ui.Options{
		Client:   client,
		Queue:    commandQueue,
		Poller:   playbackPoller,
		Media:    media,
		Seq:      seq,
		Logger:   logger,
		TickRate: config.UI.TickRate(),
		PageSize: config.UI.PageSize,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
