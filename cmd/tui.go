package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"

	"github.com/sudipghimire533/ytui-music-sub000/internal/repositories"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
	"github.com/sudipghimire533/ytui-music-sub000/internal/tasks"
	"github.com/sudipghimire533/ytui-music-sub000/internal/ui"
)

const noticeBuffer = 16

// TUI launches the interactive player.
//
// The orchestrator runs in the background while bubbletea owns the terminal.
// Leaving the UI issues a quit intent and waits for the orchestrator to stop its tasks.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.Path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if err := shared.ApplyLogLevel(fileLogger, r.config.Log.Level); err != nil {
		return err
	}
	r.SetLogger(fileLogger)

	var history tasks.HistoryRecorder
	var favourites ui.FavouriteAdder
	if err := r.database(); err != nil {
		r.logger.Warn("database unavailable, favourites and history disabled", "error", err)
	} else {
		history = repositories.NewHistoryRecorder(r.history)
		favourites = r.favourites
	}

	notices := make(chan tasks.Notice, noticeBuffer)
	orch, intents, render, err := tasks.New(tasks.Opts{
		Source:    r.source,
		Player:    r.player,
		Logger:    r.logger,
		Region:    r.config.Source.Region,
		QueueSize: r.config.Player.QueueSize,
		History:   history,
		Notices:   notices,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg conc.WaitGroup
	var runErr error
	wg.Go(func() {
		runErr = orch.Run(ctx)
	})

	model := ui.NewModel(ctx, ui.Deps{
		Intents:    intents,
		Store:      orch.Store(),
		Render:     render,
		Player:     r.player,
		Favourites: favourites,
		Notices:    notices,
		Refresh:    r.config.RefreshInterval(),
		Logger:     r.logger,
	})
	// the first screen shows trending music until the user searches
	intents.RequestTrending()

	_, uiErr := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	intents.RequestQuit()
	wg.Wait()

	if uiErr != nil {
		return fmt.Errorf("error running TUI: %w", uiErr)
	}
	return runErr
}
