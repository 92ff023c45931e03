package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/desertthunder/mixdeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// eventFeedSize bounds the monitor's event backlog; new events are dropped while it is full.
const eventFeedSize = 256

// Monitor launches the live terminal monitor.
func (r *Runner) Monitor(ctx context.Context, cmd *cli.Command) error {
	config, err := r.configFor(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := cmd.String("log-file")
	if !cmd.IsSet("log-file") && config.Log.File != "" {
		logPath = config.Log.File
	}
	fileLogger, logFile, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	if lvl, err := shared.ParseLogLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(fileLogger, lvl)
	}
	r.SetLogger(fileLogger)

	feed := make(chan events.Event, eventFeedSize)
	sink := events.NewChannelSink(feed)

	paced := config.Driver.TickRate > 0
	e, err := r.newEngine(config, cmd.StringSlice("cue"), false, paced, 0, sink)
	if err != nil {
		return err
	}
	defer e.close()
	r.logger.Info("monitor started", "clips", e.coord.Catalog().Len(), "interval", config.Driver.TickInterval(), "paced", paced)

	model := ui.NewModel(ctx, e.driver, e.coord.Catalog().List(), feed)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running monitor: %w", err)
	}

	result, err := model.Result()
	if err != nil {
		return fmt.Errorf("engine stopped: %w", err)
	}
	if result != nil {
		r.writePlain("✓ %d ticks, %d requests, %d failed\n", result.Ticks, result.Dispatched, len(result.Failures))
	}
	if n := sink.Dropped(); n > 0 {
		r.logger.Debug("event log skipped events", "dropped", n)
	}
	return nil
}
