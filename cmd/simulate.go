package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/formatter"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/repositories"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/desertthunder/mixdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// engine bundles a coordinator, its driver and the optional journal for one command run.
type engine struct {
	coord   *mixer.Coordinator
	driver  *tasks.TickDriver
	journal *repositories.JournalSink
	close   func()
}

// newEngine wires logging, the optional journal, any extra sinks and the cues into a ready driver.
func (r *Runner) newEngine(config *shared.Config, cues []string, journal, paced bool, tickRate float64, extra ...events.Sink) (*engine, error) {
	parsed := make([]tasks.Cue, 0, len(cues))
	for _, s := range cues {
		cue, err := tasks.ParseCue(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		parsed = append(parsed, cue)
	}

	e := &engine{close: func() {}}
	sinks := []events.Sink{events.NewLogSink(shared.WithLogger(r.logger, "component", "events"))}

	if journal || config.Database.Journal {
		db, err := r.openJournal(config)
		if err != nil {
			return nil, err
		}
		e.close = func() { db.Close() }
		runID := shared.GenerateID()
		e.journal = repositories.NewJournalSink(repositories.NewEventRepository(db), runID, r.logger)
		sinks = append(sinks, e.journal)
		r.logger.Info("journaling events", "run", runID, "database", config.Database.Path)
	}

	sinks = append(sinks, extra...)
	coord, err := r.newCoordinator(config, sinks...)
	if coord == nil {
		e.close()
		return nil, err
	}
	if err != nil {
		r.logger.Warn("some manifest clips were skipped", "error", err)
	}
	e.coord = coord

	if tickRate <= 0 {
		tickRate = float64(config.Driver.TickRate)
	}
	e.driver = tasks.NewTickDriver(coord, tasks.DriverOpts{
		TickRate: tickRate,
		Paced:    paced,
		Logger:   shared.WithLogger(r.logger, "component", "driver"),
	})
	for _, cue := range parsed {
		e.driver.Cue(cue.Tick, cue.Request)
	}
	return e, nil
}

type simulationReport struct {
	RunID      string           `json:"run_id,omitempty"`
	Ticks      int              `json:"ticks"`
	EngineTime float64          `json:"engine_time"`
	Dispatched int              `json:"dispatched"`
	Failures   []string         `json:"failures,omitempty"`
	Journaled  int              `json:"journaled,omitempty"`
	Status     mixer.Status     `json:"status"`
	Sessions   []session.Status `json:"sessions"`
}

// Simulate runs the engine offline for --ticks ticks, dispatching --cue requests on schedule.
func (r *Runner) Simulate(ctx context.Context, cmd *cli.Command) error {
	config, err := r.configFor(cmd)
	if err != nil {
		return err
	}
	ticks := int(cmd.Int("ticks"))
	if ticks <= 0 {
		return fmt.Errorf("%w: --ticks must be positive", shared.ErrInvalidFlag)
	}

	e, err := r.newEngine(config, cmd.StringSlice("cue"), cmd.Bool("journal"), cmd.Bool("paced"), cmd.Float("rate"))
	if err != nil {
		return err
	}
	defer e.close()

	verbose := cmd.Bool("verbose")
	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			switch {
			case update.Phase == tasks.RequestFailed:
				r.logger.Warn(update.Message)
			case verbose && update.Phase == tasks.Tick:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := e.driver.Run(ctx, progress, ticks)
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("simulation stopped: %w", err)
	}

	report := simulationReport{
		Ticks:      result.Ticks,
		EngineTime: result.EngineTime,
		Dispatched: result.Dispatched,
		Status:     result.Final.Status,
		Sessions:   result.Final.Sessions,
	}
	for _, f := range result.Failures {
		report.Failures = append(report.Failures, f.Error())
	}
	if e.journal != nil {
		report.RunID = e.journal.RunID()
		report.Journaled = e.journal.Written()
		if n := e.journal.Failed(); n > 0 {
			r.logger.Warn("some events were not journaled", "failed", n)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return r.writeReport(report)
}

func (r *Runner) writeReport(report simulationReport) error {
	r.writePlainHeader(fmt.Sprintf("Simulated %d ticks (%.3fs)", report.Ticks, report.EngineTime))
	r.write(formatter.StatusText(report.Status))
	r.writePlainln("Sessions:")
	r.write(formatter.SessionsText(report.Sessions))

	if len(report.Failures) > 0 {
		r.writePlainln("Failed requests: %d", len(report.Failures))
		for _, f := range report.Failures {
			r.writePlain("  ✗ %s\n", f)
		}
	}
	if report.RunID != "" {
		r.writePlainln("Journal run %s: %d events", report.RunID, report.Journaled)
	}
	return nil
}
