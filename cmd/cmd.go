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

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: csv, markdown, json, txt",
		Value:   value,
	}
}

func timeFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.FloatFlag{
			Name:    "time",
			Aliases: []string{"t"},
			Usage:   "Engine time in seconds",
		},
		&cli.FloatFlag{
			Name:  "tempo",
			Usage: "Tempo in BPM (0 uses the clock default)",
		},
	}
}

// setupCommand handles setup operations for configuration and the event journal.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the event journal database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the newest journal migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// catalogCommand handles clip manifest inspection
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Inspect the clip catalog built from the config manifest",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List clips, optionally filtered",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag("txt"),
					&cli.StringFlag{
						Name:  "channel",
						Usage: "Only clips on this channel",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only clips in this category",
					},
					&cli.FloatFlag{
						Name:  "tempo",
						Usage: "Only clips near this tempo",
					},
					&cli.FloatFlag{
						Name:  "tolerance",
						Usage: "Tempo tolerance in BPM (0 uses the catalog default)",
					},
				},
				Action: r.CatalogList,
			},
			{
				Name:  "search",
				Usage: "Search clip ids and names",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					formatFlag("txt"),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (0 for all)",
						Value: 20,
					},
				},
				Action: r.CatalogSearch,
			},
			{
				Name:  "stats",
				Usage: "Show clip counts per channel, category and tempo",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag("txt"),
				},
				Action: r.CatalogStats,
			},
			{
				Name:  "export",
				Usage: "Write the catalog to a file",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag("csv"),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output base path, without extension",
						Value:   "catalog",
					},
				},
				Action: r.CatalogExport,
			},
			{
				Name:   "verify",
				Usage:  "Validate the manifest and catalog indices",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CatalogVerify,
			},
		},
	}
}

// clockCommand exposes the musical clock calculations
func clockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "clock",
		Usage: "Musical grid calculations",
		Commands: []*cli.Command{
			{
				Name:   "next",
				Usage:  "Next bar, beat or subdivision boundary at or after --time",
				Flags:  append(timeFlags(), &cli.StringFlag{Name: "align", Usage: "bar, beat or subdivision", Value: "bar"}),
				Action: r.ClockNext,
			},
			{
				Name:   "position",
				Usage:  "Musical position of --time",
				Flags:  timeFlags(),
				Action: r.ClockPosition,
			},
			{
				Name:   "offset",
				Usage:  "Seconds from --time to the next boundary",
				Flags:  append(timeFlags(), &cli.StringFlag{Name: "align", Usage: "bar, beat or subdivision", Value: "beat"}),
				Action: r.ClockOffset,
			},
			{
				Name:  "groove",
				Usage: "Apply a groove template to --time",
				Flags: append(timeFlags(), &cli.StringFlag{
					Name:  "groove",
					Usage: "none, swing, shuffle, latin or funk",
					Value: "swing",
				}),
				Action: r.ClockGroove,
			},
		},
	}
}

// simulateCommand drives the engine offline from scripted cues
func simulateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "simulate",
		Aliases: []string{"sim"},
		Usage:   "Run the engine for a number of ticks with scripted play requests",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:  "cue",
				Usage: "Request as tick:channel:clip[:gain], repeatable",
			},
			&cli.IntFlag{
				Name:  "ticks",
				Usage: "Number of ticks to run",
				Value: 240,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Ticks per engine second (0 uses driver.tick_rate)",
			},
			&cli.BoolFlag{
				Name:  "paced",
				Usage: "Run in real time instead of as fast as possible",
			},
			&cli.BoolFlag{
				Name:  "journal",
				Usage: "Persist emitted events to the database",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print every tick",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the final status as JSON",
			},
		},
		Action: r.Simulate,
	}
}

// journalCommand reads persisted events
func journalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Inspect the event journal",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List journaled events in order",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "run", Usage: "Only events from this run id"},
					&cli.StringFlag{Name: "kind", Usage: "Only events of this kind"},
					&cli.StringFlag{Name: "subject", Usage: "Only events about this subject"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of events (0 for all)", Value: 100},
				},
				Action: r.JournalList,
			},
			{
				Name:  "stats",
				Usage: "Count journaled events by kind",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "run", Usage: "Only events from this run id"},
				},
				Action: r.JournalStats,
			},
		},
	}
}

// monitorCommand returns the top-level command for the live terminal monitor.
func monitorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "monitor",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the live mix monitor",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:  "cue",
				Usage: "Request as tick:channel:clip[:gain], repeatable",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the monitor owns the terminal",
				Value: "./tmp/mixdeck-monitor.log",
			},
		},
		Action: r.Monitor,
	}
}
