package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger for full-screen commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, catalogCommand, clockCommand, simulateCommand, journalCommand, monitorCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configFor returns the config named by --config when it was given, else the runner's config.
func (r *Runner) configFor(cmd *cli.Command) (*shared.Config, error) {
	if !cmd.IsSet("config") {
		return r.config, nil
	}
	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	r.logger.Debug("loaded config", "path", path)
	return config, nil
}

// newCoordinator builds a coordinator from config and registers the clip manifest.
//
// Manifest entries that fail to register are reported together; the rest stay registered.
func (r *Runner) newCoordinator(config *shared.Config, sinks ...events.Sink) (*mixer.Coordinator, error) {
	opts, err := mixer.OptionsFromConfig(config)
	if err != nil {
		return nil, err
	}
	opts.Logger = shared.WithLogger(r.logger, "component", "mixer")
	opts.Sinks = append(opts.Sinks, sinks...)

	coord := mixer.New(opts)
	return coord, registerClips(coord, config.Clips)
}

func registerClips(coord *mixer.Coordinator, clips []shared.ClipConfig) error {
	var errs []error
	for _, cc := range clips {
		ch, err := models.ParseChannel(cc.Channel)
		if err != nil {
			errs = append(errs, fmt.Errorf("clip %s: %w", cc.ID, err))
			continue
		}

		name := cc.Name
		if name == "" {
			name = cc.ID
		}
		clip := models.NewClip(cc.ID, name, ch, cc.Tempo)
		if cc.Category != "" {
			clip.SetCategory(cc.Category)
		}
		for _, tag := range cc.Tags {
			clip.AddTag(tag)
		}

		if _, err := coord.Catalog().RegisterClip(clip); err != nil {
			errs = append(errs, fmt.Errorf("clip %s: %w", cc.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) write(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.write([]byte(fmt.Sprintf(format, args...)))
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.write([]byte("\n" + fmt.Sprintf(format, args...) + "\n"))
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
